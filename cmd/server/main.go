package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/gorilla/websocket"

	"wumpus-simulator/admin"
	"wumpus-simulator/config"
	"wumpus-simulator/handlers"
	"wumpus-simulator/persistence"
	"wumpus-simulator/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients are local tools and bridges, any origin is accepted
		return true
	},
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer store.Close()

	clientManager := handlers.NewClientManager()
	publishers := services.Publishers{clientManager}
	if cfg.JournalDir != "" {
		journal := persistence.NewJournal(cfg.JournalDir, "events", log.New(os.Stdout, "[journal] ", log.LstdFlags))
		defer journal.Close()
		publishers = append(publishers, journal)
		log.Printf("Journaling events to %s", cfg.JournalDir)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sim := services.NewSimulator(services.Options{
		Publisher: publishers,
		Storage:   store,
		Rand:      rand.New(rand.NewSource(seed)),
		Logger:    log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds),
	})

	if cfg.CreateOnStart {
		err := sim.CreateWorld(services.WorldConfig{
			HasArrow:    cfg.World.Arrow,
			WumpusCount: cfg.World.Wumpus,
			TrapCount:   cfg.World.Traps,
			Size:        cfg.World.Size,
		})
		if err != nil {
			log.Fatalf("Failed to create initial world: %v", err)
		}
	}

	adminServer := server.Default(server.WithHostPorts(":" + cfg.AdminPort))
	admin.Handler{Sim: sim}.RegisterRoutes(adminServer)
	go adminServer.Spin()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		handlers.HandleClientConnection(conn, sim, clientManager)
	})
	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	go func() {
		log.Printf("Server starting on port %s (admin on %s)", cfg.Port, cfg.AdminPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = adminServer.Shutdown(ctx)
}

func openStore(cfg config.Config) (persistence.Storage, error) {
	switch cfg.DBType {
	case config.StorePostgres:
		log.Println("Using PostgreSQL persistence")
		return persistence.NewPostgresStore(cfg.DatabaseURL)
	case config.StoreSQLite:
		log.Println("Using SQLite persistence")
		return persistence.NewSQLiteStore(cfg.SQLitePath)
	default:
		log.Println("Using JSON persistence")
		return persistence.NewJSONStore(cfg.WorldDir)
	}
}
