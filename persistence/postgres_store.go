package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"wumpus-simulator/models"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore handles world persistence using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrIO, err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrIO, err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialize schema: %v", ErrIO, err)
	}

	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		size INTEGER NOT NULL,
		wumpus_count INTEGER NOT NULL,
		trap_count INTEGER NOT NULL,
		agent_has_arrow BOOLEAN NOT NULL,
		document JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`

	_, err := ps.db.Exec(schema)
	return err
}

// SaveWorld upserts a world by name
func (ps *PostgresStore) SaveWorld(name string, world *models.WorldSnapshot) error {
	doc, err := EncodeWorld(world)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO worlds (name, size, wumpus_count, trap_count, agent_has_arrow, document)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (name)
	DO UPDATE SET
		size = $2, wumpus_count = $3, trap_count = $4,
		agent_has_arrow = $5, document = $6,
		updated_at = NOW()
	`

	_, err = ps.db.Exec(query,
		name, world.Size, world.WumpusCount, world.TrapCount,
		world.AgentHasArrow, string(doc))
	if err != nil {
		return fmt.Errorf("%w: save world %s: %v", ErrIO, name, err)
	}

	return nil
}

// LoadWorld loads a world by name
func (ps *PostgresStore) LoadWorld(name string) (*models.WorldSnapshot, error) {
	var doc string
	err := ps.db.QueryRow(`SELECT document FROM worlds WHERE name = $1`, name).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
		}
		return nil, fmt.Errorf("%w: load world %s: %v", ErrIO, name, err)
	}

	return DecodeWorld([]byte(doc))
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	log.Println("Closing database connection...")
	return ps.db.Close()
}
