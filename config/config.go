package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StoreJSON     = "json"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Port          string      `yaml:"port"`
	AdminPort     string      `yaml:"admin_port"`
	DBType        string      `yaml:"db_type"`
	DatabaseURL   string      `yaml:"database_url"`
	WorldDir      string      `yaml:"world_dir"`
	SQLitePath    string      `yaml:"sqlite_path"`
	JournalDir    string      `yaml:"journal_dir"`
	Seed          int64       `yaml:"seed"`
	CreateOnStart bool        `yaml:"create_on_start"`
	World         WorldParams `yaml:"world"`
}

// WorldParams are the parameters of the world created on start
type WorldParams struct {
	Size   int  `yaml:"size"`
	Wumpus int  `yaml:"wumpus"`
	Traps  int  `yaml:"traps"`
	Arrow  bool `yaml:"arrow"`
}

func Default() Config {
	return Config{
		Port:        "8080",
		AdminPort:   "8081",
		DBType:      StoreJSON,
		DatabaseURL: "host=localhost user=wumpus password=wumpus dbname=wumpus sslmode=disable",
		WorldDir:    "worlds",
		SQLitePath:  "worlds.db",
		World: WorldParams{
			Size:   4,
			Wumpus: 1,
			Traps:  2,
			Arrow:  true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBType {
	case StoreJSON, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unknown db_type %q", c.DBType)
	}
	if c.World.Size < 1 {
		return fmt.Errorf("world.size must be positive, got %d", c.World.Size)
	}
	if c.World.Wumpus < 0 || c.World.Traps < 0 {
		return fmt.Errorf("world.wumpus and world.traps must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("ADMIN_PORT", &cfg.AdminPort)
	str("DB_TYPE", &cfg.DBType)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("DB_FILE", &cfg.WorldDir)
	str("WORLD_DIR", &cfg.WorldDir)
	str("SQLITE_PATH", &cfg.SQLitePath)
	str("JOURNAL_DIR", &cfg.JournalDir)

	if v, ok := lookup("SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SEED: %w", err)
		}
		cfg.Seed = seed
	}
	if v, ok := lookup("CREATE_ON_START"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CREATE_ON_START: %w", err)
		}
		cfg.CreateOnStart = b
	}
	return nil
}
