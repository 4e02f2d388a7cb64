package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"wumpus-simulator/models"
)

// SQLiteStore keeps worlds in a single-file SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty db path", ErrIO)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrIO, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrIO, p, err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS worlds (
		name TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		wumpus_count INTEGER NOT NULL,
		trap_count INTEGER NOT NULL,
		agent_has_arrow INTEGER NOT NULL,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: initialize schema: %v", ErrIO, err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveWorld upserts a world by name
func (s *SQLiteStore) SaveWorld(name string, world *models.WorldSnapshot) error {
	doc, err := EncodeWorld(world)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO worlds (name, size, wumpus_count, trap_count, agent_has_arrow, document)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			size = excluded.size,
			wumpus_count = excluded.wumpus_count,
			trap_count = excluded.trap_count,
			agent_has_arrow = excluded.agent_has_arrow,
			document = excluded.document,
			updated_at = CURRENT_TIMESTAMP`,
		name, world.Size, world.WumpusCount, world.TrapCount, world.AgentHasArrow, string(doc))
	if err != nil {
		return fmt.Errorf("%w: save world %s: %v", ErrIO, name, err)
	}
	return nil
}

// LoadWorld loads a world by name
func (s *SQLiteStore) LoadWorld(name string) (*models.WorldSnapshot, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM worlds WHERE name = ?`, name).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
		}
		return nil, fmt.Errorf("%w: load world %s: %v", ErrIO, name, err)
	}
	return DecodeWorld([]byte(doc))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
