package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wumpus-simulator/models"
)

// WorldFileExt is appended to world file names that lack it.
const WorldFileExt = ".wwf"

// JSONStore keeps each world as its own JSON document on disk
type JSONStore struct {
	dir   string
	mutex sync.RWMutex
}

// NewJSONStore creates a JSON storage manager rooted at dir. Relative world
// names are resolved against dir, absolute ones are used as given.
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create world dir: %v", ErrIO, err)
	}
	return &JSONStore{dir: dir}, nil
}

// Path returns the file a world name maps to.
func (js *JSONStore) Path(name string) string {
	if !strings.HasSuffix(name, WorldFileExt) {
		name += WorldFileExt
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(js.dir, name)
}

// SaveWorld writes a world document
func (js *JSONStore) SaveWorld(name string, world *models.WorldSnapshot) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty world name", ErrIO)
	}
	data, err := EncodeWorld(world)
	if err != nil {
		return err
	}

	js.mutex.Lock()
	defer js.mutex.Unlock()

	path := js.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	return nil
}

// LoadWorld reads and validates a world document
func (js *JSONStore) LoadWorld(name string) (*models.WorldSnapshot, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty world name", ErrIO)
	}

	js.mutex.RLock()
	path := js.Path(name)
	data, err := os.ReadFile(path)
	js.mutex.RUnlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	return DecodeWorld(data)
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}
