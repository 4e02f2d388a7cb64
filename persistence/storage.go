package persistence

import "wumpus-simulator/models"

// Storage defines the interface for world persistence. The name is a file
// path for the JSON store and a row key for the database stores.
type Storage interface {
	SaveWorld(name string, world *models.WorldSnapshot) error
	LoadWorld(name string) (*models.WorldSnapshot, error)
	Close() error
}
