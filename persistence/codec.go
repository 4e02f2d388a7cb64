package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"wumpus-simulator/models"
)

const worldSchemaURL = "wumpus-world.schema.json"

const worldSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "size", "wumpus_count", "trap_count", "agent_has_arrow", "tiles"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "size": {"type": "integer", "minimum": 1},
    "wumpus_count": {"type": "integer", "minimum": 0},
    "trap_count": {"type": "integer", "minimum": 0},
    "agent_has_arrow": {"type": "boolean"},
    "tiles": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["x", "y"],
        "properties": {
          "x": {"type": "integer", "minimum": 0},
          "y": {"type": "integer", "minimum": 0},
          "trap": {"type": "boolean"},
          "gold": {"type": "boolean"},
          "breeze": {"type": "boolean"},
          "startpoint": {"type": "boolean"},
          "start_agent_id": {"type": "integer"},
          "lair": {"type": "boolean"}
        }
      }
    }
  }
}`

var compiledWorldSchema = jsonschema.MustCompileString(worldSchemaURL, worldSchema)

// EncodeWorld renders a snapshot as an indented world document.
func EncodeWorld(world *models.WorldSnapshot) ([]byte, error) {
	if world == nil {
		return nil, fmt.Errorf("%w: nil world", ErrParse)
	}
	data, err := json.MarshalIndent(world, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return data, nil
}

// DecodeWorld validates a world document against the schema and the grid
// rules, then decodes it.
func DecodeWorld(data []byte) (*models.WorldSnapshot, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := compiledWorldSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var world models.WorldSnapshot
	if err := json.Unmarshal(data, &world); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := checkGrid(&world); err != nil {
		return nil, err
	}
	return &world, nil
}

// checkGrid enforces what the schema cannot express: one record per tile,
// all inside the grid.
func checkGrid(world *models.WorldSnapshot) error {
	want := world.Size * world.Size
	if len(world.Tiles) != want {
		return fmt.Errorf("%w: %d tiles for size %d", ErrParse, len(world.Tiles), world.Size)
	}
	seen := make([]bool, want)
	for _, t := range world.Tiles {
		if t.X >= world.Size || t.Y >= world.Size {
			return fmt.Errorf("%w: tile (%d,%d) outside size %d", ErrParse, t.X, t.Y, world.Size)
		}
		i := t.X*world.Size + t.Y
		if seen[i] {
			return fmt.Errorf("%w: duplicate tile (%d,%d)", ErrParse, t.X, t.Y)
		}
		seen[i] = true
	}
	return nil
}
