package models

// Tile is one cell of the playground.
type Tile struct {
	X            int  `json:"x"`
	Y            int  `json:"y"`
	Trap         bool `json:"trap"`
	Gold         bool `json:"gold"`
	Breeze       bool `json:"breeze"`
	Stench       bool `json:"stench"`
	Startpoint   bool `json:"startpoint"`
	StartAgentID int  `json:"start_agent_id"`
}

// Position returns the coordinate of the tile.
func (t *Tile) Position() Position {
	return Position{X: t.X, Y: t.Y}
}

// SnapshotVersion is the current persisted world format.
const SnapshotVersion = 1

// WorldSnapshot is the persisted form of a world: everything needed to
// rebuild the grid. Agents are not part of it; wumpus slots are kept as
// lair markers on their tiles.
type WorldSnapshot struct {
	Version       int          `json:"version"`
	Size          int          `json:"size"`
	WumpusCount   int          `json:"wumpus_count"`
	TrapCount     int          `json:"trap_count"`
	AgentHasArrow bool         `json:"agent_has_arrow"`
	Tiles         []TileRecord `json:"tiles"`
}

// TileRecord is a persisted tile.
type TileRecord struct {
	X            int  `json:"x"`
	Y            int  `json:"y"`
	Trap         bool `json:"trap"`
	Gold         bool `json:"gold"`
	Breeze       bool `json:"breeze"`
	Startpoint   bool `json:"startpoint"`
	StartAgentID int  `json:"start_agent_id"`
	Lair         bool `json:"lair"`
}
