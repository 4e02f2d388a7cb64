package services

import (
	"fmt"
	"math/rand"

	"wumpus-simulator/models"
)

// WorldConfig holds the generation parameters of a world
type WorldConfig struct {
	HasArrow    bool
	WumpusCount int
	TrapCount   int
	Size        int
}

// World owns the grid and the registry of living movables. Each movable's
// position is a key into the grid; occupants is the index from tile to
// movables and is kept in step with every place, move and remove.
type World struct {
	grid      *Grid
	config    WorldConfig
	movables  []models.Movable
	occupants [][]models.Movable
}

func newEmptyWorld(config WorldConfig) *World {
	return &World{
		grid:      NewGrid(config.Size),
		config:    config,
		occupants: make([][]models.Movable, config.Size*config.Size),
	}
}

// NewWorld generates a world: traps, one gold tile and the wumpus slots go on
// distinct random tiles, breeze marks the neighbors of traps and stench is
// derived from the wumpi.
func NewWorld(config WorldConfig, rng *rand.Rand) (*World, error) {
	if config.Size < 1 || config.WumpusCount < 0 || config.TrapCount < 0 {
		return nil, fmt.Errorf("size %d, wumpi %d, traps %d: %w",
			config.Size, config.WumpusCount, config.TrapCount, ErrInvalidWorldConfig)
	}
	cells := config.Size * config.Size
	if config.TrapCount+config.WumpusCount+1 > cells {
		return nil, fmt.Errorf("%d traps, %d wumpi and gold do not fit %d tiles: %w",
			config.TrapCount, config.WumpusCount, cells, ErrInvalidWorldConfig)
	}

	w := newEmptyWorld(config)
	perm := rng.Perm(cells)
	pos := func(i int) models.Position {
		return models.Position{X: perm[i] / config.Size, Y: perm[i] % config.Size}
	}

	next := 0
	for ; next < config.TrapCount; next++ {
		w.grid.at(pos(next)).Trap = true
	}
	w.grid.at(pos(next)).Gold = true
	next++
	for i := 0; i < config.WumpusCount; i, next = i+1, next+1 {
		w.Place(&models.Wumpus{}, pos(next))
	}

	w.computeBreeze()
	w.RecomputeStench()
	return w, nil
}

// WorldFromSnapshot rebuilds a world from its persisted form. One
// unpossessed wumpus is recreated on every lair tile; agents are not
// restored.
func WorldFromSnapshot(snap *models.WorldSnapshot) (*World, error) {
	if snap == nil || snap.Size < 1 || len(snap.Tiles) != snap.Size*snap.Size {
		return nil, fmt.Errorf("malformed snapshot: %w", ErrInvalidWorldConfig)
	}
	w := newEmptyWorld(WorldConfig{
		HasArrow:    snap.AgentHasArrow,
		WumpusCount: snap.WumpusCount,
		TrapCount:   snap.TrapCount,
		Size:        snap.Size,
	})
	for _, rec := range snap.Tiles {
		t, err := w.grid.Tile(rec.X, rec.Y)
		if err != nil {
			return nil, fmt.Errorf("snapshot tile: %w", err)
		}
		t.Trap = rec.Trap
		t.Gold = rec.Gold
		t.Breeze = rec.Breeze
		t.Startpoint = rec.Startpoint
		t.StartAgentID = rec.StartAgentID
		if rec.Lair {
			w.Place(&models.Wumpus{}, t.Position())
		}
	}
	w.RecomputeStench()
	return w, nil
}

// Snapshot returns the persisted form of the world
func (w *World) Snapshot() *models.WorldSnapshot {
	snap := &models.WorldSnapshot{
		Version:       models.SnapshotVersion,
		Size:          w.grid.Size(),
		WumpusCount:   w.config.WumpusCount,
		TrapCount:     w.config.TrapCount,
		AgentHasArrow: w.config.HasArrow,
		Tiles:         make([]models.TileRecord, 0, w.grid.Size()*w.grid.Size()),
	}
	w.grid.Each(func(t *models.Tile) {
		snap.Tiles = append(snap.Tiles, models.TileRecord{
			X:            t.X,
			Y:            t.Y,
			Trap:         t.Trap,
			Gold:         t.Gold,
			Breeze:       t.Breeze,
			Startpoint:   t.Startpoint,
			StartAgentID: t.StartAgentID,
			Lair:         w.HasWumpus(t.Position()),
		})
	})
	return snap
}

func (w *World) Size() int { return w.grid.Size() }
func (w *World) HasArrow() bool { return w.config.HasArrow }
func (w *World) Config() WorldConfig { return w.config }
func (w *World) Grid() *Grid { return w.grid }
func (w *World) InBounds(p models.Position) bool { return w.grid.InBounds(p) }

// Tile returns the tile at (x, y)
func (w *World) Tile(x, y int) (*models.Tile, error) {
	return w.grid.Tile(x, y)
}

// Lookup finds a living movable by id. Id 0 is the unpossessed wumpus
// placeholder and is never addressable.
func (w *World) Lookup(id int) (models.Movable, error) {
	if id != 0 {
		for _, m := range w.movables {
			if m.GetID() == id {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("id %d: %w", id, ErrNotFound)
}

// Agent finds a living agent by id
func (w *World) Agent(id int) (*models.Agent, error) {
	m, err := w.Lookup(id)
	if err != nil {
		return nil, err
	}
	a, ok := m.(*models.Agent)
	if !ok {
		return nil, fmt.Errorf("id %d is not an agent: %w", id, ErrNotFound)
	}
	return a, nil
}

// Movables returns the registry in spawn order
func (w *World) Movables() []models.Movable {
	return append([]models.Movable(nil), w.movables...)
}

// Counts returns the number of living agents and wumpi
func (w *World) Counts() (agents, wumpi int) {
	for _, m := range w.movables {
		switch m.(type) {
		case *models.Agent:
			agents++
		case *models.Wumpus:
			wumpi++
		}
	}
	return agents, wumpi
}

// Occupants returns the movables on p
func (w *World) Occupants(p models.Position) []models.Movable {
	if !w.grid.InBounds(p) {
		return nil
	}
	return append([]models.Movable(nil), w.occupants[w.grid.Index(p)]...)
}

// Wumpi returns the wumpi on p
func (w *World) Wumpi(p models.Position) []*models.Wumpus {
	var out []*models.Wumpus
	for _, m := range w.Occupants(p) {
		if wu, ok := m.(*models.Wumpus); ok {
			out = append(out, wu)
		}
	}
	return out
}

// Agents returns the agents on p
func (w *World) Agents(p models.Position) []*models.Agent {
	var out []*models.Agent
	for _, m := range w.Occupants(p) {
		if a, ok := m.(*models.Agent); ok {
			out = append(out, a)
		}
	}
	return out
}

func (w *World) HasWumpus(p models.Position) bool {
	return len(w.Wumpi(p)) > 0
}

func (w *World) Occupied(p models.Position) bool {
	return w.grid.InBounds(p) && len(w.occupants[w.grid.Index(p)]) > 0
}

// UnpossessedWumpus returns the first wumpus slot nobody has claimed
func (w *World) UnpossessedWumpus() *models.Wumpus {
	for _, m := range w.movables {
		if wu, ok := m.(*models.Wumpus); ok && !wu.Possessed() {
			return wu
		}
	}
	return nil
}

// Place registers m and puts it on p. p must be in bounds.
func (w *World) Place(m models.Movable, p models.Position) {
	setPosition(m, p)
	w.movables = append(w.movables, m)
	i := w.grid.Index(p)
	w.occupants[i] = append(w.occupants[i], m)
}

// Move transfers m from its tile to p. p must be in bounds.
func (w *World) Move(m models.Movable, p models.Position) {
	w.detach(m)
	setPosition(m, p)
	i := w.grid.Index(p)
	w.occupants[i] = append(w.occupants[i], m)
}

// Remove takes m off its tile and out of the registry. Removing a wumpus
// recomputes stench.
func (w *World) Remove(m models.Movable) bool {
	found := false
	for i, other := range w.movables {
		if other == m {
			w.movables = append(w.movables[:i], w.movables[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}
	w.detach(m)
	if _, ok := m.(*models.Wumpus); ok {
		w.RecomputeStench()
	}
	return true
}

func (w *World) detach(m models.Movable) {
	i := w.grid.Index(m.GetPosition())
	occ := w.occupants[i]
	for j, other := range occ {
		if other == m {
			w.occupants[i] = append(occ[:j], occ[j+1:]...)
			return
		}
	}
}

func setPosition(m models.Movable, p models.Position) {
	switch v := m.(type) {
	case *models.Agent:
		v.Position = p
	case *models.Wumpus:
		v.Position = p
	}
}

// RecomputeStench sets stench on exactly the tiles with a living wumpus on
// an orthogonal neighbor.
func (w *World) RecomputeStench() {
	w.grid.Each(func(t *models.Tile) {
		t.Stench = false
	})
	for _, m := range w.movables {
		if _, ok := m.(*models.Wumpus); !ok {
			continue
		}
		for _, n := range w.grid.Neighbors(m.GetPosition()) {
			w.grid.at(n).Stench = true
		}
	}
}

func (w *World) computeBreeze() {
	w.grid.Each(func(t *models.Tile) {
		if !t.Trap {
			return
		}
		for _, n := range w.grid.Neighbors(t.Position()) {
			w.grid.at(n).Breeze = true
		}
	})
}

// CheckConsistency verifies that registry and occupant index agree and that
// stench matches the living wumpi.
func (w *World) CheckConsistency() error {
	indexed := 0
	for i, occ := range w.occupants {
		for _, m := range occ {
			indexed++
			if w.grid.Index(m.GetPosition()) != i {
				return fmt.Errorf("movable %d indexed on tile %d but positioned at %+v", m.GetID(), i, m.GetPosition())
			}
			if !w.registered(m) {
				return fmt.Errorf("movable %d on tile %d is not registered", m.GetID(), i)
			}
		}
	}
	if indexed != len(w.movables) {
		return fmt.Errorf("%d movables indexed, %d registered", indexed, len(w.movables))
	}

	var err error
	w.grid.Each(func(t *models.Tile) {
		want := false
		for _, n := range w.grid.Neighbors(t.Position()) {
			if w.HasWumpus(n) {
				want = true
				break
			}
		}
		if err == nil && t.Stench != want {
			err = fmt.Errorf("tile (%d,%d) stench %v, want %v", t.X, t.Y, t.Stench, want)
		}
	})
	return err
}

func (w *World) registered(m models.Movable) bool {
	for _, other := range w.movables {
		if other == m {
			return true
		}
	}
	return false
}
