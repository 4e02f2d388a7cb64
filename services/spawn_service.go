package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"wumpus-simulator/messages"
	"wumpus-simulator/models"
)

// RandomHeading in a placement request asks for a random heading.
const RandomHeading = -1

// Spawn brings a participant into the world: a positive id places a new
// agent on a random safe tile, a negative id possesses a free wumpus slot.
func (s *Simulator) Spawn(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrInvalidState
	}
	switch {
	case id > 0:
		return s.placeAgent(id)
	case id < 0:
		return s.possessWumpus(id)
	default:
		s.logger.Printf("spawn: id 0 is reserved for unpossessed wumpi")
		return fmt.Errorf("spawn id 0: %w", ErrInvalidID)
	}
}

// placeAgent searches for a tile free of hazards, perception, occupants and
// other start points. The search gives up after size³ attempts.
func (s *Simulator) placeAgent(id int) error {
	if _, err := s.world.Lookup(id); err == nil {
		s.logger.Printf("spawn: agent %d already placed", id)
		return fmt.Errorf("agent %d already placed: %w", id, ErrPlacementConflict)
	}

	size := s.world.Size()
	attempts := size * size * size
	for i := 0; i < attempts; i++ {
		p := models.Position{X: s.rng.Intn(size), Y: s.rng.Intn(size)}
		heading := models.Heading(s.rng.Intn(4))
		if !s.safeStart(p) {
			continue
		}
		s.spawnAgentOnTile(id, p, heading)
		return nil
	}
	s.logger.Printf("spawn: no empty tile for agent %d after %d attempts", id, attempts)
	return fmt.Errorf("agent %d: %w", id, ErrNoPlacement)
}

func (s *Simulator) safeStart(p models.Position) bool {
	t := s.world.grid.at(p)
	return !t.Trap && !t.Gold && !t.Breeze && !t.Stench && !t.Startpoint && !s.world.Occupied(p)
}

func (s *Simulator) possessWumpus(id int) error {
	if _, err := s.world.Lookup(id); err == nil {
		s.logger.Printf("spawn: wumpus %d already possessed", id)
		return fmt.Errorf("wumpus %d already possessed: %w", id, ErrPlacementConflict)
	}
	wu := s.world.UnpossessedWumpus()
	if wu == nil {
		s.logger.Printf("spawn: no wumpus available for %d", id)
		return fmt.Errorf("wumpus %d: %w", id, ErrNoPlacement)
	}
	wu.ID = id
	s.turns.Append(id)
	if s.turns.Len() == 1 {
		s.publishTurn()
	}
	return nil
}

// SpawnMultiple places a batch of agents on the requested tiles, all or
// nothing. Each distinct coordinate set is only ever tried once per world;
// repeating it fails immediately. On success the turn queue becomes exactly
// the batch, in request order.
func (s *Simulator) SpawnMultiple(reqs []messages.PlacementRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrInvalidState
	}

	// out-of-bounds batches are never cached, their linearized cells would
	// alias real tiles
	for _, r := range reqs {
		if !s.world.InBounds(models.Position{X: r.X, Y: r.Y}) {
			s.logger.Printf("spawn: agent %d at (%d,%d) is off the grid", r.AgentID, r.X, r.Y)
			return s.rejectBatch(fmt.Errorf("agent %d at (%d,%d): %w", r.AgentID, r.X, r.Y, ErrOutOfBounds))
		}
	}

	key := s.comboKey(reqs)
	if s.combos.Has(key) {
		s.logger.Printf("spawn: combination %s already tried", key)
		return s.rejectBatch(fmt.Errorf("combination %s already tried: %w", key, ErrPlacementConflict))
	}
	s.combos.Put(key)

	if err := s.validateBatch(reqs); err != nil {
		s.logger.Printf("spawn: batch %s rejected: %v", key, err)
		return s.rejectBatch(err)
	}

	s.turns.Clear()
	for _, r := range reqs {
		h := models.Heading(r.Heading)
		if r.Heading == RandomHeading {
			h = models.Heading(s.rng.Intn(4))
		}
		s.spawnAgentOnTile(r.AgentID, models.Position{X: r.X, Y: r.Y}, h)
	}
	s.pub.PublishMultiSpawn(messages.MultiSpawnResponse{Success: true})
	return nil
}

func (s *Simulator) rejectBatch(err error) error {
	s.pub.PublishMultiSpawn(messages.MultiSpawnResponse{Success: false})
	return err
}

func (s *Simulator) validateBatch(reqs []messages.PlacementRequest) error {
	if len(reqs) == 0 {
		return fmt.Errorf("empty batch: %w", ErrPlacementConflict)
	}
	tiles := mapset.New[models.Position]()
	ids := mapset.New[int]()
	for _, r := range reqs {
		p := models.Position{X: r.X, Y: r.Y}
		if !s.world.InBounds(p) {
			return fmt.Errorf("agent %d at (%d,%d): %w", r.AgentID, r.X, r.Y, ErrOutOfBounds)
		}
		if r.AgentID <= 0 || ids.Has(r.AgentID) {
			return fmt.Errorf("agent id %d: %w", r.AgentID, ErrInvalidID)
		}
		if _, err := s.world.Lookup(r.AgentID); err == nil {
			return fmt.Errorf("agent %d already placed: %w", r.AgentID, ErrPlacementConflict)
		}
		if r.Heading != RandomHeading && !models.Heading(r.Heading).Valid() {
			return fmt.Errorf("agent %d heading %d: %w", r.AgentID, r.Heading, ErrInvalidAction)
		}
		t := s.world.grid.at(p)
		if t.Trap || t.Gold || t.Startpoint || s.world.Occupied(p) {
			return fmt.Errorf("tile (%d,%d) is taken: %w", r.X, r.Y, ErrPlacementConflict)
		}
		if tiles.Has(p) {
			return fmt.Errorf("tile (%d,%d) requested twice: %w", r.X, r.Y, ErrPlacementConflict)
		}
		tiles.Put(p)
		ids.Put(r.AgentID)
	}
	return nil
}

// comboKey is the canonical form of the set of linearized coordinates a
// batch asks for.
func (s *Simulator) comboKey(reqs []messages.PlacementRequest) string {
	size := s.world.Size()
	set := mapset.New[int]()
	for _, r := range reqs {
		set.Put(r.X*size + r.Y)
	}
	cells := make([]int, 0, set.Size())
	set.Each(func(c int) {
		cells = append(cells, c)
	})
	sort.Ints(cells)

	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = strconv.Itoa(c)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// spawnAgentOnTile creates the agent, claims the tile as its start point
// and enqueues it. The first participant in an empty queue is told it may
// act right away.
func (s *Simulator) spawnAgentOnTile(id int, p models.Position, h models.Heading) {
	a := &models.Agent{ID: id, Heading: h, HasArrow: s.world.HasArrow()}
	s.world.Place(a, p)
	t := s.world.grid.at(p)
	t.Startpoint = true
	t.StartAgentID = id

	s.pub.PublishSpawn(messages.SpawnResponse{
		X:         p.X,
		Y:         p.Y,
		AgentID:   id,
		FieldSize: s.world.Size(),
		HasArrow:  a.HasArrow,
		Heading:   int(h),
	})
	s.logger.Printf("spawned agent %d at (%d,%d) heading %s", id, p.X, p.Y, h)

	s.turns.Append(id)
	if s.turns.Len() == 1 {
		s.publishTurn()
	}
}
