package services

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/zyedidia/generic/mapset"

	"wumpus-simulator/messages"
	"wumpus-simulator/models"
	"wumpus-simulator/persistence"
)

// Options configures a Simulator. Every field is optional.
type Options struct {
	Publisher Publisher
	Storage   persistence.Storage
	Rand      *rand.Rand
	Logger    *log.Logger
}

// Simulator is the simulation context: one active world, its turn queue and
// the spawn-combination cache. All engine entry points go through it.
type Simulator struct {
	// mu guards every field below
	mu     sync.Mutex
	loadMu sync.Mutex

	world  *World
	turns  *TurnManager
	combos mapset.Set[string]
	loaded mapset.Set[string]
	ready  bool

	rng    *rand.Rand
	pub    Publisher
	store  persistence.Storage
	logger *log.Logger
}

// NewSimulator creates a simulator with no world. It is not ready until
// CreateWorld or LoadWorld succeeds.
func NewSimulator(opts Options) *Simulator {
	s := &Simulator{
		turns:  NewTurnManager(),
		combos: mapset.New[string](),
		loaded: mapset.New[string](),
		rng:    opts.Rand,
		pub:    opts.Publisher,
		store:  opts.Storage,
		logger: opts.Logger,
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.pub == nil {
		s.pub = discardPublisher{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// CreateWorld generates a new world and replaces the current one
func (s *Simulator) CreateWorld(config WorldConfig) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := NewWorld(config, s.rng)
	if err != nil {
		return err
	}
	s.world = w
	s.turns.Clear()
	s.combos.Clear()
	s.loaded.Clear()
	s.ready = true
	s.logger.Printf("created world size=%d wumpi=%d traps=%d arrow=%v",
		config.Size, config.WumpusCount, config.TrapCount, config.HasArrow)
	return nil
}

// LoadWorld replaces the current world with the one stored under path. A
// path already loaded since the last CreateWorld is ignored. On failure the
// current world is left untouched.
func (s *Simulator) LoadWorld(path string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.store == nil {
		return fmt.Errorf("load %q: no storage configured: %w", path, ErrInvalidState)
	}

	s.mu.Lock()
	seen := s.loaded.Has(path)
	s.mu.Unlock()
	if seen {
		s.logger.Printf("world %q already loaded", path)
		return fmt.Errorf("load %q: %w", path, ErrAlreadyLoaded)
	}

	snap, err := s.store.LoadWorld(path)
	if err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}
	w, err := WorldFromSnapshot(snap)
	if err != nil {
		return fmt.Errorf("load %q: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = w
	s.turns.Clear()
	s.combos.Clear()
	s.loaded.Put(path)
	s.ready = true
	s.logger.Printf("loaded world %q size=%d", path, w.Size())
	return nil
}

// SaveWorld stores the current world under dest
func (s *Simulator) SaveWorld(dest string) error {
	if s.store == nil {
		return fmt.Errorf("save %q: no storage configured: %w", dest, ErrInvalidState)
	}
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return fmt.Errorf("save %q: %w", dest, ErrInvalidState)
	}
	snap := s.world.Snapshot()
	s.mu.Unlock()

	if err := s.store.SaveWorld(dest, snap); err != nil {
		return fmt.Errorf("save %q: %w", dest, err)
	}
	s.logger.Printf("saved world to %q", dest)
	return nil
}

// HandleAction resolves one action of the current turn holder, publishes
// the outcome and passes the turn on. Requests from anyone else, or before
// a world exists, are rejected without any state change.
func (s *Simulator) HandleAction(req messages.ActionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrInvalidState
	}
	holder, ok := s.turns.Current()
	if !ok {
		s.logger.Printf("participant %d is not allowed to act, no turn holder", req.AgentID)
		return fmt.Errorf("participant %d: %w", req.AgentID, ErrOutOfTurn)
	}
	if holder != req.AgentID {
		s.logger.Printf("participant %d is not allowed to act, turn holder is %d", req.AgentID, holder)
		return fmt.Errorf("participant %d: %w", req.AgentID, ErrOutOfTurn)
	}
	m, err := s.world.Lookup(req.AgentID)
	if err != nil {
		return err
	}

	var resp messages.ActionResponse
	switch v := m.(type) {
	case *models.Agent:
		resp, err = s.resolveAgentAction(v, req)
	case *models.Wumpus:
		resp, err = s.resolveWumpusAction(v, req)
	}
	if err != nil {
		s.logger.Printf("participant %d: %v", req.AgentID, err)
		return err
	}
	s.pub.PublishAction(resp)
	s.nextTurn()
	return nil
}

func (s *Simulator) resolveAgentAction(a *models.Agent, req messages.ActionRequest) (messages.ActionResponse, error) {
	resp := messages.ActionResponse{AgentID: a.ID}
	here := a.Position

	switch req.Action {
	case messages.ActionTurnLeft:
		a.Heading = a.Heading.TurnLeft()
	case messages.ActionTurnRight:
		a.Heading = a.Heading.TurnRight()
	case messages.ActionMove:
		dest := a.Position.Step(a.Heading)
		if !s.world.InBounds(dest) {
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeBump)
			break
		}
		here = dest
		if s.world.grid.at(dest).Trap || s.world.HasWumpus(dest) {
			s.killAgent(a, dest)
			break
		}
		s.world.Move(a, dest)
	case messages.ActionShoot:
		if !a.HasArrow {
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeNotAllowed)
			break
		}
		a.HasArrow = false
		if s.shoot(a.Position, a.Heading) {
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeScream)
		} else {
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeSilence)
		}
	case messages.ActionPickUpGold:
		if s.world.grid.at(a.Position).Gold {
			a.HasGold = true
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeGoldFound)
		} else {
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeNotAllowed)
		}
	case messages.ActionExit:
		if a.HasGold && s.world.grid.at(a.Position).StartAgentID == a.ID {
			s.world.Remove(a)
			s.turns.Remove(a.ID)
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeExited)
			s.logger.Printf("agent %d exited with gold", a.ID)
		} else {
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeNotAllowed)
		}
	default:
		return resp, fmt.Errorf("agent action %q: %w", req.Action, ErrInvalidAction)
	}

	resp.X, resp.Y = here.X, here.Y
	resp.Heading = int(a.Heading)
	resp.Outcomes = s.perceive(resp.Outcomes, here)
	return resp, nil
}

// resolveWumpusAction moves a possessed wumpus one tile in the requested
// direction. Wumpi carry no heading; responses report HeadingDown.
func (s *Simulator) resolveWumpusAction(wu *models.Wumpus, req messages.ActionRequest) (messages.ActionResponse, error) {
	resp := messages.ActionResponse{AgentID: wu.ID, Heading: int(models.HeadingDown)}
	if req.Direction == nil || !models.Heading(*req.Direction).Valid() {
		return resp, fmt.Errorf("wumpus action without a valid direction: %w", ErrInvalidAction)
	}
	if req.Action != "" && req.Action != messages.ActionMove {
		return resp, fmt.Errorf("wumpus action %q: %w", req.Action, ErrInvalidAction)
	}

	here := wu.Position
	dest := here.Step(models.Heading(*req.Direction))
	switch {
	case !s.world.InBounds(dest):
		resp.Outcomes = append(resp.Outcomes, messages.OutcomeBump)
	case s.world.HasWumpus(dest):
		resp.Outcomes = append(resp.Outcomes, messages.OutcomeOtherAgentCollision)
	case s.world.grid.at(dest).Trap:
		here = dest
		s.killWumpus(wu)
	default:
		if victims := s.world.Agents(dest); len(victims) > 0 {
			for _, a := range victims {
				s.killAgent(a, dest)
			}
			resp.Outcomes = append(resp.Outcomes, messages.OutcomeKilledAgent)
		}
		here = dest
		s.world.Move(wu, dest)
		s.world.RecomputeStench()
	}

	resp.X, resp.Y = here.X, here.Y
	resp.Outcomes = s.perceive(resp.Outcomes, here)
	return resp, nil
}

// shoot kills every wumpus on the ray from origin towards h and reports
// whether anything died.
func (s *Simulator) shoot(origin models.Position, h models.Heading) bool {
	hit := false
	for _, p := range s.world.grid.Ray(origin, h) {
		for _, wu := range s.world.Wumpi(p) {
			s.killWumpus(wu)
			hit = true
		}
	}
	return hit
}

// perceive appends the perception of the tile at p
func (s *Simulator) perceive(out []messages.Outcome, p models.Position) []messages.Outcome {
	t := s.world.grid.at(p)
	if t.Gold {
		out = append(out, messages.OutcomeShiny)
	}
	if t.Breeze {
		out = append(out, messages.OutcomeDrafty)
	}
	if t.Stench {
		out = append(out, messages.OutcomeStinky)
	}
	return out
}

func (s *Simulator) killAgent(a *models.Agent, at models.Position) {
	s.turns.Remove(a.ID)
	s.world.Remove(a)
	s.logger.Printf("agent %d died at (%d,%d)", a.ID, at.X, at.Y)
	s.pub.PublishAction(messages.ActionResponse{
		AgentID:  a.ID,
		X:        at.X,
		Y:        at.Y,
		Heading:  int(a.Heading),
		Outcomes: []messages.Outcome{messages.OutcomeDead},
	})
}

// killWumpus removes a wumpus and recomputes stench. Only possessed wumpi
// have a turn and get a death notice.
func (s *Simulator) killWumpus(wu *models.Wumpus) {
	if wu.Possessed() {
		s.turns.Remove(wu.ID)
		s.pub.PublishAction(messages.ActionResponse{
			AgentID:  wu.ID,
			X:        wu.Position.X,
			Y:        wu.Position.Y,
			Heading:  int(models.HeadingDown),
			Outcomes: []messages.Outcome{messages.OutcomeDead},
		})
	}
	s.world.Remove(wu)
	s.logger.Printf("wumpus %d died at (%d,%d)", wu.ID, wu.Position.X, wu.Position.Y)
}

func (s *Simulator) nextTurn() {
	if s.turns.Len() == 0 {
		return
	}
	s.turns.Advance()
	s.publishTurn()
}

// publishTurn tells the current holder it may act: agents get their
// perception, wumpi only their position.
func (s *Simulator) publishTurn() {
	id, ok := s.turns.Current()
	if !ok {
		return
	}
	m, err := s.world.Lookup(id)
	if err != nil {
		s.logger.Printf("turn holder %d has no movable: %v", id, err)
		return
	}
	p := m.GetPosition()
	resp := messages.ActionResponse{AgentID: id, X: p.X, Y: p.Y}
	switch v := m.(type) {
	case *models.Agent:
		resp.Heading = int(v.Heading)
		resp.Outcomes = s.perceive(resp.Outcomes, p)
	case *models.Wumpus:
		resp.Heading = int(models.HeadingDown)
	}
	resp.Outcomes = append(resp.Outcomes, messages.OutcomeYourTurn)
	s.pub.PublishAction(resp)
}

// Status is a point-in-time summary of the simulation
type Status struct {
	Ready      bool  `json:"ready"`
	Size       int   `json:"size"`
	HasArrow   bool  `json:"has_arrow"`
	Agents     int   `json:"agents"`
	Wumpi      int   `json:"wumpi"`
	Turns      []int `json:"turns"`
	TurnHolder *int  `json:"turn_holder,omitempty"`
}

func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Ready: s.ready, Turns: s.turns.Order()}
	if s.world == nil {
		return st
	}
	st.Size = s.world.Size()
	st.HasArrow = s.world.HasArrow()
	st.Agents, st.Wumpi = s.world.Counts()
	if id, ok := s.turns.Current(); ok {
		st.TurnHolder = &id
	}
	return st
}

// TileView is a tile together with the ids of its occupants
type TileView struct {
	models.Tile
	Occupants []int `json:"occupants"`
}

// Tiles returns a copy of the grid in row-major order, or nil without a
// world.
func (s *Simulator) Tiles() []TileView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.world == nil {
		return nil
	}
	out := make([]TileView, 0, s.world.Size()*s.world.Size())
	s.world.grid.Each(func(t *models.Tile) {
		v := TileView{Tile: *t, Occupants: []int{}}
		for _, m := range s.world.Occupants(t.Position()) {
			v.Occupants = append(v.Occupants, m.GetID())
		}
		out = append(out, v)
	})
	return out
}

// CheckConsistency verifies the world and that the turn queue only names
// living participants.
func (s *Simulator) CheckConsistency() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.world == nil {
		return nil
	}
	if err := s.world.CheckConsistency(); err != nil {
		return err
	}
	for _, id := range s.turns.Order() {
		if _, err := s.world.Lookup(id); err != nil {
			return fmt.Errorf("turn queue: %w", err)
		}
	}
	return nil
}
