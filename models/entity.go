package models

// Position is a grid coordinate. X is the row and Y is the column, so
// "up" decreases X and "left" decreases Y.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Heading is one of the four cardinal directions. Turning left adds one,
// turning right subtracts one, both modulo 4.
type Heading int

const (
	HeadingUp Heading = iota
	HeadingLeft
	HeadingDown
	HeadingRight
)

// Valid reports whether h names one of the four directions.
func (h Heading) Valid() bool {
	return h >= HeadingUp && h <= HeadingRight
}

// TurnLeft returns the heading after a counter-clockwise quarter turn.
func (h Heading) TurnLeft() Heading {
	return (h + 1) % 4
}

// TurnRight returns the heading after a clockwise quarter turn.
func (h Heading) TurnRight() Heading {
	return (h + 3) % 4
}

func (h Heading) String() string {
	switch h {
	case HeadingUp:
		return "up"
	case HeadingLeft:
		return "left"
	case HeadingDown:
		return "down"
	case HeadingRight:
		return "right"
	}
	return "invalid"
}

// Step returns the position one tile away from p in direction h.
// The result is not bounds-checked.
func (p Position) Step(h Heading) Position {
	switch h {
	case HeadingUp:
		p.X--
	case HeadingDown:
		p.X++
	case HeadingLeft:
		p.Y--
	case HeadingRight:
		p.Y++
	}
	return p
}

// Movable is anything that occupies a tile and can leave it: an Agent or a
// Wumpus. The position is a lookup key into the grid, the grid's occupant
// index is the authoritative membership.
type Movable interface {
	GetID() int
	GetPosition() Position
}

// Agent is a player-controlled participant.
type Agent struct {
	ID       int      `json:"id"`
	Position Position `json:"position"`
	Heading  Heading  `json:"heading"`
	HasArrow bool     `json:"has_arrow"`
	HasGold  bool     `json:"has_gold"`
}

func (a *Agent) GetID() int            { return a.ID }
func (a *Agent) GetPosition() Position { return a.Position }

// Wumpus is a monster slot. ID 0 means nobody has possessed it yet;
// possessed wumpi carry the negative id of their controller.
type Wumpus struct {
	ID       int      `json:"id"`
	Position Position `json:"position"`
}

func (w *Wumpus) GetID() int            { return w.ID }
func (w *Wumpus) GetPosition() Position { return w.Position }

// Possessed reports whether an external controller has claimed the wumpus.
func (w *Wumpus) Possessed() bool {
	return w.ID != 0
}
