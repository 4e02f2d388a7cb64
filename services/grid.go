package services

import (
	"fmt"

	"wumpus-simulator/models"
)

// Grid is the square tile store. Tiles live in one flat slice indexed by
// x*size+y, the same linearization the spawn-combination cache uses.
type Grid struct {
	size  int
	tiles []models.Tile
}

// NewGrid creates a size×size grid of empty tiles
func NewGrid(size int) *Grid {
	tiles := make([]models.Tile, size*size)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			tiles[x*size+y] = models.Tile{X: x, Y: y}
		}
	}
	return &Grid{size: size, tiles: tiles}
}

// Size returns the edge length of the grid
func (g *Grid) Size() int {
	return g.size
}

// InBounds reports whether p lies on the grid
func (g *Grid) InBounds(p models.Position) bool {
	return p.X >= 0 && p.X < g.size && p.Y >= 0 && p.Y < g.size
}

// Index linearizes a position. Callers check bounds first.
func (g *Grid) Index(p models.Position) int {
	return p.X*g.size + p.Y
}

// Tile returns the tile at (x, y)
func (g *Grid) Tile(x, y int) (*models.Tile, error) {
	p := models.Position{X: x, Y: y}
	if !g.InBounds(p) {
		return nil, fmt.Errorf("tile (%d,%d) on size %d: %w", x, y, g.size, ErrOutOfBounds)
	}
	return &g.tiles[g.Index(p)], nil
}

// at is Tile for positions already known to be in bounds.
func (g *Grid) at(p models.Position) *models.Tile {
	return &g.tiles[g.Index(p)]
}

// Neighbors returns the in-bounds orthogonal neighbors of p
func (g *Grid) Neighbors(p models.Position) []models.Position {
	out := make([]models.Position, 0, 4)
	for h := models.HeadingUp; h <= models.HeadingRight; h++ {
		if n := p.Step(h); g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Ray returns every tile strictly beyond from in direction h, nearest
// first, up to the grid boundary.
func (g *Grid) Ray(from models.Position, h models.Heading) []models.Position {
	var out []models.Position
	for p := from.Step(h); g.InBounds(p); p = p.Step(h) {
		out = append(out, p)
	}
	return out
}

// Each calls fn for every tile in row-major order
func (g *Grid) Each(fn func(t *models.Tile)) {
	for i := range g.tiles {
		fn(&g.tiles[i])
	}
}
