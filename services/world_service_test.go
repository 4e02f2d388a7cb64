package services

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus-simulator/models"
)

func TestNewWorldPlacement(t *testing.T) {
	cfg := WorldConfig{HasArrow: true, WumpusCount: 2, TrapCount: 3, Size: 5}
	for seed := int64(1); seed <= 20; seed++ {
		w, err := NewWorld(cfg, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		traps, gold := 0, 0
		w.Grid().Each(func(tile *models.Tile) {
			if tile.Trap {
				traps++
			}
			if tile.Gold {
				gold++
				assert.False(t, tile.Trap, "gold on a trap")
			}

			wantBreeze := false
			for _, n := range w.Grid().Neighbors(tile.Position()) {
				if w.grid.at(n).Trap {
					wantBreeze = true
				}
			}
			assert.Equal(t, wantBreeze, tile.Breeze, "breeze at (%d,%d)", tile.X, tile.Y)
		})
		assert.Equal(t, cfg.TrapCount, traps)
		assert.Equal(t, 1, gold)

		agents, wumpi := w.Counts()
		assert.Equal(t, 0, agents)
		assert.Equal(t, cfg.WumpusCount, wumpi)
		require.NoError(t, w.CheckConsistency())
	}
}

func TestNewWorldRejectsBadConfig(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, cfg := range []WorldConfig{
		{Size: 0},
		{Size: 3, TrapCount: -1},
		{Size: 2, TrapCount: 3, WumpusCount: 1},
	} {
		_, err := NewWorld(cfg, rng)
		assert.True(t, errors.Is(err, ErrInvalidWorldConfig), "%+v", cfg)
	}
}

func TestWorldLookupIgnoresPlaceholder(t *testing.T) {
	w := newEmptyWorld(WorldConfig{Size: 3, WumpusCount: 1})
	w.Place(&models.Wumpus{}, models.Position{X: 1, Y: 1})

	_, err := w.Lookup(0)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = w.Lookup(7)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWorldMoveKeepsIndexConsistent(t *testing.T) {
	w := newEmptyWorld(WorldConfig{Size: 4})
	a := &models.Agent{ID: 1}
	b := &models.Agent{ID: 2}
	w.Place(a, models.Position{X: 0, Y: 0})
	w.Place(b, models.Position{X: 0, Y: 1})

	w.Move(a, models.Position{X: 0, Y: 1})
	require.NoError(t, w.CheckConsistency())
	assert.Len(t, w.Occupants(models.Position{X: 0, Y: 1}), 2)
	assert.False(t, w.Occupied(models.Position{X: 0, Y: 0}))

	assert.True(t, w.Remove(b))
	assert.False(t, w.Remove(b))
	require.NoError(t, w.CheckConsistency())
	assert.Equal(t, []models.Movable{a}, w.Occupants(models.Position{X: 0, Y: 1}))
}

func TestWorldStenchFollowsWumpi(t *testing.T) {
	w := newEmptyWorld(WorldConfig{Size: 4, WumpusCount: 1})
	wu := &models.Wumpus{}
	w.Place(wu, models.Position{X: 1, Y: 1})
	w.RecomputeStench()
	require.NoError(t, w.CheckConsistency())
	assert.True(t, w.grid.at(models.Position{X: 0, Y: 1}).Stench)
	assert.False(t, w.grid.at(models.Position{X: 1, Y: 1}).Stench)

	w.Move(wu, models.Position{X: 3, Y: 3})
	assert.Error(t, w.CheckConsistency(), "stale stench must be detected")
	w.RecomputeStench()
	require.NoError(t, w.CheckConsistency())

	w.Remove(wu)
	require.NoError(t, w.CheckConsistency())
	w.Grid().Each(func(tile *models.Tile) {
		assert.False(t, tile.Stench)
	})
}

func TestWorldSnapshotRoundTrip(t *testing.T) {
	w, err := NewWorld(WorldConfig{HasArrow: true, WumpusCount: 2, TrapCount: 2, Size: 4}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	start, err := w.Tile(0, 0)
	require.NoError(t, err)
	start.Startpoint = true
	start.StartAgentID = 4

	back, err := WorldFromSnapshot(w.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, w.Config(), back.Config())
	assert.Equal(t, w.grid.tiles, back.grid.tiles)

	_, wumpi := back.Counts()
	assert.Equal(t, 2, wumpi)
	assert.NotNil(t, back.UnpossessedWumpus())
	require.NoError(t, back.CheckConsistency())
}

func TestNewWorldStartsWithStench(t *testing.T) {
	w, err := NewWorld(WorldConfig{WumpusCount: 1, Size: 3}, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	wu := w.UnpossessedWumpus()
	require.NotNil(t, wu)
	for _, n := range w.Grid().Neighbors(wu.Position) {
		assert.True(t, w.grid.at(n).Stench, "neighbor (%d,%d)", n.X, n.Y)
	}
	assert.False(t, w.grid.at(wu.Position).Stench)
}
