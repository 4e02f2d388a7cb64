package services

import (
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus-simulator/messages"
	"wumpus-simulator/models"
	"wumpus-simulator/persistence"
)

func TestConcurrentSpawnMultipleCommitsOnce(t *testing.T) {
	w := newEmptyWorld(WorldConfig{Size: 4})
	s, rec := newTestSimulator(t, w)

	// every batch claims (0,0) plus a tile of its own
	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.SpawnMultiple([]messages.PlacementRequest{
				{AgentID: i + 1, X: 0, Y: 0, Heading: RandomHeading},
				{AgentID: 100 + i, X: 2 + i/4, Y: i % 4, Heading: RandomHeading},
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, errors.Is(err, ErrPlacementConflict), "got %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, w.Movables(), 2)
	assert.Equal(t, 2, s.turns.Len())
	assert.Len(t, rec.multi, n)
	assert.Len(t, w.Occupants(pos(0, 0)), 1)
	require.NoError(t, s.CheckConsistency())
}

func TestConcurrentIdenticalBatchesCommitOnce(t *testing.T) {
	w := newEmptyWorld(WorldConfig{Size: 4})
	s, _ := newTestSimulator(t, w)
	batch := []messages.PlacementRequest{
		{AgentID: 1, X: 1, Y: 1, Heading: 0},
		{AgentID: 2, X: 3, Y: 0, Heading: 2},
	}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.SpawnMultiple(batch)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, []int{1, 2}, s.turns.Order())
	require.NoError(t, s.CheckConsistency())
}

func TestConcurrentOutOfTurnActionsChangeNothing(t *testing.T) {
	w := newEmptyWorld(WorldConfig{Size: 4, HasArrow: true})
	s, rec := newTestSimulator(t, w)
	s.spawnAgentOnTile(1, pos(0, 0), models.HeadingDown)
	s.spawnAgentOnTile(2, pos(3, 3), models.HeadingUp)
	mark := rec.count()

	actions := []messages.ActionType{
		messages.ActionMove, messages.ActionTurnLeft, messages.ActionShoot, messages.ActionExit,
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(a messages.ActionType) {
			defer wg.Done()
			err := s.HandleAction(messages.ActionRequest{AgentID: 2, Action: a})
			assert.True(t, errors.Is(err, ErrOutOfTurn))
		}(actions[i%len(actions)])
	}
	wg.Wait()

	agent, err := w.Agent(2)
	require.NoError(t, err)
	assert.Equal(t, pos(3, 3), agent.Position)
	assert.Equal(t, models.HeadingUp, agent.Heading)
	assert.True(t, agent.HasArrow)
	holder, _ := s.turns.Current()
	assert.Equal(t, 1, holder)
	assert.Equal(t, mark, rec.count())
}

func newStoredSimulator(t *testing.T) *Simulator {
	t.Helper()
	store, err := persistence.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	seed := NewSimulator(Options{
		Storage: store,
		Rand:    rand.New(rand.NewSource(3)),
		Logger:  log.New(io.Discard, "", 0),
	})
	require.NoError(t, seed.CreateWorld(WorldConfig{HasArrow: true, WumpusCount: 1, TrapCount: 1, Size: 5}))
	require.NoError(t, seed.SaveWorld("shared"))

	return NewSimulator(Options{
		Storage: store,
		Rand:    rand.New(rand.NewSource(4)),
		Logger:  log.New(io.Discard, "", 0),
	})
}

func TestConcurrentLoadsRunOnce(t *testing.T) {
	s := newStoredSimulator(t)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.LoadWorld("shared")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, errors.Is(err, ErrAlreadyLoaded), "got %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 5, s.Status().Size)
	require.NoError(t, s.CheckConsistency())
}

func TestConcurrentLoadAndCreate(t *testing.T) {
	s := newStoredSimulator(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := s.LoadWorld("shared")
			if err != nil {
				assert.True(t, errors.Is(err, ErrAlreadyLoaded), "got %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.CreateWorld(WorldConfig{WumpusCount: 1, Size: 3}))
		}()
	}
	wg.Wait()

	st := s.Status()
	assert.True(t, st.Ready)
	assert.Contains(t, []int{3, 5}, st.Size)
	assert.Equal(t, 1, st.Wumpi)
	assert.Empty(t, st.Turns)
	require.NoError(t, s.CheckConsistency())
}
