package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus-simulator/models"
)

func sampleWorld(size int) *models.WorldSnapshot {
	w := &models.WorldSnapshot{
		Version:       models.SnapshotVersion,
		Size:          size,
		WumpusCount:   1,
		TrapCount:     1,
		AgentHasArrow: true,
	}
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			w.Tiles = append(w.Tiles, models.TileRecord{X: x, Y: y})
		}
	}
	w.Tiles[1].Trap = true
	w.Tiles[0].Breeze = true
	w.Tiles[size].Gold = true
	w.Tiles[len(w.Tiles)-1].Lair = true
	w.Tiles[len(w.Tiles)-2].Startpoint = true
	w.Tiles[len(w.Tiles)-2].StartAgentID = 3
	return w
}

func exerciseStore(t *testing.T, store Storage) {
	t.Helper()
	world := sampleWorld(3)

	require.NoError(t, store.SaveWorld("alpha", world))
	got, err := store.LoadWorld("alpha")
	require.NoError(t, err)
	assert.Equal(t, world, got)

	world.AgentHasArrow = false
	require.NoError(t, store.SaveWorld("alpha", world), "saving twice overwrites")
	got, err = store.LoadWorld("alpha")
	require.NoError(t, err)
	assert.False(t, got.AgentHasArrow)

	_, err = store.LoadWorld("nope")
	assert.True(t, errors.Is(err, ErrWorldNotFound))
	assert.True(t, errors.Is(err, ErrIO))
}

func TestJSONStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
	_, err = os.Stat(filepath.Join(dir, "alpha"+WorldFileExt))
	assert.NoError(t, err)
}

func TestJSONStorePaths(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	store, err := NewJSONStore("worlds")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("worlds", "a.wwf"), store.Path("a"))
	assert.Equal(t, filepath.Join("worlds", "a.wwf"), store.Path("a.wwf"))
	assert.Equal(t, "/tmp/x.wwf", store.Path("/tmp/x"))
}

func TestJSONStoreRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.wwf"), []byte("{not json"), 0o644))

	_, err = store.LoadWorld("bad")
	assert.True(t, errors.Is(err, ErrParse))
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "worlds.db"))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := NewPostgresStore(dsn)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}
