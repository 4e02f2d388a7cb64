package persistence

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpus-simulator/messages"
)

func readJournal(t *testing.T, path string) []JournalEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var out []JournalEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e JournalEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestJournalRecordsEvents(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, "events", log.New(io.Discard, "", 0))
	clock := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	j.PublishSpawn(messages.SpawnResponse{AgentID: 1, FieldSize: 4})
	j.PublishAction(messages.ActionResponse{AgentID: 1, Outcomes: []messages.Outcome{messages.OutcomeBump}})
	clock = clock.Add(time.Hour)
	j.PublishMultiSpawn(messages.MultiSpawnResponse{Success: true})
	require.NoError(t, j.Close())

	first := readJournal(t, filepath.Join(dir, "events-2024-05-01-10.jsonl.zst"))
	require.Len(t, first, 2)
	assert.Equal(t, messages.MessageTypeSpawnResponse, first[0].Type)
	assert.Equal(t, messages.MessageTypeActionResponse, first[1].Type)

	var action messages.ActionResponse
	require.NoError(t, json.Unmarshal(first[1].Payload, &action))
	assert.True(t, action.Has(messages.OutcomeBump))

	second := readJournal(t, filepath.Join(dir, "events-2024-05-01-11.jsonl.zst"))
	require.Len(t, second, 1)
	assert.Equal(t, messages.MessageTypeMultiSpawnResponse, second[0].Type)
}
