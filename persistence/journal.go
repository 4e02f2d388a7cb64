package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"wumpus-simulator/messages"
)

// JournalEntry is one line of the event journal.
type JournalEntry struct {
	Time    time.Time            `json:"time"`
	Type    messages.MessageType `json:"type"`
	Payload json.RawMessage      `json:"payload"`
}

// Journal appends every published event to hourly zstd-compressed JSONL
// files under dir. Write failures are logged and dropped; publishing never
// blocks on the journal.
type Journal struct {
	dir    string
	prefix string
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewJournal creates a journal writing <dir>/<prefix>-<hour>.jsonl.zst.
func NewJournal(dir, prefix string, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.Default()
	}
	return &Journal{
		dir:    dir,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

func (j *Journal) PublishSpawn(msg messages.SpawnResponse) {
	j.record(messages.MessageTypeSpawnResponse, msg)
}

func (j *Journal) PublishMultiSpawn(msg messages.MultiSpawnResponse) {
	j.record(messages.MessageTypeMultiSpawnResponse, msg)
}

func (j *Journal) PublishAction(msg messages.ActionResponse) {
	j.record(messages.MessageTypeActionResponse, msg)
}

func (j *Journal) record(t messages.MessageType, payload any) {
	if err := j.Write(t, payload); err != nil {
		j.logger.Printf("journal: drop %s: %v", t, err)
	}
}

// Write appends one entry and flushes it through the compressor.
func (j *Journal) Write(t messages.MessageType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().UTC()
	hour := now.Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(JournalEntry{Time: now, Type: t, Payload: raw})
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := j.w.Flush(); err != nil {
		return err
	}
	return j.enc.Flush()
}

// Close flushes and closes the current file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 32*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	j.curHour = ""
	return err
}

func (j *Journal) pathForHour(hour string) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
}
