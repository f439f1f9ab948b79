package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Journal entry kinds.
const (
	JournalStrategySwitch = "strategy_switch"
	JournalLevelStart     = "level_start"
	JournalLevelEnd       = "level_end"
	JournalGeneration     = "generation_fallback"
	JournalBookmark       = "bookmark"
	JournalAdvisory       = "advisory"
)

// JournalEntry is one line of the event journal.
type JournalEntry struct {
	Time  time.Time `json:"time"`
	Kind  string    `json:"kind"`
	Level int       `json:"level"`
	Tick  int64     `json:"tick"`
	Data  any       `json:"data,omitempty"`
}

// Journal writes JSONL entries into hourly zstd-compressed files. A nil
// *Journal discards everything.
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
	written int
}

// NewJournal creates a journal under dir. Returns nil if dir is empty.
func NewJournal(dir, prefix string) *Journal {
	if dir == "" {
		return nil
	}
	return &Journal{dir: dir, prefix: prefix, now: time.Now}
}

// SetClock replaces the time source used for entry stamps and rotation.
func (j *Journal) SetClock(now func() time.Time) {
	if j == nil || now == nil {
		return
	}
	j.mu.Lock()
	j.now = now
	j.mu.Unlock()
}

// Record stamps and writes one entry.
func (j *Journal) Record(kind string, level int, tick int64, data any) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	e := JournalEntry{Time: j.now().UTC(), Kind: kind, Level: level, Tick: tick, Data: data}
	hour := e.Time.Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return fmt.Errorf("rotating journal: %w", err)
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	j.written++
	return j.w.Flush()
}

// Written returns the number of entries written.
func (j *Journal) Written() int {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written
}

// Close flushes and closes the current file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
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
	f, err := os.OpenFile(j.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
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
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var errs []error
	if j.w != nil {
		errs = append(errs, j.w.Flush())
	}
	if j.enc != nil {
		errs = append(errs, j.enc.Close())
		j.enc = nil
	}
	if j.f != nil {
		errs = append(errs, j.f.Close())
		j.f = nil
	}
	j.w = nil
	j.curHour = ""
	return errors.Join(errs...)
}

// PathForHour returns the file an hour stamp (2006-01-02-15) writes to.
func (j *Journal) PathForHour(hour string) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
}

// ReadJournal decodes every entry of one journal file.
func ReadJournal(path string) ([]JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	defer dec.Close()

	var out []JournalEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var e JournalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("decoding journal line: %w", err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
