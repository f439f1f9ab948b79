package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJournalRotatesHourly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j := NewJournal(dir, "events")
	clk := &fakeClock{t: time.Date(2025, 3, 1, 10, 58, 0, 0, time.UTC)}
	j.SetClock(clk.now)

	if err := j.Record(JournalLevelStart, 1, 0, map[string]any{"map": "maze"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(JournalStrategySwitch, 1, 300, map[string]any{"to": "hunt"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	clk.advance(5 * time.Minute)
	if err := j.Record(JournalLevelEnd, 1, 900, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if j.Written() != 3 {
		t.Errorf("written = %d, want 3", j.Written())
	}

	first, err := ReadJournal(j.PathForHour("2025-03-01-10"))
	if err != nil {
		t.Fatalf("ReadJournal first hour: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first hour entries = %d, want 2", len(first))
	}
	if first[1].Kind != JournalStrategySwitch || first[1].Tick != 300 {
		t.Errorf("second entry = %+v", first[1])
	}

	second, err := ReadJournal(j.PathForHour("2025-03-01-11"))
	if err != nil {
		t.Fatalf("ReadJournal second hour: %v", err)
	}
	if len(second) != 1 || second[0].Kind != JournalLevelEnd {
		t.Errorf("second hour = %+v", second)
	}
}

func TestJournalCloseReportsFileError(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, "events")
	clk := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	j.SetClock(clk.now)
	if err := j.Record(JournalLevelStart, 1, 0, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Swap in a handle that is already closed; the encoder keeps the real one.
	stale, err := os.Create(filepath.Join(dir, "stale"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stale.Close()
	live := j.f
	j.f = stale
	defer live.Close()

	if err := j.Close(); err == nil {
		t.Fatal("Close returned nil for a failed file close")
	}
	if j.f != nil || j.w != nil || j.enc != nil {
		t.Error("journal kept handles after Close")
	}
}

func TestJournalAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	clk := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	for i := 0; i < 2; i++ {
		j := NewJournal(dir, "events")
		j.SetClock(clk.now)
		if err := j.Record(JournalBookmark, i, int64(i), nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if err := j.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	// Concatenated zstd frames decode as one stream.
	entries, err := ReadJournal(filepath.Join(dir, "events-2025-03-01-09.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadJournal: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestJournalDisabled(t *testing.T) {
	j := NewJournal("", "events")
	if j != nil {
		t.Fatal("expected nil journal for empty dir")
	}
	if err := j.Record(JournalLevelStart, 1, 0, nil); err != nil {
		t.Errorf("Record on nil: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}
