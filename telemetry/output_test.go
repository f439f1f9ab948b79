package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/arena/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Every method is a no-op on a nil manager.
	if err := om.WriteLevel(LevelStats{}); err != nil {
		t.Errorf("WriteLevel on nil: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Errorf("WriteBookmark on nil: %v", err)
	}
	if om.SnapshotDir() != "" {
		t.Error("nil manager should report no snapshot dir")
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteLevel(LevelStats{Level: i, Map: "arena", Outcome: OutcomeComplete, Kills: i * 2}); err != nil {
			t.Fatalf("WriteLevel: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkFlawless, Level: 2, Description: "clean"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{PhaseAI: 40}}, 1, 600, 3); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "levels.csv"))
	if err != nil {
		t.Fatalf("reading levels.csv: %v", err)
	}
	if n := strings.Count(string(data), "level,seed,map"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}
	var levels []LevelStats
	if err := gocsv.UnmarshalBytes(data, &levels); err != nil {
		t.Fatalf("parsing levels.csv: %v", err)
	}
	if len(levels) != 3 || levels[2].Kills != 6 || levels[0].Map != "arena" {
		t.Errorf("levels = %+v", levels)
	}

	var perf []PerfStatsCSV
	data, err = os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatalf("reading perf.csv: %v", err)
	}
	if err := gocsv.UnmarshalBytes(data, &perf); err != nil {
		t.Fatalf("parsing perf.csv: %v", err)
	}
	if len(perf) != 1 || perf[0].AIPct != 40 || perf[0].AIInterval != 3 {
		t.Errorf("perf = %+v", perf)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot does not load: %v", err)
	}
}
