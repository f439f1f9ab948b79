package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/procgen"
)

func testLevel(t *testing.T) *procgen.GeneratedLevel {
	t.Helper()
	cfg := config.Default()
	gen := procgen.NewGenerator(cfg)
	spec := procgen.LevelSpec{
		Level: 2, TargetDifficulty: 0.5, Skill: 0.5,
		Accuracy: 0.5, Survival: 0.5, KillRatio: 0.5,
		Challenges: []procgen.Tag{procgen.TagFlanking},
	}
	return gen.GenerateLevel(spec, 42)
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	lvl := testLevel(t)

	snapshot := NewSnapshot(lvl)
	snapshot.Bookmark = &Bookmark{Type: BookmarkFlawless, Level: 2, Description: "test"}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if !strings.HasSuffix(path, "level_002_42_flawless.json") {
		t.Errorf("unexpected snapshot path %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Seed != 42 || loaded.Level != 2 {
		t.Errorf("identity = seed %d level %d", loaded.Seed, loaded.Level)
	}
	if loaded.Map != lvl.Map.String() {
		t.Errorf("map = %s, want %s", loaded.Map, lvl.Map)
	}
	if len(loaded.Rows) != lvl.Height() {
		t.Fatalf("rows = %d, want %d", len(loaded.Rows), lvl.Height())
	}
	for i, r := range loaded.Rows {
		if len(r) != lvl.Width() {
			t.Fatalf("row %d width = %d, want %d", i, len(r), lvl.Width())
		}
	}
	if len(loaded.Agents) != len(lvl.Agents) {
		t.Errorf("agents = %d, want %d", len(loaded.Agents), len(lvl.Agents))
	}
	if len(loaded.Events) != len(lvl.Events) {
		t.Errorf("events = %d, want %d", len(loaded.Events), len(lvl.Events))
	}
	for i, ev := range loaded.Events {
		if ev.Kind != lvl.Events[i].Kind.String() {
			t.Errorf("event %d kind = %s, want %s", i, ev.Kind, lvl.Events[i].Kind)
		}
	}
	if loaded.Spawn != lvl.SpawnPos() {
		t.Errorf("spawn = %v, want %v", loaded.Spawn, lvl.SpawnPos())
	}
	if len(loaded.Spec.Tags) == 0 || loaded.Spec.Tags[0] != string(procgen.TagFlanking) {
		t.Errorf("tags = %v", loaded.Spec.Tags)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkFlawless {
		t.Error("bookmark not preserved")
	}
}

func TestLoadSnapshotVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version mismatch error")
	}
}
