package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/procgen"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds a generated level in a form that can be inspected or
// regenerated from its seed.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Level   int   `json:"level"`

	Map      string   `json:"map"`
	Fallback bool     `json:"fallback"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	CellSize float32  `json:"cell_size"`
	Rows     []string `json:"rows"`

	Spec      SpecState           `json:"spec"`
	Spawn     components.Position `json:"spawn"`
	Agents    []procgen.Spawn     `json:"agents"`
	Items     []procgen.Item      `json:"items"`
	Events    []EventState        `json:"events"`
	Narrative procgen.Narrative   `json:"narrative"`
	Ambient   procgen.Ambient     `json:"ambient"`
	Failures  []string            `json:"failures,omitempty"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SpecState is the JSON form of a LevelSpec.
type SpecState struct {
	TargetDifficulty float64  `json:"target_difficulty"`
	Skill            float64  `json:"skill"`
	Accuracy         float64  `json:"accuracy"`
	Survival         float64  `json:"survival"`
	KillRatio        float64  `json:"kill_ratio"`
	Style            string   `json:"style"`
	Frustration      float64  `json:"frustration"`
	Engagement       float64  `json:"engagement"`
	Tags             []string `json:"tags"`
}

// EventState is the JSON form of a TimedEvent with its kind spelled out.
type EventState struct {
	Kind string `json:"kind"`
	procgen.TimedEvent
}

// NewSnapshot captures a generated level.
func NewSnapshot(lvl *procgen.GeneratedLevel) *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		Seed:      lvl.Seed,
		Level:     lvl.Spec.Level,
		Map:       lvl.Map.String(),
		Fallback:  lvl.Fallback,
		Width:     lvl.Width(),
		Height:    lvl.Height(),
		CellSize:  lvl.CellSize(),
		Rows:      strings.Split(strings.TrimRight(lvl.ASCII(), "\n"), "\n"),
		Spawn:     lvl.SpawnPos(),
		Agents:    lvl.Agents,
		Items:     lvl.Items,
		Narrative: lvl.Narrative,
		Ambient:   lvl.Ambient,
		Spec: SpecState{
			TargetDifficulty: lvl.Spec.TargetDifficulty,
			Skill:            lvl.Spec.Skill,
			Accuracy:         lvl.Spec.Accuracy,
			Survival:         lvl.Spec.Survival,
			KillRatio:        lvl.Spec.KillRatio,
			Style:            lvl.Spec.Style.String(),
			Frustration:      lvl.Spec.Frustration,
			Engagement:       lvl.Spec.Engagement,
		},
	}
	for _, t := range lvl.Spec.Challenges {
		s.Spec.Tags = append(s.Spec.Tags, string(t))
	}
	for _, t := range lvl.Spec.Weaknesses {
		s.Spec.Tags = append(s.Spec.Tags, string(t))
	}
	for _, ev := range lvl.Events {
		s.Events = append(s.Events, EventState{Kind: ev.Kind.String(), TimedEvent: ev})
	}
	for _, err := range lvl.Failures {
		s.Failures = append(s.Failures, err.Error())
	}
	return s
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("level_%03d_%d", snapshot.Level, snapshot.Seed)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name += "_" + sanitized
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
