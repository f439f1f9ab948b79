package difficulty

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pthm-cable/arena/config"
)

func newTestModel() (*Model, *config.DifficultyConfig) {
	cfg := config.Default().Difficulty
	return NewModel(&cfg), &cfg
}

func TestSkillTrend(t *testing.T) {
	m, _ := newTestModel()
	if m.SkillTrend() != 0 {
		t.Errorf("empty trend = %v", m.SkillTrend())
	}
	for i := 1; i <= 5; i++ {
		m.Record(i, 0.1*float64(i), 0.5)
	}
	if got := m.SkillTrend(); got < 0.099 || got > 0.101 {
		t.Errorf("trend = %v, want 0.1", got)
	}
}

func TestPredict(t *testing.T) {
	m, cfg := newTestModel()
	for i := 1; i <= 4; i++ {
		m.Record(i, 0.5, 0.5)
	}
	steady := m.Predict(0.5, 0, 0)
	if steady != 0.5 {
		t.Errorf("steady prediction = %v, want 0.5", steady)
	}
	if got := m.Predict(0.5, 0.95, 0); got >= steady {
		t.Errorf("frustrated prediction %v not below %v", got, steady)
	}
	if got := m.Predict(0.5, 0, 0.95); got <= steady {
		t.Errorf("engaged prediction %v not above %v", got, steady)
	}
	if got := m.Predict(1, 0, 1); got > cfg.Max {
		t.Errorf("prediction %v above max", got)
	}
	if got := m.Predict(0, 1, 0); got < cfg.Min {
		t.Errorf("prediction %v below min", got)
	}
}

func TestImprovingPlayerPredictsHarder(t *testing.T) {
	m, _ := newTestModel()
	for i := 1; i <= 5; i++ {
		m.Record(i, 0.3+0.1*float64(i), 0.5)
	}
	if got := m.Predict(0.8, 0, 0); got <= 0.5 {
		t.Errorf("prediction %v not above last difficulty", got)
	}
}

func TestThresholdDrift(t *testing.T) {
	m, cfg := newTestModel()
	f0, e0 := m.Thresholds()

	m.RageQuit()
	if f, _ := m.Thresholds(); f != f0-cfg.ThresholdDrift {
		t.Errorf("frustration threshold %v, want %v", f, f0-cfg.ThresholdDrift)
	}
	m.ExtendedSession()
	f, e := m.Thresholds()
	if math.Abs(f-f0) > 1e-12 {
		t.Errorf("frustration threshold %v, want back at %v", f, f0)
	}
	if e >= e0 {
		t.Errorf("engagement threshold %v not lowered from %v", e, e0)
	}

	for i := 0; i < 100; i++ {
		m.RageQuit()
	}
	if f, _ := m.Thresholds(); f < 0.3 {
		t.Errorf("threshold drifted to %v", f)
	}
}

func TestModelJSON(t *testing.T) {
	m, cfg := newTestModel()
	for i := 1; i <= cfg.HistorySize+5; i++ {
		m.Record(i, 0.5, 0.4)
	}
	m.RageQuit()

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	restored := NewModel(cfg)
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatal(err)
	}
	if len(restored.History()) != cfg.HistorySize {
		t.Errorf("history = %d, want %d", len(restored.History()), cfg.HistorySize)
	}
	rf, _ := restored.Thresholds()
	mf, _ := m.Thresholds()
	if rf != mf {
		t.Errorf("frustration threshold %v, want %v", rf, mf)
	}

	var bare Model
	if err := json.Unmarshal(data, &bare); err == nil {
		t.Error("unmarshal into a model without config succeeded")
	}
}
