package difficulty

import (
	"encoding/json"
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arena/config"
)

// ProgressPoint is one level of the player's skill progression.
type ProgressPoint struct {
	Level      int     `json:"level"`
	Skill      float64 `json:"skill"`
	Difficulty float64 `json:"difficulty"`
}

// Model predicts a target difficulty from the player's skill trend and
// emotional state. Its thresholds drift with session signals.
type Model struct {
	cfg *config.DifficultyConfig

	history              []ProgressPoint
	frustrationThreshold float64
	engagementThreshold  float64
}

type modelState struct {
	History              []ProgressPoint `json:"history"`
	FrustrationThreshold float64         `json:"frustration_threshold"`
	EngagementThreshold  float64         `json:"engagement_threshold"`
}

// NewModel creates a model with the configured thresholds.
func NewModel(cfg *config.DifficultyConfig) *Model {
	return &Model{
		cfg:                  cfg,
		frustrationThreshold: cfg.FrustrationThreshold,
		engagementThreshold:  cfg.EngagementThreshold,
	}
}

// Record appends a finished level, keeping at most HistorySize points.
func (m *Model) Record(level int, skill, difficulty float64) {
	m.history = append(m.history, ProgressPoint{Level: level, Skill: sanitize(skill), Difficulty: difficulty})
	if n := m.cfg.HistorySize; n > 0 && len(m.history) > n {
		m.history = append(m.history[:0], m.history[len(m.history)-n:]...)
	}
}

// History returns a copy of the recorded progression.
func (m *Model) History() []ProgressPoint {
	return append([]ProgressPoint(nil), m.history...)
}

// Thresholds returns the current frustration and engagement thresholds.
func (m *Model) Thresholds() (frustration, engagement float64) {
	return m.frustrationThreshold, m.engagementThreshold
}

// RageQuit lowers the frustration threshold so easing starts sooner.
func (m *Model) RageQuit() {
	m.frustrationThreshold = clampRange(m.frustrationThreshold-m.cfg.ThresholdDrift, 0.3, 0.95)
}

// ExtendedSession tolerates more frustration and hardens sooner for
// players who keep playing.
func (m *Model) ExtendedSession() {
	m.frustrationThreshold = clampRange(m.frustrationThreshold+m.cfg.ThresholdDrift, 0.3, 0.95)
	m.engagementThreshold = clampRange(m.engagementThreshold-m.cfg.ThresholdDrift, 0.3, 0.95)
}

// SkillTrend is the least-squares slope of skill per level over the
// history, or 0 with fewer than two points.
func (m *Model) SkillTrend() float64 {
	if len(m.history) < 2 {
		return 0
	}
	xs := make([]float64, len(m.history))
	ys := make([]float64, len(m.history))
	for i, p := range m.history {
		xs[i] = float64(p.Level)
		ys[i] = p.Skill
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

// Predict returns the target difficulty for the next level.
func (m *Model) Predict(skill, frustration, engagement float64) float64 {
	base := m.cfg.Initial
	if n := len(m.history); n > 0 {
		base = m.history[n-1].Difficulty
	}

	// Track the skill estimate and lean into its trend.
	target := base + 0.25*(sanitize(skill)-base) + m.SkillTrend()

	if frustration > m.frustrationThreshold {
		target -= 2 * m.cfg.Step
	}
	if engagement > m.engagementThreshold {
		target += m.cfg.Step
	}
	if math.IsNaN(target) {
		target = base
	}
	return clampRange(target, m.cfg.Min, m.cfg.Max)
}

// MarshalJSON implements json.Marshaler.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelState{
		History:              m.history,
		FrustrationThreshold: m.frustrationThreshold,
		EngagementThreshold:  m.engagementThreshold,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Zero thresholds keep the
// configured values; the history is trimmed to the configured bound.
// The receiver must come from NewModel.
func (m *Model) UnmarshalJSON(data []byte) error {
	if m.cfg == nil {
		return errors.New("difficulty: model has no config")
	}
	var s modelState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.history = m.history[:0]
	for _, p := range s.History {
		m.Record(p.Level, p.Skill, p.Difficulty)
	}
	if s.FrustrationThreshold > 0 {
		m.frustrationThreshold = s.FrustrationThreshold
	}
	if s.EngagementThreshold > 0 {
		m.engagementThreshold = s.EngagementThreshold
	}
	return nil
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
