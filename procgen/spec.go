package procgen

import (
	"math"
	"slices"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

// Tag labels a player preference or weakness that biases generation.
type Tag string

const (
	// Challenge tags: what the player gravitates toward.
	TagCloseQuarters  Tag = "close_quarters"
	TagLongSightlines Tag = "long_sightlines"
	TagFlanking       Tag = "flanking"
	TagElite          Tag = "elite"

	// Weakness tags.
	TagLowAccuracy   Tag = "low_accuracy"
	TagUnderPressure Tag = "under_pressure"
	TagFragile       Tag = "fragile"
)

const (
	defaultDifficulty = 0.5
	defaultRatio      = 0.5
	historyWindow     = 5
)

// Outcome is the result of one finished level.
type Outcome struct {
	Level           int     `json:"level"`
	Accuracy        float64 `json:"accuracy"`
	SurvivalRatio   float64 `json:"survival_ratio"`   // time survived / level time
	KillRatio       float64 `json:"kill_ratio"`       // kills / roster size
	HealthRetention float64 `json:"health_retention"` // health left / max
	Died            bool    `json:"died"`
	Difficulty      float64 `json:"difficulty"`
}

// Predictor supplies the target difficulty for the next level.
type Predictor interface {
	Predict(skill, frustration, engagement float64) float64
}

// LevelSpec is everything generation needs to know about the player.
// It is a value; the tag slices are private copies.
type LevelSpec struct {
	Level            int
	TargetDifficulty float64
	Skill            float64
	Accuracy         float64
	Survival         float64
	KillRatio        float64
	Challenges       []Tag
	Weaknesses       []Tag
	Style            components.PlayStyle
	Frustration      float64
	Engagement       float64
}

// Has reports whether the spec carries tag t.
func (s LevelSpec) Has(t Tag) bool {
	return slices.Contains(s.Challenges, t) || slices.Contains(s.Weaknesses, t)
}

// EstimateSkill combines accuracy, survival and kill ratio into [0,1].
// Each input is sanitized first.
func EstimateSkill(accuracy, survival, kill float64, w config.SkillConfig) float64 {
	total := w.AccuracyWeight + w.SurvivalWeight + w.KillWeight
	if !(total > 0) {
		w = config.SkillConfig{AccuracyWeight: 0.35, SurvivalWeight: 0.30, KillWeight: 0.35}
	}
	s := w.AccuracyWeight*ratio(accuracy, defaultRatio) +
		w.SurvivalWeight*ratio(survival, defaultRatio) +
		w.KillWeight*ratio(kill, defaultRatio)
	return clamp01(s)
}

// BuildLevelSpec derives the spec for level from the player's profile and
// recent outcomes. Missing or malformed values fall back to defaults. A nil
// predictor keeps the last played difficulty.
func BuildLevelSpec(level int, profile components.Profile, history []Outcome, pred Predictor, cfg *config.ProcgenConfig) LevelSpec {
	if level < 1 {
		level = 1
	}
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	survival, kill := defaultRatio, defaultRatio
	deaths := 0
	if len(recent) > 0 {
		survival, kill = 0, 0
		for _, o := range recent {
			survival += ratio(o.SurvivalRatio, defaultRatio)
			kill += ratio(o.KillRatio, defaultRatio)
			if o.Died {
				deaths++
			}
		}
		survival /= float64(len(recent))
		kill /= float64(len(recent))
	}

	acc := float64(profile.Accuracy)
	if profile.ShotsFired == 0 {
		acc = defaultRatio
	}
	acc = ratio(acc, defaultRatio)

	s := LevelSpec{
		Level:       level,
		Accuracy:    acc,
		Survival:    survival,
		KillRatio:   kill,
		Skill:       EstimateSkill(acc, survival, kill, cfg.Skill),
		Style:       profile.Style,
		Frustration: ratio(float64(profile.Frustration), 0),
		Engagement:  ratio(float64(profile.Engagement), defaultRatio),
	}
	if s.Style > components.StyleRusher {
		s.Style = components.StyleTactical
	}

	s.TargetDifficulty = defaultDifficulty
	if n := len(history); n > 0 {
		s.TargetDifficulty = ratio(history[n-1].Difficulty, defaultDifficulty)
	}
	if pred != nil {
		s.TargetDifficulty = ratio(pred.Predict(s.Skill, s.Frustration, s.Engagement), s.TargetDifficulty)
	}

	switch s.Style {
	case components.StyleRusher:
		s.Challenges = append(s.Challenges, TagCloseQuarters)
	case components.StyleCamper:
		s.Challenges = append(s.Challenges, TagLongSightlines)
	default:
		s.Challenges = append(s.Challenges, TagFlanking)
	}
	if s.Skill >= 0.75 {
		s.Challenges = append(s.Challenges, TagElite)
	}

	if acc < 0.35 {
		s.Weaknesses = append(s.Weaknesses, TagLowAccuracy)
	}
	if ratio(float64(profile.Stress), 0) > 0.6 {
		s.Weaknesses = append(s.Weaknesses, TagUnderPressure)
	}
	if s.Frustration > 0.6 || deaths >= 2 {
		s.Weaknesses = append(s.Weaknesses, TagFragile)
	}
	return s
}

// ratio sanitizes a value expected in [0,1]: NaN and infinities become def,
// everything else is clamped.
func ratio(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
