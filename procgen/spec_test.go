package procgen

import (
	"math"
	"testing"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

func TestEstimateSkillScenario(t *testing.T) {
	cfg := config.Default()
	got := EstimateSkill(0.9, 1.0, 1.0, cfg.Procgen.Skill)
	if got < 0.9 || got > 1.0 {
		t.Errorf("skill = %.3f, want in [0.9, 1.0]", got)
	}
}

func TestEstimateSkillSanitizes(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name         string
		acc, sv, kil float64
		want         float64
	}{
		{"all zero", 0, 0, 0, 0},
		{"all one", 1, 1, 1, 1},
		{"over range clamps", 5, 5, 5, 1},
		{"nan defaults", math.NaN(), math.NaN(), math.NaN(), 0.5},
		{"inf defaults", math.Inf(1), 1, 1, 0.35*0.5 + 0.30 + 0.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateSkill(tt.acc, tt.sv, tt.kil, cfg.Procgen.Skill)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("skill = %v, want %v", got, tt.want)
			}
		})
	}
}

type fixedPredictor float64

func (f fixedPredictor) Predict(_, _, _ float64) float64 { return float64(f) }

func TestBuildLevelSpec(t *testing.T) {
	cfg := config.Default()
	profile := components.Profile{ShotsFired: 100, ShotsHit: 90, Accuracy: 0.9, Style: components.StyleRusher}
	history := []Outcome{
		{Level: 1, SurvivalRatio: 1, KillRatio: 1, Difficulty: 0.6},
		{Level: 2, SurvivalRatio: 1, KillRatio: 1, Difficulty: 0.65},
	}

	s := BuildLevelSpec(3, profile, history, nil, &cfg.Procgen)
	if s.Skill < 0.9 || s.Skill > 1 {
		t.Errorf("skill = %v", s.Skill)
	}
	if s.TargetDifficulty != 0.65 {
		t.Errorf("difficulty = %v, want last played 0.65", s.TargetDifficulty)
	}
	if !s.Has(TagCloseQuarters) || !s.Has(TagElite) {
		t.Errorf("challenges = %v", s.Challenges)
	}
	if len(s.Weaknesses) != 0 {
		t.Errorf("weaknesses = %v, want none", s.Weaknesses)
	}

	s = BuildLevelSpec(3, profile, history, fixedPredictor(0.8), &cfg.Procgen)
	if s.TargetDifficulty != 0.8 {
		t.Errorf("difficulty = %v, want predicted 0.8", s.TargetDifficulty)
	}
}

func TestBuildLevelSpecDefaults(t *testing.T) {
	cfg := config.Default()
	profile := components.Profile{Accuracy: float32(math.NaN()), Style: components.PlayStyle(9), Frustration: 7}
	s := BuildLevelSpec(0, profile, nil, fixedPredictor(math.NaN()), &cfg.Procgen)

	if s.Level != 1 {
		t.Errorf("level = %d, want 1", s.Level)
	}
	if s.Accuracy != 0.5 || s.Survival != 0.5 || s.KillRatio != 0.5 {
		t.Errorf("defaults = %v/%v/%v", s.Accuracy, s.Survival, s.KillRatio)
	}
	if s.TargetDifficulty != 0.5 {
		t.Errorf("difficulty = %v, want default 0.5", s.TargetDifficulty)
	}
	if s.Style != components.StyleTactical {
		t.Errorf("style = %v", s.Style)
	}
	if s.Frustration != 1 || !s.Has(TagFragile) {
		t.Errorf("frustration = %v, weaknesses = %v", s.Frustration, s.Weaknesses)
	}
}

func TestLowAccuracyFavorsHeavy(t *testing.T) {
	cfg := config.Default()
	base := LevelSpec{Level: 1}
	weak := LevelSpec{Level: 1, Weaknesses: []Tag{TagLowAccuracy}}

	bw := RosterWeights(base, &cfg.Procgen.Roster)
	ww := RosterWeights(weak, &cfg.Procgen.Roster)
	if ww[classHeavy] <= bw[classHeavy] {
		t.Errorf("heavy weight %v not raised over %v", ww[classHeavy], bw[classHeavy])
	}
	if bw[classBoss] != 0 {
		t.Errorf("boss weight %v before boss level", bw[classBoss])
	}
}
