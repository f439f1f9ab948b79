// Package player models the human player: a rolling profile updated from
// per-tick telemetry and an adaptive learner deriving counter-strategies.
package player

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

// Observe folds one telemetry sample into the profile and returns the result.
// It is a pure function of its inputs; the passed profile is not modified.
func Observe(p components.Profile, ts components.PlayerState, cfg *config.ProfileConfig) components.Profile {
	// Accuracy
	p.ShotsFired += ts.ShotsFired
	p.ShotsHit += ts.ShotsHit
	if p.ShotsFired > 0 {
		p.Accuracy = clamp01(float32(p.ShotsHit) / float32(p.ShotsFired))
	}

	// Weapon usage
	if ts.Weapon >= 0 && ts.Weapon < components.MaxWeapons {
		p.WeaponUse[ts.Weapon] += ts.ShotsFired
	}

	// Movement
	p.Positions.Push(ts.Pos)
	p.MeanStep = meanStep(&p.Positions)
	p.Style = classify(p.MeanStep, p.Positions.Len(), cfg)

	// Stress
	hf := fraction(ts.Health, ts.MaxHealth)
	af := fraction(float32(ts.Ammo), float32(ts.MaxAmmo))
	sat := cfg.HostileSaturation
	if sat < 1 {
		sat = 1
	}
	crowd := float32(ts.NearbyHostiles) / float32(sat)
	if crowd > 1 {
		crowd = 1
	}
	p.Stress = clamp01(float32(cfg.StressHealth)*(1-hf) +
		float32(cfg.StressAmmo)*(1-af) +
		float32(cfg.StressHostiles)*crowd)

	// Frustration from death frequency, decaying over time
	p.Frustration *= 1 - clamp01(float32(cfg.FrustrationDecay)*ts.DT)
	if ts.Died {
		p.Deaths++
		p.Frustration += float32(cfg.FrustrationDeath)
	}
	p.Frustration = clamp01(p.Frustration)

	// Engagement from session length and combat share
	p.Kills += ts.Kills
	p.SessionSeconds += ts.DT
	if ts.ShotsFired > 0 || ts.DamageTaken > 0 || ts.Kills > 0 {
		p.CombatSeconds += ts.DT
	}
	session := float32(1)
	if cfg.EngagementSession > 0 {
		session = clamp01(p.SessionSeconds / float32(cfg.EngagementSession))
	}
	var combat float32
	if p.SessionSeconds > 0 {
		combat = clamp01(p.CombatSeconds / p.SessionSeconds)
	}
	w := clamp01(float32(cfg.EngagementCombat))
	p.Engagement = clamp01((1-w)*session + w*combat)

	return p
}

// meanStep returns the mean displacement between consecutive ring samples.
func meanStep(r *components.PositionRing) float32 {
	n := r.Len()
	if n < 2 {
		return 0
	}
	steps := make([]float64, n-1)
	for i := 1; i < n; i++ {
		steps[i-1] = float64(r.At(i).Dist(r.At(i - 1)))
	}
	return float32(stat.Mean(steps, nil))
}

func classify(step float32, samples int, cfg *config.ProfileConfig) components.PlayStyle {
	if samples < 2 {
		return components.StyleTactical
	}
	switch {
	case float64(step) < cfg.CamperStep:
		return components.StyleCamper
	case float64(step) > cfg.RusherStep:
		return components.StyleRusher
	default:
		return components.StyleTactical
	}
}

func fraction(v, max float32) float32 {
	if max <= 0 {
		return 1
	}
	return clamp01(v / max)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
