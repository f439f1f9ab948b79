package procgen

import (
	"math"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

// Roster classes; specialist resolves to fast or adaptive, boss to a
// boosted heavy.
const (
	classBaseline = iota
	classHeavy
	classSpecialist
	classBoss
	numClasses
)

// Spawn is one agent to create when the level starts.
type Spawn struct {
	Archetype components.Archetype `json:"archetype"`
	Boss      bool                 `json:"boss,omitempty"`
	Cell      Cell                 `json:"cell"`
	Pos       components.Position  `json:"pos"`
	Stats     components.Stats     `json:"stats"`
}

// RosterWeights returns the baseline/heavy/specialist/boss weights for a spec.
func RosterWeights(s LevelSpec, cfg *config.RosterConfig) [numClasses]float64 {
	w := [numClasses]float64{cfg.BaselineWeight, cfg.HeavyWeight, cfg.SpecialistWeight, cfg.BossWeight}
	if s.Level < cfg.BossMinLevel {
		w[classBoss] = 0
	}

	shift := cfg.SkillShift * s.Skill
	w[classBaseline] *= 1 - shift
	w[classSpecialist] *= 1 + shift
	w[classBoss] *= 1 + shift

	if s.Has(TagLowAccuracy) {
		w[classHeavy] *= 1.5 // slower, larger targets
	}
	if s.Has(TagCloseQuarters) {
		w[classHeavy] *= 1.2
	}
	if s.Has(TagElite) {
		w[classSpecialist] *= 1.25
		w[classBoss] *= 1.5
	}
	if s.Has(TagFragile) {
		w[classBoss] *= 0.5
	}
	for i := range w {
		w[i] = math.Max(0, w[i])
	}
	return w
}

// specialistWeights splits the specialist class between fast and adaptive.
func specialistWeights(s LevelSpec) [2]float64 {
	w := [2]float64{1, 1}
	if s.Has(TagLowAccuracy) {
		w[0] *= 0.5
	}
	if s.Has(TagLongSightlines) {
		w[0] *= 1.5 // flush campers out
	}
	if s.Has(TagFlanking) {
		w[1] *= 1.3
	}
	return w
}

// RosterSize scales the agent count with level and target difficulty.
func RosterSize(s LevelSpec, cfg *config.RosterConfig) int {
	base := cfg.BaseCount + cfg.PerLevel*float64(s.Level-1)
	n := int(math.Round(base * (0.5 + s.TargetDifficulty)))
	if n < 1 {
		n = 1
	}
	if cfg.MaxCount > 0 && n > cfg.MaxCount {
		n = cfg.MaxCount
	}
	return n
}

// statMultiplier scales base stats by level, then eases for frustrated
// players and hardens for engaged ones.
func statMultiplier(s LevelSpec, cfg *config.RosterConfig) float64 {
	m := 1 + cfg.LevelScale*float64(s.Level-1)
	if s.Frustration > 0.5 {
		m *= 1 - cfg.FrustrationEase*(s.Frustration-0.5)/0.5
	}
	if s.Engagement > 0.6 {
		m *= 1 + cfg.EngagementHarden*(s.Engagement-0.6)/0.4
	}
	return math.Max(0.1, m)
}

// StatsFor converts an archetype config block into runtime stats.
func StatsFor(ac config.ArchetypeConfig) components.Stats {
	return components.Stats{
		MaxHealth:    float32(ac.MaxHealth),
		Speed:        float32(ac.Speed),
		Damage:       float32(ac.Damage),
		FireInterval: float32(ac.FireInterval),
		AttackRange:  float32(ac.AttackRange),
		SightRange:   float32(ac.SightRange),
		Radius:       float32(ac.Radius),
	}
}

// roller draws agents for one spec.
type roller struct {
	cfg     *config.Config
	spec    LevelSpec
	weights [numClasses]float64
	special [2]float64
	mult    float32
}

func newRoller(cfg *config.Config, spec LevelSpec) *roller {
	return &roller{
		cfg:     cfg,
		spec:    spec,
		weights: RosterWeights(spec, &cfg.Procgen.Roster),
		special: specialistWeights(spec),
		mult:    float32(statMultiplier(spec, &cfg.Procgen.Roster)),
	}
}

// roll picks an archetype and builds its scaled stats. The cell is left
// for the caller to place.
func (r *roller) roll(ch *Chooser) (Spawn, error) {
	class := ch.Pick(r.weights[:])
	if class < 0 {
		class = classBaseline
	}

	sp := Spawn{Archetype: components.ArchetypeBaseline}
	switch class {
	case classHeavy:
		sp.Archetype = components.ArchetypeHeavy
	case classSpecialist:
		sp.Archetype = components.ArchetypeFast
		if ch.Pick(r.special[:]) == 1 {
			sp.Archetype = components.ArchetypeAdaptive
		}
	case classBoss:
		sp.Archetype = components.ArchetypeHeavy
		sp.Boss = true
	}

	ac, ok := r.cfg.Archetype(sp.Archetype.String())
	if !ok {
		return sp, ErrInvalidArchetype
	}
	sp.Stats = StatsFor(ac).Scale(r.mult)
	if sp.Boss {
		sp.Stats.MaxHealth *= float32(r.cfg.Procgen.Roster.BossMultiplier)
		sp.Stats.Radius *= 1.25
	}
	return sp, nil
}
