package player

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

// EventKind distinguishes recorded combat outcomes.
type EventKind uint8

const (
	EventMove EventKind = iota
	EventWeapon
	EventKill
)

// CombatEvent is one observation fed to the learner.
type CombatEvent struct {
	Kind     EventKind
	Pos      components.Position // EventMove: player position
	Weapon   int                 // EventWeapon: weapon index
	Count    int                 // EventWeapon: shots
	At       int64               // sim ms
	Distance float32             // EventKill: distance to the killed agent
}

// Adaptations are advisory multipliers (1 = neutral) consumed by the
// coordinator and behavior trees. They never touch agent base stats.
type Adaptations struct {
	AmbushAdvantage float32 // scales the ambush strategy score
	CloseRangeBonus float32 // agents close in further before firing
	SpreadOutFactor float32 // scales flank and surround spacing
	FlankBias       float32 // scales adaptive flank offsets

	Predictability     float32
	MeanKillIntervalMs float64
}

// Neutral returns adaptations that change nothing.
func Neutral() Adaptations {
	return Adaptations{AmbushAdvantage: 1, CloseRangeBonus: 1, SpreadOutFactor: 1, FlankBias: 1}
}

// LogValue implements slog.LogValuer.
func (a Adaptations) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("ambush", float64(a.AmbushAdvantage)),
		slog.Float64("close_range", float64(a.CloseRangeBonus)),
		slog.Float64("spread", float64(a.SpreadOutFactor)),
		slog.Float64("flank", float64(a.FlankBias)),
		slog.Float64("predictability", float64(a.Predictability)),
	)
}

// LearnerState is the persisted form of a Learner.
type LearnerState struct {
	Moves     []components.Position      `json:"moves"`
	WeaponUse [components.MaxWeapons]int `json:"weapon_use"`
	KillTimes []int64                    `json:"kill_times"`
	KillDists []float32                  `json:"kill_dists"`
}

// Learner accumulates bounded histories of player behavior.
type Learner struct {
	cfg *config.LearningConfig

	moves     []components.Position
	weaponUse [components.MaxWeapons]int
	killTimes []int64
	killDists []float32
}

// NewLearner creates an empty learner.
func NewLearner(cfg *config.LearningConfig) *Learner {
	return &Learner{cfg: cfg}
}

// RecordOutcome appends an observation to the matching history.
func (l *Learner) RecordOutcome(ev CombatEvent) {
	switch ev.Kind {
	case EventMove:
		l.moves = appendBounded(l.moves, ev.Pos, l.cfg.HistorySize)
	case EventWeapon:
		if ev.Weapon >= 0 && ev.Weapon < components.MaxWeapons && ev.Count > 0 {
			l.weaponUse[ev.Weapon] += ev.Count
		}
	case EventKill:
		l.killTimes = appendBounded(l.killTimes, ev.At, l.cfg.HistorySize)
		l.killDists = appendBounded(l.killDists, ev.Distance, l.cfg.HistorySize)
	}
}

func appendBounded[T any](s []T, v T, max int) []T {
	s = append(s, v)
	if max > 0 && len(s) > max {
		s = append(s[:0], s[len(s)-max:]...)
	}
	return s
}

// Predictability is the fraction of consecutive movement triplets whose
// turning angle stays under the threshold. Triplets with a zero-length
// segment are ignored.
func (l *Learner) Predictability() float32 {
	straight, total := 0, 0
	for i := 2; i < len(l.moves); i++ {
		a, b, c := l.moves[i-2], l.moves[i-1], l.moves[i]
		if a.DistSq(b) < 1e-6 || b.DistSq(c) < 1e-6 {
			continue
		}
		turn := math.Abs(float64(angleDiff(a.AngleTo(b), b.AngleTo(c))))
		total++
		if turn < l.cfg.TurnThreshold {
			straight++
		}
	}
	if total == 0 {
		return 0
	}
	return float32(straight) / float32(total)
}

// WeaponBias returns each weapon's share of recorded usage.
func (l *Learner) WeaponBias() [components.MaxWeapons]float64 {
	var out [components.MaxWeapons]float64
	use := make([]float64, components.MaxWeapons)
	for i, c := range l.weaponUse {
		use[i] = float64(c)
	}
	total := floats.Sum(use)
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] = use[i] / total
	}
	return out
}

// DeriveAdaptations computes the multiplier set from the histories.
func (l *Learner) DeriveAdaptations() Adaptations {
	ad := Neutral()
	maxM := float32(l.cfg.MaxMultiplier)
	if maxM < 1 {
		maxM = 1
	}

	pred := l.Predictability()
	ad.Predictability = pred
	at := float32(l.cfg.PredictableAt)
	if pred > at && at < 1 {
		ad.AmbushAdvantage = 1 + (pred-at)/(1-at)*(maxM-1)
	}
	if len(l.moves) >= 3 {
		// Erratic movers get flanked harder.
		ad.FlankBias = 1 + (1-pred)*(maxM-1)*0.5
	}

	if len(l.killDists) > 0 {
		near := 0
		for _, d := range l.killDists {
			if float64(d) < l.cfg.CloseRangeDist {
				near++
			}
		}
		share := float32(near) / float32(len(l.killDists))
		// A player who rarely kills up close is weak there.
		ad.CloseRangeBonus = 1 + (1-share)*(maxM-1)*0.5
	}

	bias := l.WeaponBias()
	top := float32(floats.Max(bias[:]))
	threshold := float32(l.cfg.SpreadWeaponBias)
	if top > threshold && threshold < 1 {
		ad.SpreadOutFactor = 1 + (top-threshold)/(1-threshold)*(maxM-1)
	}

	if len(l.killTimes) >= 2 {
		gaps := make([]float64, len(l.killTimes)-1)
		for i := 1; i < len(l.killTimes); i++ {
			gaps[i-1] = float64(l.killTimes[i] - l.killTimes[i-1])
		}
		ad.MeanKillIntervalMs = stat.Mean(gaps, nil)
	}
	return ad
}

// Snapshot returns a copy of the learner's histories for persistence.
func (l *Learner) Snapshot() LearnerState {
	return LearnerState{
		Moves:     append([]components.Position(nil), l.moves...),
		WeaponUse: l.weaponUse,
		KillTimes: append([]int64(nil), l.killTimes...),
		KillDists: append([]float32(nil), l.killDists...),
	}
}

// Restore replaces the learner's histories, trimming to the configured bound.
func (l *Learner) Restore(s LearnerState) {
	l.moves = trim(append([]components.Position(nil), s.Moves...), l.cfg.HistorySize)
	l.weaponUse = s.WeaponUse
	l.killTimes = trim(append([]int64(nil), s.KillTimes...), l.cfg.HistorySize)
	l.killDists = trim(append([]float32(nil), s.KillDists...), l.cfg.HistorySize)
}

func trim[T any](s []T, max int) []T {
	if max > 0 && len(s) > max {
		return s[len(s)-max:]
	}
	return s
}

func angleDiff(a, b float32) float32 {
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
