package procgen

import (
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/arena/components"
)

// ItemKind is a pickup type.
type ItemKind uint8

const (
	ItemHealth ItemKind = iota
	ItemAmmo
	ItemWeaponUpgrade
)

func (k ItemKind) String() string {
	switch k {
	case ItemHealth:
		return "health"
	case ItemAmmo:
		return "ammo"
	case ItemWeaponUpgrade:
		return "weapon_upgrade"
	}
	return "unknown"
}

func (k ItemKind) glyph() byte {
	switch k {
	case ItemHealth:
		return '+'
	case ItemAmmo:
		return '='
	default:
		return '*'
	}
}

// Item is a pickup placed on the map.
type Item struct {
	Kind   ItemKind            `json:"kind"`
	Cell   Cell                `json:"cell"`
	Pos    components.Position `json:"pos"`
	Amount float32             `json:"amount"`
}

// itemCounts returns health and ammo pickup counts, fewer for skilled players.
func itemCounts(base int, skill float64) int {
	n := int(math.Round(float64(base) * (1.5 - skill)))
	if n < 1 {
		n = 1
	}
	return n
}

// EventKind is a timed level event.
type EventKind uint8

const (
	EventReinforcementWave EventKind = iota
	EventWeaponBoost
	EventSpeedBoost
	EventStealthPenalty
	EventWeaponMalfunction
	EventDamageZone
	NumEventKinds
)

var eventNames = [NumEventKinds]string{
	"reinforcement_wave", "weapon_boost", "speed_boost",
	"stealth_penalty", "weapon_malfunction", "damage_zone",
}

func (k EventKind) String() string {
	if k < NumEventKinds {
		return eventNames[k]
	}
	return "unknown"
}

// ParseEventKind maps a config key to an event kind.
func ParseEventKind(s string) (EventKind, bool) {
	for i, n := range eventNames {
		if n == s {
			return EventKind(i), true
		}
	}
	return 0, false
}

// TimedEvent fires DelayS seconds into the level and lasts DurationS.
type TimedEvent struct {
	Kind      EventKind           `json:"kind"`
	DelayS    float64             `json:"delay_s"`
	DurationS float64             `json:"duration_s"`
	Magnitude float64             `json:"magnitude"`        // multiplier, or damage per second for zones
	Pos       components.Position `json:"pos,omitempty"`    // damage zone center
	Radius    float32             `json:"radius,omitempty"` // damage zone radius
	Wave      []Spawn             `json:"wave,omitempty"`   // reinforcements, pre-rolled
}

// eventWeights adjusts configured weights by the level spec's tags.
func eventWeights(base map[string]float64, s LevelSpec) map[string]float64 {
	w := make(map[string]float64, len(base))
	for k, v := range base {
		if _, ok := ParseEventKind(k); ok {
			w[k] = v
		}
	}
	if s.Has(TagFragile) {
		w[EventWeaponMalfunction.String()] *= 0.5
		w[EventDamageZone.String()] *= 0.5
		w[EventWeaponBoost.String()] *= 1.5
	}
	if s.Has(TagElite) {
		w[EventReinforcementWave.String()] *= 1.5
		w[EventStealthPenalty.String()] *= 1.3
	}
	return w
}

func eventMagnitude(k EventKind) float64 {
	switch k {
	case EventWeaponBoost:
		return 1.5 // player damage
	case EventSpeedBoost:
		return 1.3 // player speed and fire rate
	case EventStealthPenalty:
		return 1.3 // agent sight range
	case EventWeaponMalfunction:
		return 2 // player fire interval
	}
	return 1
}

func sortEvents(ev []TimedEvent) {
	sort.SliceStable(ev, func(i, j int) bool { return ev[i].DelayS < ev[j].DelayS })
}

// Narrative is the level's flavor text.
type Narrative struct {
	Title    string `json:"title"`
	Briefing string `json:"briefing"`
}

var mapTitles = [NumMapArchetypes][]string{
	MapCorridor: {"The Gauntlet", "Long Hall", "Kill Lane"},
	MapArena:    {"The Pit", "Open Ground", "Colosseum"},
	MapMaze:     {"The Warren", "Switchbacks", "Labyrinth"},
	MapCompound: {"The Compound", "Blocks", "Outpost"},
	MapRuins:    {"Broken Walls", "The Ruins", "Old Quarter"},
}

var styleBriefings = map[components.PlayStyle][]string{
	components.StyleCamper:   {"They know you like to dig in. Expect to be flushed out.", "Holding still won't save you here."},
	components.StyleRusher:   {"They've seen you charge. They're waiting for it.", "Rush in and you rush into them."},
	components.StyleTactical: {"They're learning your angles.", "Every flank you take, they study."},
}

func buildNarrative(ch *Chooser, m MapArchetype, s LevelSpec) Narrative {
	titles := mapTitles[MapArena]
	if m < NumMapArchetypes {
		titles = mapTitles[m]
	}
	lines := styleBriefings[s.Style]
	if len(lines) == 0 {
		lines = styleBriefings[components.StyleTactical]
	}
	brief := lines[ch.Intn(len(lines))]
	if s.Has(TagFragile) {
		brief += " Take it slow."
	}
	return Narrative{
		Title:    fmt.Sprintf("Level %d: %s", s.Level, titles[ch.Intn(len(titles))]),
		Briefing: brief,
	}
}

// Ambient describes the level's atmosphere for presentation layers.
type Ambient struct {
	Mood    string  `json:"mood"`
	Light   float32 `json:"light"`   // 0 dark, 1 bright
	Tension float32 `json:"tension"` // tracks target difficulty
}

func buildAmbient(ch *Chooser, m MapArchetype, s LevelSpec) Ambient {
	a := Ambient{Tension: float32(s.TargetDifficulty), Light: 1}
	switch m {
	case MapMaze, MapCompound:
		a.Light = 0.55
	case MapRuins, MapCorridor:
		a.Light = 0.75
	}
	a.Light += float32(ch.Range(-0.1, 0.1))
	a.Light = float32(clamp01(float64(a.Light)))

	switch {
	case s.TargetDifficulty < 0.3:
		a.Mood = "calm"
	case s.TargetDifficulty < 0.6:
		a.Mood = "uneasy"
	case s.TargetDifficulty < 0.85:
		a.Mood = "hostile"
	default:
		a.Mood = "dire"
	}
	return a
}
