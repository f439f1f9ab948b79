package components

// RingCapacity is the number of recent player positions kept by a Profile.
const RingCapacity = 100

// MaxWeapons bounds the weapon-usage histogram.
const MaxWeapons = 8

// PlayStyle classifies recent player movement.
type PlayStyle uint8

const (
	StyleTactical PlayStyle = iota
	StyleCamper
	StyleRusher
)

// PlayerState is one tick of player telemetry.
type PlayerState struct {
	Pos            Position
	Health         float32
	MaxHealth      float32
	Ammo           int
	MaxAmmo        int
	ShotsFired     int // this tick
	ShotsHit       int // this tick
	Weapon         int
	DamageTaken    float32
	Died           bool
	Kills          int // this tick
	NearbyHostiles int
	DT             float32 // seconds covered by this sample
}

// PositionRing is a fixed-capacity ring buffer of positions.
// It is a value type so Profile copies stay independent.
type PositionRing struct {
	buf   [RingCapacity]Position
	start int
	n     int
}

// Push appends p, overwriting the oldest entry when full.
func (r *PositionRing) Push(p Position) {
	if r.n < RingCapacity {
		r.buf[(r.start+r.n)%RingCapacity] = p
		r.n++
		return
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % RingCapacity
}

// Len returns the number of stored positions.
func (r *PositionRing) Len() int { return r.n }

// At returns the i-th oldest position.
func (r *PositionRing) At(i int) Position {
	return r.buf[(r.start+i)%RingCapacity]
}

// Last returns the newest position.
func (r *PositionRing) Last() (Position, bool) {
	if r.n == 0 {
		return Position{}, false
	}
	return r.At(r.n - 1), true
}

// Profile is the rolling model of the player.
type Profile struct {
	ShotsFired int
	ShotsHit   int
	Accuracy   float32

	Positions PositionRing
	Style     PlayStyle
	MeanStep  float32 // mean displacement per sample over the ring

	Stress      float32
	Frustration float32
	Engagement  float32

	WeaponUse [MaxWeapons]int

	Deaths         int
	Kills          int
	SessionSeconds float32
	CombatSeconds  float32
}

// WeaponShare returns the share of recorded usage for weapon w.
func (p *Profile) WeaponShare(w int) float32 {
	if w < 0 || w >= MaxWeapons {
		return 0
	}
	total := 0
	for _, c := range p.WeaponUse {
		total += c
	}
	if total == 0 {
		return 0
	}
	return float32(p.WeaponUse[w]) / float32(total)
}
