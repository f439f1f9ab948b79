package components

// Stats holds the combat capabilities of an agent.
// Procgen produces the base values; difficulty scaling is applied once.
type Stats struct {
	MaxHealth    float32 `json:"max_health"`
	Speed        float32 `json:"speed"`         // world units per second
	Damage       float32 `json:"damage"`        // per hit
	FireInterval float32 `json:"fire_interval"` // seconds between attacks
	AttackRange  float32 `json:"attack_range"`
	SightRange   float32 `json:"sight_range"`
	Radius       float32 `json:"radius"` // collision radius
}

// Scale returns a copy with offensive and defensive values multiplied by m.
// Ranges and radius are left untouched.
func (s Stats) Scale(m float32) Stats {
	out := s
	out.MaxHealth *= m
	out.Speed *= m
	out.Damage *= m
	if m > 0 {
		out.FireInterval /= m
	}
	return out
}
