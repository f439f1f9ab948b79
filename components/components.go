// Package components defines the data model shared by the simulation systems.
package components

// Archetype is the closed set of adversary archetypes.
type Archetype uint8

const (
	ArchetypeBaseline Archetype = iota // straight-line grunt
	ArchetypeHeavy                     // slow, armored, advances using cover
	ArchetypeFast                      // hit-and-run skirmisher
	ArchetypeAdaptive                  // flanker with tactical retreat
	NumArchetypes
)

// Kind carries the archetype-specific state of an agent.
// Exactly one concrete kind exists per archetype; switch on the
// concrete type instead of probing optional fields.
type Kind interface {
	Archetype() Archetype
	// SupportCapable reports whether the agent answers need-assistance calls.
	SupportCapable() bool
}

// BaselineKind is the default archetype.
type BaselineKind struct{}

// HeavyKind is the tank archetype. Boss heavies lead squads.
type HeavyKind struct {
	Boss bool
}

// FastKind runs at the target, strikes, then breaks off until RetreatUntil.
type FastKind struct {
	RetreatUntil int64 // sim ms; zero when not retreating
}

// AdaptiveKind retreats tactically when perceived threat is high.
type AdaptiveKind struct {
	FlankSide float32 // +1 or -1; chosen once at spawn
}

func (BaselineKind) Archetype() Archetype { return ArchetypeBaseline }
func (HeavyKind) Archetype() Archetype    { return ArchetypeHeavy }
func (*FastKind) Archetype() Archetype    { return ArchetypeFast }
func (AdaptiveKind) Archetype() Archetype { return ArchetypeAdaptive }
func (BaselineKind) SupportCapable() bool { return true }
func (HeavyKind) SupportCapable() bool    { return false }
func (*FastKind) SupportCapable() bool    { return false }
func (AdaptiveKind) SupportCapable() bool { return true }

// NewKind returns the zero kind for an archetype.
func NewKind(a Archetype) Kind {
	switch a {
	case ArchetypeHeavy:
		return HeavyKind{}
	case ArchetypeFast:
		return &FastKind{}
	case ArchetypeAdaptive:
		return AdaptiveKind{FlankSide: 1}
	default:
		return BaselineKind{}
	}
}

// BehaviorState tags the branch an agent's behavior tree last selected.
type BehaviorState uint8

const (
	StateIdle BehaviorState = iota
	StatePatrol
	StateInvestigate
	StateAdvance
	StateAttack
	StateFlee
	StateTacticalRetreat
	StateHold
	StateFeign
)

// Intent is the movement/attack intention of a directive.
type Intent uint8

const (
	IntentHold Intent = iota
	IntentMove
	IntentAttack
	IntentFlee
)

// Role is a strategic role assigned by the coordinator.
type Role string

const (
	RoleNone         Role = ""
	RolePatrol       Role = "patrol"
	RoleHunter       Role = "hunter"
	RoleAmbushBait   Role = "ambush_bait"
	RoleAmbushHidden Role = "ambush_hidden"
	RoleBait         Role = "bait"
	RoleTrap         Role = "trap"
	RoleRetreat      Role = "retreat"
	RoleSupport      Role = "support"
)

// RoleSurroundPrefix prefixes indexed surround roles ("surround_0", ...).
const RoleSurroundPrefix = "surround_"

// Agent is the common base record of every adversary.
// Agents are owned by the simulation world; other systems hold pointers,
// never copies.
type Agent struct {
	ID        uint32
	Pos       Position
	Vel       Velocity
	Health    float32
	MaxHealth float32
	Archetype Archetype
	Kind      Kind
	Stats     Stats

	alive bool

	PerceivedThreat float32 // 0..1
	Role            Role

	StrategicTarget    Position
	HasStrategicTarget bool

	LastKnownTarget Position
	LastKnownAt     int64 // sim ms; valid when HasLastKnown
	HasLastKnown    bool

	State      BehaviorState
	WanderGoal Position
	HasWander  bool

	LastAttackAt int64 // sim ms of the last attack

	// DifficultyAdjusted guards against compounding difficulty scaling.
	DifficultyAdjusted bool
}

// NewAgent creates a live agent of the given archetype.
func NewAgent(id uint32, arch Archetype, pos Position, stats Stats) Agent {
	return Agent{
		ID:        id,
		Pos:       pos,
		Health:    stats.MaxHealth,
		MaxHealth: stats.MaxHealth,
		Archetype: arch,
		Kind:      NewKind(arch),
		Stats:     stats,
		alive:     true,
		Role:      RolePatrol,
	}
}

// Alive reports whether the agent is alive.
func (a *Agent) Alive() bool {
	return a.alive
}

// Kill marks the agent dead. Death is permanent.
func (a *Agent) Kill() {
	a.alive = false
	a.Health = 0
	a.HasStrategicTarget = false
}

// Damage applies damage and kills the agent when health is exhausted.
// Returns true if this call killed the agent.
func (a *Agent) Damage(amount float32) bool {
	if !a.alive || amount <= 0 {
		return false
	}
	a.Health -= amount
	if a.Health <= 0 {
		a.Kill()
		return true
	}
	return false
}

// HealthFraction returns Health/MaxHealth in [0,1].
func (a *Agent) HealthFraction() float32 {
	if a.MaxHealth <= 0 {
		return 0
	}
	f := a.Health / a.MaxHealth
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SetStrategicTarget installs a coordinator movement goal.
func (a *Agent) SetStrategicTarget(p Position) {
	a.StrategicTarget = p
	a.HasStrategicTarget = true
}

// ClearStrategicTarget removes the coordinator movement goal.
func (a *Agent) ClearStrategicTarget() {
	a.HasStrategicTarget = false
}

// Remember records a sighting of the target at time now (ms).
// Older sightings never overwrite newer ones.
func (a *Agent) Remember(p Position, now int64) bool {
	if a.HasLastKnown && now < a.LastKnownAt {
		return false
	}
	a.LastKnownTarget = p
	a.LastKnownAt = now
	a.HasLastKnown = true
	return true
}

// Directive is the output of one behavior tree evaluation.
type Directive struct {
	Target Position
	Intent Intent
	State  BehaviorState
}

// Pathing holds an agent's current path toward its directive target.
type Pathing struct {
	Waypoints []Position
	Index     int
	Goal      Position
	ValidTick int32
}
