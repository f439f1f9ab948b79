package game

import (
	"log/slog"

	"github.com/pthm-cable/arena/components"
)

// EffectKind names a presentation effect.
type EffectKind string

const (
	EffectMuzzleFlash     EffectKind = "muzzle_flash"
	EffectAgentDeath      EffectKind = "agent_death"
	EffectPlayerDamage    EffectKind = "player_damage"
	EffectWeaponSwitch    EffectKind = "weapon_switch"
	EffectLevelTransition EffectKind = "level_transition"
)

// EffectParams carries the details of one effect.
type EffectParams struct {
	Pos   components.Position
	Value float64
	Text  string
}

// Effects receives presentation events. The simulation never reads back
// from it.
type Effects interface {
	TriggerEffect(kind EffectKind, params EffectParams)
}

// LogEffects writes every effect to the debug log.
type LogEffects struct{}

// TriggerEffect implements Effects.
func (LogEffects) TriggerEffect(kind EffectKind, p EffectParams) {
	slog.Debug("effect",
		"kind", string(kind),
		"x", p.Pos.X,
		"y", p.Pos.Y,
		"value", p.Value,
		"text", p.Text,
	)
}

// Message is one line of the on-screen message log.
type Message struct {
	Tick     int64
	Source   string
	Text     string
	Fallback bool
}

func (g *Game) pushMessage(m Message) {
	g.messages = append(g.messages, m)
	if len(g.messages) > maxMessages {
		g.messages = append(g.messages[:0], g.messages[len(g.messages)-maxMessages:]...)
	}
}
