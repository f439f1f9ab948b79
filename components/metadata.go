package components

import (
	"fmt"
	"log/slog"
)

var archetypeNames = [NumArchetypes]string{"baseline", "heavy", "fast", "adaptive"}

// String returns the archetype's config name.
func (a Archetype) String() string {
	if a < NumArchetypes {
		return archetypeNames[a]
	}
	return "unknown"
}

// ParseArchetype maps a config name back to an Archetype.
func ParseArchetype(name string) (Archetype, bool) {
	for i, n := range archetypeNames {
		if n == name {
			return Archetype(i), true
		}
	}
	return 0, false
}

var stateNames = []string{"idle", "patrol", "investigate", "advance", "attack", "flee", "tactical_retreat", "hold", "feign"}

func (s BehaviorState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

var intentNames = []string{"hold", "move", "attack", "flee"}

func (i Intent) String() string {
	if int(i) < len(intentNames) {
		return intentNames[i]
	}
	return "unknown"
}

var playStyleNames = []string{"tactical", "camper", "rusher"}

func (p PlayStyle) String() string {
	if int(p) < len(playStyleNames) {
		return playStyleNames[p]
	}
	return "unknown"
}

// ParsePlayStyle maps a style name back to a PlayStyle.
func ParsePlayStyle(name string) (PlayStyle, bool) {
	for i, n := range playStyleNames {
		if n == name {
			return PlayStyle(i), true
		}
	}
	return 0, false
}

var messageTypeNames = []string{"target_spotted", "under_attack", "need_assistance", "formation_command"}

func (m MessageType) String() string {
	if int(m) < len(messageTypeNames) {
		return messageTypeNames[m]
	}
	return "unknown"
}

// LogValue implements slog.LogValuer.
func (d Directive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("intent", d.Intent.String()),
		slog.String("state", d.State.String()),
		slog.String("target", fmt.Sprintf("%.0f,%.0f", d.Target.X, d.Target.Y)),
	)
}
