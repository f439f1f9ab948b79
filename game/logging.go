package game

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/pthm-cable/arena/components"
)

// logLevelStart logs the generated level and its roster.
func (g *Game) logLevelStart() {
	var roster [components.NumArchetypes]int
	bosses := 0
	for _, sp := range g.level.Agents {
		if int(sp.Archetype) < len(roster) {
			roster[sp.Archetype]++
		}
		if sp.Boss {
			bosses++
		}
	}
	parts := make([]string, 0, len(roster))
	for i, n := range roster {
		if n > 0 {
			parts = append(parts, components.Archetype(i).String()+"="+strconv.Itoa(n))
		}
	}

	slog.Info("level started",
		"level", g.levelNum,
		"seed", g.level.Seed,
		"map", g.level.Map.String(),
		"fallback", g.level.Fallback,
		"agents", g.initial,
		"roster", strings.Join(parts, " "),
		"bosses", bosses,
		"items", len(g.level.Items),
		"events", len(g.level.Events),
		"difficulty", g.difficulty.Value(),
		"target", g.level.Spec.TargetDifficulty,
		"title", g.level.Narrative.Title,
	)
	if g.opts.LogStats {
		slog.Debug("level layout", "level", g.levelNum, "ascii", "\n"+g.level.ASCII())
	}
}

// LogValue implements slog.LogValuer with a one-line session summary.
func (g *Game) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", g.tick),
		slog.Int("level", g.levelNum),
		slog.Int("levels_done", g.levelsDone),
		slog.Int("live_agents", g.LiveAgents()),
		slog.String("strategy", g.coordinator.Strategy().String()),
		slog.Float64("difficulty", g.difficulty.Value()),
		slog.Int("ai_interval", g.aiInterval),
		slog.Any("player", g.player),
	)
}
