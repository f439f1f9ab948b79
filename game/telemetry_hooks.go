package game

import (
	"log/slog"

	"github.com/pthm-cable/arena/telemetry"
)

// recordLevel flushes the level's stats and handles bookmarks.
func (g *Game) recordLevel(outcome string, skill, nextDifficulty float64) {
	var agentHealth []float64
	for _, a := range g.agents {
		if a.Alive() {
			agentHealth = append(agentHealth, float64(a.HealthFraction()))
		}
	}
	sent, _ := g.bus.Stats()
	hits, misses := g.pathfinder.Stats()
	g.reportPathCache()

	stats := g.collector.Flush(telemetry.LevelEnd{
		Tick:          g.tick,
		Outcome:       outcome,
		EndHealth:     float64(g.player.HealthFraction()),
		AgentHealth:   agentHealth,
		FinalStrategy: g.coordinator.Strategy().String(),
		MessagesSent:  sent,
		PathHits:      hits,
		PathMisses:    misses,
		Player: telemetry.PlayerModel{
			Skill:       skill,
			Style:       g.profile.Style.String(),
			Frustration: float64(g.profile.Frustration),
			Engagement:  float64(g.profile.Engagement),
		},
		DifficultyNext: nextDifficulty,
	})
	perfStats := g.perf.Stats()

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.output != nil {
		if err := g.output.WriteLevel(stats); err != nil {
			slog.Error("failed to write level stats", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.Level, g.tick, g.aiInterval); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	g.metrics.LevelFinished(outcome)
	g.metrics.SetDifficulty(nextDifficulty)
	if err := g.journal.Record(telemetry.JournalLevelEnd, stats.Level, g.tick, stats); err != nil {
		logJournalError(err)
	}

	// Check for bookmarks
	for _, bm := range g.bookmarks.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if err := g.journal.Record(telemetry.JournalBookmark, stats.Level, g.tick, bm); err != nil {
			logJournalError(err)
		}
		if g.output == nil {
			continue
		}
		if err := g.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}

		// Save the level layout so the moment can be replayed
		snap := telemetry.NewSnapshot(g.level)
		snap.Bookmark = &bm
		path, err := telemetry.SaveSnapshot(snap, g.output.SnapshotDir())
		if err != nil {
			slog.Error("failed to save bookmark snapshot", "error", err)
			continue
		}
		slog.Info("bookmark snapshot saved", "type", string(bm.Type), "path", path)
	}
}

// reportPathCache pushes pathfinder counter deltas to the metrics.
func (g *Game) reportPathCache() {
	hits, misses := g.pathfinder.Stats()
	g.metrics.PathCache(hits-g.pathHits, misses-g.pathMisses)
	g.pathHits, g.pathMisses = hits, misses
}

func logJournalError(err error) {
	slog.Error("failed to write journal entry", "error", err)
}
