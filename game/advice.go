package game

import (
	"errors"
	"log/slog"

	"github.com/pthm-cable/arena/advisor"
	"github.com/pthm-cable/arena/telemetry"
)

// Thresholds for asking the advisor, each asked at most once per level.
const (
	adviceLowHealth   = 0.3
	adviceOutnumbered = 3   // hostiles near the player
	adviceWinning     = 0.7 // share of the roster killed
)

// requestAdvice asks for advice when the situation crosses a threshold.
func (g *Game) requestAdvice() {
	if g.advisor == nil || !g.player.Alive() || g.tick < g.adviceRetry {
		return
	}
	switch {
	case !g.advisedLow && g.player.HealthFraction() < adviceLowHealth:
		if g.askAdvice(advisor.CategoryLowHealth) {
			g.advisedLow = true
		}
	case !g.advisedMany && g.spatial.CountWithin(g.player.Pos, float32(g.cfg.Profile.HostileRadius)) >= adviceOutnumbered:
		if g.askAdvice(advisor.CategoryOutnumbered) {
			g.advisedMany = true
		}
	case !g.advisedWin && g.spawned > 0 && ratio(g.collector.Kills(), g.spawned) >= adviceWinning:
		if g.askAdvice(advisor.CategoryWinning) {
			g.advisedWin = true
		}
	}
}

// askAdvice issues one request. It never blocks; a cooldown rejection
// returns false so the trigger stays armed.
func (g *Game) askAdvice(cat advisor.Category) bool {
	if g.advisor == nil {
		return false
	}
	_, err := g.advisor.Request(g.simTime(), advisor.Situation{
		Category:     cat,
		Level:        g.levelNum,
		PlayerHealth: float64(g.player.HealthFraction()),
		Hostiles:     g.LiveAgents(),
		Strategy:     g.coordinator.Strategy().String(),
		Difficulty:   g.difficulty.Value(),
	})
	if errors.Is(err, advisor.ErrCooldown) {
		g.metrics.Advisory(telemetry.AdvisoryCooldown)
		g.adviceRetry = g.tick + int64(1/g.cfg.Sim.DT)
		return false
	}
	if err != nil {
		slog.Warn("advisory request failed", "category", string(cat), "err", err)
		return false
	}
	return true
}

// drainAdvice moves resolved advisories onto the message log.
func (g *Game) drainAdvice() {
	if g.advisor == nil {
		return
	}
	for _, r := range g.advisor.Drain() {
		outcome := telemetry.AdvisoryOK
		switch {
		case errors.Is(r.Err, advisor.ErrAdvisoryTimeout):
			outcome = telemetry.AdvisoryTimeout
		case r.Fallback:
			outcome = telemetry.AdvisoryFallback
		}
		g.metrics.Advisory(outcome)
		g.pushMessage(Message{Tick: g.tick, Source: "advisor", Text: r.Text, Fallback: r.Fallback})
		if err := g.journal.Record(telemetry.JournalAdvisory, g.levelNum, g.tick, map[string]any{
			"request":    r.RequestID,
			"category":   string(r.Category),
			"text":       r.Text,
			"fallback":   r.Fallback,
			"latency_ms": r.Latency.Milliseconds(),
		}); err != nil {
			logJournalError(err)
		}
	}
	if d := g.advisor.Dropped(); d > g.advDropped {
		for i := g.advDropped; i < d; i++ {
			g.metrics.Advisory(telemetry.AdvisoryDropped)
		}
		g.advDropped = d
	}
}
