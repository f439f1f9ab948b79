package game

import (
	"context"
	"log/slog"
	"time"
)

// Run drives the game in real time until ctx is cancelled or the session
// ends. Ticks are fixed; after a slow frame up to MaxFrameSkip ticks run to
// catch up and any remaining backlog is dropped.
func (g *Game) Run(ctx context.Context, src InputSource) error {
	dt := time.Duration(g.cfg.Sim.DT * float64(time.Second))
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	last := g.now()
	var acc time.Duration
	for !g.done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		now := g.now()
		acc += now.Sub(last)
		last = now
		g.RecordFrame()

		steps := 0
		for acc >= dt && steps < g.cfg.Sim.MaxFrameSkip && !g.done {
			g.Step(src.Next(g))
			acc -= dt
			steps++
		}
		if acc >= dt {
			slog.Debug("frame skip limit reached", "tick", g.tick, "dropped", acc/dt)
			acc = 0
		}
	}
	return nil
}

// RunHeadless steps as fast as possible until the session ends or maxTicks
// ticks have run (0 = unlimited). It returns the number of ticks run.
func (g *Game) RunHeadless(ctx context.Context, src InputSource, maxTicks int64) (int64, error) {
	start := g.tick
	for !g.done {
		ran := g.tick - start
		if maxTicks > 0 && ran >= maxTicks {
			break
		}
		if ran%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return ran, err
			}
		}
		g.RecordFrame()
		g.Step(src.Next(g))
	}
	return g.tick - start, nil
}
