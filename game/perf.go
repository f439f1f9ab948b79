package game

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// adjustAIInterval collects the measured frame rate and, once a window is
// full, moves the AI interval one step: up when the mean is under the low
// water mark, down when it is over the high one.
func (g *Game) adjustAIInterval() {
	fps := g.perf.FPS()
	if fps <= 0 {
		return
	}
	g.fpsWindow = append(g.fpsWindow, fps)
	sc := &g.cfg.Sim
	if len(g.fpsWindow) < sc.FPSWindow {
		return
	}
	mean := stat.Mean(g.fpsWindow, nil)
	g.fpsWindow = g.fpsWindow[:0]
	g.reportPathCache()

	next := g.aiInterval
	switch {
	case mean < sc.FPSLowWater && next < sc.AIIntervalMax:
		next++
	case mean > sc.FPSHighWater && next > sc.AIIntervalMin:
		next--
	}
	if next == g.aiInterval {
		return
	}
	slog.Debug("ai interval adjusted", "from", g.aiInterval, "to", next, "fps", mean, "tick", g.tick)
	g.aiInterval = next
	g.metrics.SetAIInterval(next)
}

// RecordFrame marks a rendered frame for frame-rate measurement. Run calls
// it once per loop iteration; headless drivers call it once per step.
func (g *Game) RecordFrame() {
	g.perf.RecordFrame()
}
