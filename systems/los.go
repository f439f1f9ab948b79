package systems

import (
	"math"

	"github.com/pthm-cable/arena/components"
)

// marchRay steps from a to b in half-cell increments and calls visit for
// each sampled cell, in order, until visit returns false. Both endpoints
// are sampled.
func marchRay(grid *NavGrid, a, b components.Position, visit func(gx, gy int) bool) (stoppedAt components.Position, stopped bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))

	if dist < 0.01 {
		gx, gy := grid.WorldToGrid(a.X, a.Y)
		if !visit(gx, gy) {
			return a, true
		}
		return components.Position{}, false
	}

	stepSize := grid.cellSize * 0.5
	steps := int(dist / stepSize)

	dx /= dist
	dy /= dist

	lastGX, lastGY := math.MinInt, math.MinInt
	for i := 0; i <= steps+1; i++ {
		t := float32(i) * stepSize
		if i == steps+1 || t > dist {
			t = dist
		}
		p := components.Position{X: a.X + dx*t, Y: a.Y + dy*t}
		gx, gy := grid.WorldToGrid(p.X, p.Y)
		if gx == lastGX && gy == lastGY {
			continue
		}
		lastGX, lastGY = gx, gy
		if !visit(gx, gy) {
			return p, true
		}
	}
	return components.Position{}, false
}

// LineOfSight reports whether b is visible from a. When the ray is
// obstructed it also returns the sampled point inside the first opaque cell.
// Cells that only block movement (low cover) do not obstruct sight.
func LineOfSight(grid *NavGrid, a, b components.Position) (clear bool, blockedAt components.Position) {
	at, stopped := marchRay(grid, a, b, func(gx, gy int) bool {
		return !grid.BlocksSight(gx, gy)
	})
	return !stopped, at
}
