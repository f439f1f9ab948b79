// Package systems provides the per-tick simulation systems: pathfinding,
// behavior trees, agent communication and strategic coordination.
package systems

import (
	"github.com/pthm-cable/arena/components"
)

// Neighbor holds a nearby agent with precomputed spatial data.
type Neighbor struct {
	Agent  *components.Agent
	DX, DY float32 // delta from query origin
	DistSq float32 // Squared distance (avoid sqrt in hot path)
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid.
// It is rebuilt from the live agent list once per AI tick.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]*components.Agent
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]*components.Agent, cols*rows)
	for i := range cells {
		cells[i] = make([]*components.Agent, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all agents from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Rebuild clears the grid and inserts every live agent.
func (g *SpatialGrid) Rebuild(agents []*components.Agent) {
	g.Clear()
	for _, a := range agents {
		if a.Alive() {
			g.Insert(a)
		}
	}
}

// Insert adds an agent to the grid at its position.
func (g *SpatialGrid) Insert(a *components.Agent) {
	idx := g.cellIndex(a.Pos.X, a.Pos.Y)
	g.cells[idx] = append(g.cells[idx], a)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// QueryRadiusInto finds agents within radius and appends to dst (up to MaxQueryResults).
// Returns the updated slice. Reuse dst across calls to avoid allocations.
// An exclude of 0 excludes nothing; agent ids start at 1.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, pos components.Position, radius float32, exclude uint32) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1

	centerCol := int(pos.X / g.cellSize)
	centerRow := int(pos.Y / g.cellSize)

	radiusSq := radius * radius

	for dr := -cellRadius; dr <= cellRadius; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}
			for _, a := range g.cells[row*g.cols+col] {
				if a.ID == exclude {
					continue
				}
				dx := a.Pos.X - pos.X
				dy := a.Pos.Y - pos.Y
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{Agent: a, DX: dx, DY: dy, DistSq: distSq})
					// Early exit if we hit the cap
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// CountWithin returns the number of agents within radius of pos.
func (g *SpatialGrid) CountWithin(pos components.Position, radius float32) int {
	var buf [MaxQueryResults]Neighbor
	return len(g.QueryRadiusInto(buf[:0], pos, radius, 0))
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float32) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
