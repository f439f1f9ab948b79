package procgen

var neighbors4 = [4]Cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Reach is the walkable region connected to an origin, with BFS step
// distances.
type Reach struct {
	w, h   int
	origin Cell
	dist   []int32 // -1 = unreachable
	cells  []Cell  // BFS order
}

// FloodFill computes the 4-connected walkable region around origin.
func FloodFill(g *Grid, origin Cell) *Reach {
	r := &Reach{w: g.Width(), h: g.Height(), origin: origin, dist: make([]int32, g.Width()*g.Height())}
	for i := range r.dist {
		r.dist[i] = -1
	}
	if !g.IsWalkable(origin.X, origin.Y) {
		return r
	}
	r.dist[origin.Y*r.w+origin.X] = 0
	r.cells = append(r.cells, origin)
	for head := 0; head < len(r.cells); head++ {
		c := r.cells[head]
		d := r.dist[c.Y*r.w+c.X]
		for _, n := range neighbors4 {
			x, y := c.X+n.X, c.Y+n.Y
			if !g.IsWalkable(x, y) || r.dist[y*r.w+x] >= 0 {
				continue
			}
			r.dist[y*r.w+x] = d + 1
			r.cells = append(r.cells, Cell{x, y})
		}
	}
	return r
}

// Reachable reports whether c is connected to the origin.
func (r *Reach) Reachable(c Cell) bool {
	if c.X < 0 || c.X >= r.w || c.Y < 0 || c.Y >= r.h {
		return false
	}
	return r.dist[c.Y*r.w+c.X] >= 0
}

// Steps returns the walking distance from the origin, or -1.
func (r *Reach) Steps(c Cell) int {
	if !r.Reachable(c) {
		return -1
	}
	return int(r.dist[c.Y*r.w+c.X])
}

// Len is the number of reachable cells.
func (r *Reach) Len() int { return len(r.cells) }

// Cells returns reachable cells in BFS order.
func (r *Reach) Cells() []Cell { return r.cells }

// Farthest returns the reachable cell with the largest step distance.
func (r *Reach) Farthest() Cell {
	if len(r.cells) == 0 {
		return r.origin
	}
	return r.cells[len(r.cells)-1]
}

// sealPockets walls off floor cells not connected to origin. Returns how
// many cells were sealed.
func sealPockets(g *Grid, origin Cell) int {
	r := FloodFill(g, origin)
	sealed := 0
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.IsWalkable(x, y) && !r.Reachable(Cell{x, y}) {
				g.Set(x, y, TileWall)
				sealed++
			}
		}
	}
	return sealed
}

// placer hands out distinct reachable cells.
type placer struct {
	ch       *Chooser
	reach    *Reach
	used     map[Cell]bool
	attempts int
}

func newPlacer(ch *Chooser, reach *Reach, attempts int) *placer {
	used := map[Cell]bool{reach.origin: true}
	return &placer{ch: ch, reach: reach, used: used, attempts: attempts}
}

// place draws random reachable cells until one is unused and at least
// minSteps from the origin. After the attempt budget it returns the fallback
// cell and ok=false.
func (p *placer) place(minSteps int) (Cell, bool) {
	cells := p.reach.Cells()
	if len(cells) == 0 {
		return p.reach.origin, false
	}
	for i := 0; i < p.attempts; i++ {
		c := cells[p.ch.Intn(len(cells))]
		if p.used[c] || p.reach.Steps(c) < minSteps {
			continue
		}
		p.used[c] = true
		return c, true
	}
	c := p.fallback()
	p.used[c] = true
	return c, false
}

// fallback scans from the far end of the region for the first unused cell.
// The far end keeps fallbacks away from the spawn; the region itself is
// always reachable.
func (p *placer) fallback() Cell {
	cells := p.reach.Cells()
	for i := len(cells) - 1; i >= 0; i-- {
		if !p.used[cells[i]] {
			return cells[i]
		}
	}
	return p.reach.Farthest()
}
