package procgen

import (
	"fmt"
	"sort"
)

// MapArchetype is a family of map layouts.
type MapArchetype uint8

const (
	MapCorridor MapArchetype = iota // linear corridor with alcoves
	MapArena                        // open arena with cover
	MapMaze                         // recursive-backtracking maze
	MapCompound                     // rooms joined by corridors
	MapRuins                        // arena with scattered partial walls
	NumMapArchetypes
)

var mapNames = [NumMapArchetypes]string{"corridor", "arena", "maze", "compound", "ruins"}

func (m MapArchetype) String() string {
	if m < NumMapArchetypes {
		return mapNames[m]
	}
	return "unknown"
}

// ParseMapArchetype maps a config key to an archetype.
func ParseMapArchetype(s string) (MapArchetype, error) {
	for i, n := range mapNames {
		if n == s {
			return MapArchetype(i), nil
		}
	}
	return 0, fmt.Errorf("%w: map %q", ErrInvalidArchetype, s)
}

// mapBuilder carves a layout into g and returns the player spawn cell.
type mapBuilder func(g *Grid, ch *Chooser) Cell

var mapBuilders = [NumMapArchetypes]mapBuilder{
	MapCorridor: buildCorridor,
	MapArena:    buildArena,
	MapMaze:     buildMaze,
	MapCompound: buildCompound,
	MapRuins:    buildRuins,
}

// buildOpenArena is the fallback layout: border walls and nothing else.
func buildOpenArena(g *Grid, _ *Chooser) Cell {
	g.Fill(TileFloor)
	g.Border()
	return Cell{2, g.Height() / 2}
}

func buildArena(g *Grid, ch *Chooser) Cell {
	spawn := buildOpenArena(g, ch)
	w, h := g.Width(), g.Height()

	n := w * h / 80
	for i := 0; i < n; i++ {
		cw, chh := ch.Between(1, 2), ch.Between(1, 2)
		x := ch.Between(3, w-4-cw)
		y := ch.Between(2, h-3-chh)
		if near(Cell{x, y}, spawn, 3) {
			continue
		}
		g.Rect(x, y, x+cw-1, y+chh-1, TileCover)
	}
	return spawn
}

func buildCorridor(g *Grid, ch *Chooser) Cell {
	g.Fill(TileWall)
	w, h := g.Width(), g.Height()

	band := h * 2 / 5
	if band < 5 {
		band = 5
	}
	half := band / 2
	lo, hi := 1+half, h-2-half
	if hi < lo {
		lo, hi = h/2, h/2
	}

	centers := make([]int, w)
	c := h / 2
	for x := 1; x < w-1; x++ {
		if x%4 == 0 {
			c += ch.Between(-1, 1)
			c = max(lo, min(hi, c))
		}
		centers[x] = c
		g.Rect(x, c-half, x, c+half, TileFloor)
	}

	// Alcoves off either side of the band.
	for x := 4; x < w-6; x += ch.Between(5, 7) {
		if !ch.Chance(0.6) {
			continue
		}
		aw, ah := ch.Between(3, 5), ch.Between(3, 4)
		if ch.Chance(0.5) {
			top := centers[x] - half
			g.Rect(x, max(1, top-ah), min(w-2, x+aw-1), top, TileFloor)
		} else {
			bottom := centers[x] + half
			g.Rect(x, bottom, min(w-2, x+aw-1), min(h-2, bottom+ah), TileFloor)
		}
	}

	// Pillars down the middle.
	for x := 6; x < w-2; x += 7 {
		if ch.Chance(0.7) {
			g.Set(x, centers[x]+ch.Between(-1, 1), TileCover)
		}
	}
	return Cell{1, centers[1]}
}

func buildMaze(g *Grid, ch *Chooser) Cell {
	g.Fill(TileWall)
	cw, chh := (g.Width()-1)/2, (g.Height()-1)/2
	if cw < 1 || chh < 1 {
		return Cell{-1, -1}
	}

	visited := make([]bool, cw*chh)
	visited[0] = true
	g.Set(1, 1, TileFloor)
	stack := []Cell{{0, 0}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		var open [4]Cell
		n := 0
		for _, d := range neighbors4 {
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if nx < 0 || nx >= cw || ny < 0 || ny >= chh || visited[ny*cw+nx] {
				continue
			}
			open[n] = Cell{nx, ny}
			n++
		}
		if n == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		next := open[ch.Intn(n)]
		visited[next.Y*cw+next.X] = true
		g.Set(2*cur.X+1+(next.X-cur.X), 2*cur.Y+1+(next.Y-cur.Y), TileFloor)
		g.Set(2*next.X+1, 2*next.Y+1, TileFloor)
		stack = append(stack, next)
	}

	// Knock out some walls so the maze has loops.
	loops := cw * chh / 10
	for i := 0; i < loops*6 && loops > 0; i++ {
		x, y := ch.Between(1, g.Width()-2), ch.Between(1, g.Height()-2)
		if g.At(x, y) != TileWall {
			continue
		}
		horiz := g.IsWalkable(x-1, y) && g.IsWalkable(x+1, y) && !g.IsWalkable(x, y-1) && !g.IsWalkable(x, y+1)
		vert := g.IsWalkable(x, y-1) && g.IsWalkable(x, y+1) && !g.IsWalkable(x-1, y) && !g.IsWalkable(x+1, y)
		if horiz || vert {
			g.Set(x, y, TileFloor)
			loops--
		}
	}
	return Cell{1, 1}
}

type room struct {
	x0, y0, x1, y1 int
}

func (r room) center() Cell { return Cell{(r.x0 + r.x1) / 2, (r.y0 + r.y1) / 2} }

func (r room) overlaps(o room, gap int) bool {
	return r.x0-gap <= o.x1 && o.x0-gap <= r.x1 && r.y0-gap <= o.y1 && o.y0-gap <= r.y1
}

func buildCompound(g *Grid, ch *Chooser) Cell {
	g.Fill(TileWall)
	w, h := g.Width(), g.Height()

	var rooms []room
	target := ch.Between(6, 10)
	for attempt := 0; attempt < 80 && len(rooms) < target; attempt++ {
		rw, rh := ch.Between(5, 10), ch.Between(4, 7)
		if rw > w-2 || rh > h-2 {
			continue
		}
		x, y := ch.Between(1, w-1-rw), ch.Between(1, h-1-rh)
		r := room{x, y, x + rw - 1, y + rh - 1}
		clash := false
		for _, o := range rooms {
			if r.overlaps(o, 1) {
				clash = true
				break
			}
		}
		if !clash {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) == 0 {
		return Cell{-1, -1}
	}

	for _, r := range rooms {
		g.Rect(r.x0, r.y0, r.x1, r.y1, TileFloor)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].center().X < rooms[j].center().X })

	for i := 1; i < len(rooms); i++ {
		a, b := rooms[i-1].center(), rooms[i].center()
		if ch.Chance(0.5) {
			g.Rect(a.X, a.Y, b.X, a.Y+1, TileFloor)
			g.Rect(b.X, a.Y, b.X+1, b.Y, TileFloor)
		} else {
			g.Rect(a.X, a.Y, a.X+1, b.Y, TileFloor)
			g.Rect(a.X, b.Y, b.X, b.Y+1, TileFloor)
		}
	}

	// Crates in the corners of the larger rooms.
	for _, r := range rooms {
		if r.x1-r.x0 >= 6 && r.y1-r.y0 >= 5 {
			g.Set(r.x0+1, r.y0+1, TileCover)
			g.Set(r.x1-1, r.y1-1, TileCover)
		}
	}
	return rooms[0].center()
}

func buildRuins(g *Grid, ch *Chooser) Cell {
	spawn := buildOpenArena(g, ch)
	w, h := g.Width(), g.Height()
	noise := newPerlin(ch)

	segments := w * h / 40
	placed := 0
	for attempt := 0; attempt < segments*10 && placed < segments; attempt++ {
		x, y := ch.Between(2, w-3), ch.Between(2, h-3)
		// Walls cluster where the noise is high.
		if !ch.Chance(noise.Unit(float64(x)*0.15, float64(y)*0.15)) {
			continue
		}
		length := ch.Between(2, 5)
		horiz := ch.Chance(0.5)
		for i := 0; i < length; i++ {
			cx, cy := x, y
			if horiz {
				cx += i
			} else {
				cy += i
			}
			if cx > w-2 || cy > h-2 || near(Cell{cx, cy}, spawn, 2) {
				break
			}
			if ch.Chance(0.2) {
				continue // crumbled gap
			}
			g.Set(cx, cy, TileWall)
		}
		if ch.Chance(0.5) {
			rx, ry := x+ch.Between(-1, 1), y+ch.Between(-1, 1)
			if g.IsWalkable(rx, ry) && !near(Cell{rx, ry}, spawn, 2) && rx > 0 && ry > 0 && rx < w-1 && ry < h-1 {
				g.Set(rx, ry, TileCover)
			}
		}
		placed++
	}
	return spawn
}

func near(a, b Cell, r int) bool {
	return abs(a.X-b.X) <= r && abs(a.Y-b.Y) <= r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
