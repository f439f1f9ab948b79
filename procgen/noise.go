package procgen

import "math"

// perlin is 2D gradient noise used to bias ruin placement.
type perlin struct {
	perm [512]int
}

// newPerlin builds a permutation table from the chooser's stream.
func newPerlin(ch *Chooser) *perlin {
	p := &perlin{}
	var base [256]int
	for i := range base {
		base[i] = i
	}
	ch.Shuffle(len(base), func(i, j int) { base[i], base[j] = base[j], base[i] })
	for i := 0; i < 256; i++ {
		p.perm[i] = base[i]
		p.perm[i+256] = base[i]
	}
	return p
}

// At returns noise in roughly [-1,1].
func (p *perlin) At(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)
	u, v := fade(x), fade(y)

	aa := p.perm[p.perm[xi]+yi]
	ab := p.perm[p.perm[xi]+yi+1]
	ba := p.perm[p.perm[xi+1]+yi]
	bb := p.perm[p.perm[xi+1]+yi+1]

	return lerp(v,
		lerp(u, grad(aa, x, y), grad(ba, x-1, y)),
		lerp(u, grad(ab, x, y-1), grad(bb, x-1, y-1)))
}

// Unit maps At into [0,1].
func (p *perlin) Unit(x, y float64) float64 {
	n := (p.At(x, y) + 1) / 2
	return math.Max(0, math.Min(1, n))
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}
