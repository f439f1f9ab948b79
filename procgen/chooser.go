package procgen

import (
	"math"
	"math/rand"
	"sort"
)

// Chooser is the single source of randomness for level generation. Every
// randomized decision goes through it, so a seed fully determines a level.
type Chooser struct {
	rng *rand.Rand
}

// NewChooser creates a chooser seeded with seed.
func NewChooser(seed int64) *Chooser {
	return &Chooser{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns an index with probability proportional to its weight.
// Negative and NaN weights count as zero. Returns -1 when no weight is positive.
func (c *Chooser) Pick(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 || math.IsInf(total, 0) {
		return -1
	}
	r := c.rng.Float64() * total
	last := -1
	for i, w := range weights {
		if !(w > 0) {
			continue
		}
		last = i
		if r < w {
			return i
		}
		r -= w
	}
	// Rounding left r marginally above the final weight.
	return last
}

// PickKey picks a map key by weight. Keys are visited in sorted order so the
// result depends only on the seed and the weights.
func (c *Chooser) PickKey(weights map[string]float64) (string, bool) {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ws := make([]float64, len(keys))
	for i, k := range keys {
		ws[i] = weights[k]
	}
	i := c.Pick(ws)
	if i < 0 {
		return "", false
	}
	return keys[i], true
}

// Intn returns a uniform index in [0,n). Returns 0 when n <= 0.
func (c *Chooser) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return c.rng.Intn(n)
}

// Between returns a uniform integer in [lo,hi].
func (c *Chooser) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Intn(hi-lo+1)
}

// Float64 returns a uniform value in [0,1).
func (c *Chooser) Float64() float64 {
	return c.rng.Float64()
}

// Range returns a uniform value in [lo,hi).
func (c *Chooser) Range(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func (c *Chooser) Chance(p float64) bool {
	return c.rng.Float64() < p
}

// Shuffle permutes n elements via swap.
func (c *Chooser) Shuffle(n int, swap func(i, j int)) {
	c.rng.Shuffle(n, swap)
}

// Seed derives a child seed, used to give sub-generators independent streams.
func (c *Chooser) Seed() int64 {
	return c.rng.Int63()
}
