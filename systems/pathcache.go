package systems

import "github.com/pthm-cable/arena/components"

// PathKey is a quantized (start cell, end cell) pair.
type PathKey struct {
	SX, SY, EX, EY int
}

// PathCache memoizes search results with strict FIFO eviction: the oldest
// inserted key is evicted first, regardless of how often it is read.
type PathCache struct {
	max     int
	entries map[PathKey][]components.Position
	order   []PathKey // ring of insertion order
	head    int       // index of the oldest key in order
}

// NewPathCache creates a cache bounded to max entries.
func NewPathCache(max int) *PathCache {
	if max < 1 {
		max = 1
	}
	return &PathCache{
		max:     max,
		entries: make(map[PathKey][]components.Position, max),
		order:   make([]PathKey, 0, max),
	}
}

// Get returns a copy of the cached path.
func (c *PathCache) Get(k PathKey) ([]components.Position, bool) {
	path, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	return clonePath(path), true
}

// Put stores a path. Re-putting an existing key replaces the value but
// keeps its original insertion slot.
func (c *PathCache) Put(k PathKey, path []components.Position) {
	if _, ok := c.entries[k]; ok {
		c.entries[k] = clonePath(path)
		return
	}
	if len(c.order) < c.max {
		c.order = append(c.order, k)
	} else {
		delete(c.entries, c.order[c.head])
		c.order[c.head] = k
		c.head = (c.head + 1) % c.max
	}
	c.entries[k] = clonePath(path)
}

// Len returns the number of cached entries.
func (c *PathCache) Len() int { return len(c.entries) }

// Cap returns the configured maximum.
func (c *PathCache) Cap() int { return c.max }

// Oldest returns the key that the next insertion would evict.
func (c *PathCache) Oldest() (PathKey, bool) {
	if len(c.order) == 0 {
		return PathKey{}, false
	}
	if len(c.order) < c.max {
		return c.order[0], true
	}
	return c.order[c.head], true
}

// Clear drops every entry.
func (c *PathCache) Clear() {
	clear(c.entries)
	c.order = c.order[:0]
	c.head = 0
}

func clonePath(p []components.Position) []components.Position {
	if p == nil {
		return nil
	}
	out := make([]components.Position, len(p))
	copy(out, p)
	return out
}
