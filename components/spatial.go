package components

import "math"

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity.
type Velocity struct {
	X, Y float32
}

// Add returns p translated by (dx, dy).
func (p Position) Add(dx, dy float32) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Sub returns the delta from o to p.
func (p Position) Sub(o Position) (dx, dy float32) {
	return p.X - o.X, p.Y - o.Y
}

// DistSq returns the squared distance between two points.
func (p Position) DistSq(o Position) float32 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Dist returns the Euclidean distance between two points.
func (p Position) Dist(o Position) float32 {
	return float32(math.Sqrt(float64(p.DistSq(o))))
}

// Lerp interpolates from p toward o by t.
func (p Position) Lerp(o Position, t float32) Position {
	return Position{X: p.X + (o.X-p.X)*t, Y: p.Y + (o.Y-p.Y)*t}
}

// Toward returns the point dist units from p in the direction of o.
// If o coincides with p, p is returned.
func (p Position) Toward(o Position, dist float32) Position {
	dx, dy := o.Sub(p)
	l := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if l < 1e-6 {
		return p
	}
	return Position{X: p.X + dx/l*dist, Y: p.Y + dy/l*dist}
}

// Polar returns the point at the given angle (radians) and distance from p.
func (p Position) Polar(angle, dist float32) Position {
	return Position{
		X: p.X + float32(math.Cos(float64(angle)))*dist,
		Y: p.Y + float32(math.Sin(float64(angle)))*dist,
	}
}

// AngleTo returns the heading from p to o in radians.
func (p Position) AngleTo(o Position) float32 {
	return float32(math.Atan2(float64(o.Y-p.Y), float64(o.X-p.X)))
}

// Speed returns the velocity magnitude.
func (v Velocity) Speed() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}
