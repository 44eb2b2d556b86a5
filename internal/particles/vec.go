package particles

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float64
}

// V2 is shorthand for Vec2{x, y}.
func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns the unit vector of v, zero-safe.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	inv := 1.0 / l
	return Vec2{v.X * inv, v.Y * inv}
}

// Distance returns |a - b|.
func Distance(a, b Vec2) float64 {
	return a.Sub(b).Length()
}

// Mix linearly interpolates between a and b by t.
func Mix(a, b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

func mixf(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CalcPos evaluates a projectile's parametric trajectory at time t (seconds
// since launch). Curvature bends the path downward; speed scales time.
func CalcPos(pos, vel Vec2, curvature, speed, t float64) Vec2 {
	t *= speed
	return Vec2{
		X: pos.X + vel.X*t,
		Y: pos.Y + vel.Y*t + curvature/10000*(t*t),
	}
}
