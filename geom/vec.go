// Package geom provides the vector, quaternion and affine transform
// primitives used by the spring simulation.
package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Epsilon is the tolerance for degenerate-geometry checks.
	Epsilon = 1e-6
	// AxisThreshold is the minimum length for a rotation axis to be usable.
	AxisThreshold = 1e-4
)

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeUnit returns the unit vector of v, or the zero vector when v is
// shorter than Epsilon. Callers substitute a fallback axis.
func SafeUnit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// ClosestPointOnSegment returns the point on segment [a, b] closest to p.
// A zero-length segment yields a.
func ClosestPointOnSegment(p, a, b r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	lenSq := r3.Norm2(ab)
	if lenSq == 0 {
		return a
	}
	t := Clamp(r3.Dot(r3.Sub(p, a), ab)/lenSq, 0, 1)
	return r3.Add(a, r3.Scale(t, ab))
}
