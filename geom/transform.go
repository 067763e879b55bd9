package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an affine 3D transform stored as three basis columns and an
// origin. The columns may carry scale; use Decompose to separate it out.
type Transform struct {
	X, Y, Z r3.Vec // basis columns
	T       r3.Vec // origin
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		X: r3.Vec{X: 1},
		Y: r3.Vec{Y: 1},
		Z: r3.Vec{Z: 1},
	}
}

// Translation returns a pure translation transform.
func Translation(t r3.Vec) Transform {
	m := Identity()
	m.T = t
	return m
}

// ScaleDiag returns a transform scaling each axis independently.
func ScaleDiag(s r3.Vec) Transform {
	return Transform{
		X: r3.Vec{X: s.X},
		Y: r3.Vec{Y: s.Y},
		Z: r3.Vec{Z: s.Z},
	}
}

// AxisAngle returns the rotation of angle radians about the given unit axis.
func AxisAngle(angle float64, axis r3.Vec) Transform {
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	return Transform{
		X: r3.Vec{X: t*x*x + c, Y: t*x*y + s*z, Z: t*x*z - s*y},
		Y: r3.Vec{X: t*x*y - s*z, Y: t*y*y + c, Z: t*y*z + s*x},
		Z: r3.Vec{X: t*x*z + s*y, Y: t*y*z - s*x, Z: t*z*z + c},
	}
}

// ApplyDir transforms a direction vector, ignoring translation.
func (m Transform) ApplyDir(v r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(v.X, m.X), r3.Scale(v.Y, m.Y)), r3.Scale(v.Z, m.Z))
}

// ApplyPoint transforms a point.
func (m Transform) ApplyPoint(p r3.Vec) r3.Vec {
	return r3.Add(m.ApplyDir(p), m.T)
}

// Mul composes two transforms: the result applies n first, then m.
func (m Transform) Mul(n Transform) Transform {
	return Transform{
		X: m.ApplyDir(n.X),
		Y: m.ApplyDir(n.Y),
		Z: m.ApplyDir(n.Z),
		T: m.ApplyPoint(n.T),
	}
}

// Det returns the determinant of the basis.
func (m Transform) Det() float64 {
	return r3.Dot(m.X, r3.Cross(m.Y, m.Z))
}

// Inv returns the inverse transform. A near-singular basis falls back to
// the identity basis so degenerate input never produces NaN.
func (m Transform) Inv() Transform {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		out := Identity()
		out.T = r3.Scale(-1, m.T)
		return out
	}
	inv := 1 / det
	// Rows of the inverse basis are scaled cross products of columns.
	rx := r3.Scale(inv, r3.Cross(m.Y, m.Z))
	ry := r3.Scale(inv, r3.Cross(m.Z, m.X))
	rz := r3.Scale(inv, r3.Cross(m.X, m.Y))
	out := Transform{
		X: r3.Vec{X: rx.X, Y: ry.X, Z: rz.X},
		Y: r3.Vec{X: rx.Y, Y: ry.Y, Z: rz.Y},
		Z: r3.Vec{X: rx.Z, Y: ry.Z, Z: rz.Z},
	}
	out.T = r3.Scale(-1, out.ApplyDir(m.T))
	return out
}

// Decompose splits the transform into translation, rotation and scale.
// Negative determinants put the sign on the Z scale.
func (m Transform) Decompose() (loc r3.Vec, rot quat.Number, scale r3.Vec) {
	loc = m.T
	scale = r3.Vec{X: r3.Norm(m.X), Y: r3.Norm(m.Y), Z: r3.Norm(m.Z)}
	if m.Det() < 0 {
		scale.Z = -scale.Z
	}
	basis := Identity()
	if scale.X > Epsilon {
		basis.X = r3.Scale(1/scale.X, m.X)
	}
	if scale.Y > Epsilon {
		basis.Y = r3.Scale(1/scale.Y, m.Y)
	}
	if math.Abs(scale.Z) > Epsilon {
		basis.Z = r3.Scale(1/scale.Z, m.Z)
	}
	rot = MatToQuat(basis)
	return loc, rot, scale
}

// ComposeTRS rebuilds a transform from translation, rotation and scale.
func ComposeTRS(loc r3.Vec, rot quat.Number, scale r3.Vec) Transform {
	m := FromQuat(rot)
	m.X = r3.Scale(scale.X, m.X)
	m.Y = r3.Scale(scale.Y, m.Y)
	m.Z = r3.Scale(scale.Z, m.Z)
	m.T = loc
	return m
}

// RotatedBy applies a rotation to the transform while preserving its
// translation and scale: T * rot * R * S.
func (m Transform) RotatedBy(rot Transform) Transform {
	loc, r, s := m.Decompose()
	return Translation(loc).Mul(rot).Mul(FromQuat(r)).Mul(ScaleDiag(s))
}
