package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// QuatIdentity returns the identity rotation.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// QuatNormalize returns q scaled to unit length. A near-zero quaternion
// yields the identity.
func QuatNormalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < Epsilon {
		return QuatIdentity()
	}
	return quat.Scale(1/n, q)
}

// QuatAxisAngle returns the rotation of angle radians about a unit axis.
func QuatAxisAngle(axis r3.Vec, angle float64) quat.Number {
	s := math.Sin(angle / 2)
	return quat.Number{
		Real: math.Cos(angle / 2),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}
}

// Slerp interpolates between two unit quaternions along the shortest path.
func Slerp(a, b quat.Number, t float64) quat.Number {
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	dot = Clamp(dot, -1, 1)
	if dot > 0.9995 {
		// Nearly parallel, fall back to normalized lerp.
		return QuatNormalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// FromQuat builds a rotation transform from a unit quaternion.
func FromQuat(q quat.Number) Transform {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return Transform{
		X: r3.Vec{X: 1 - 2*(y*y+z*z), Y: 2 * (x*y + w*z), Z: 2 * (x*z - w*y)},
		Y: r3.Vec{X: 2 * (x*y - w*z), Y: 1 - 2*(x*x+z*z), Z: 2 * (y*z + w*x)},
		Z: r3.Vec{X: 2 * (x*z + w*y), Y: 2 * (y*z - w*x), Z: 1 - 2*(x*x+y*y)},
	}
}

// MatToQuat extracts a unit quaternion from an orthonormal basis.
func MatToQuat(m Transform) quat.Number {
	m00, m01, m02 := m.X.X, m.Y.X, m.Z.X
	m10, m11, m12 := m.X.Y, m.Y.Y, m.Z.Y
	m20, m21, m22 := m.X.Z, m.Y.Z, m.Z.Z

	tr := m00 + m11 + m22
	var q quat.Number
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{
			Real: 0.25 * s,
			Imag: (m21 - m12) / s,
			Jmag: (m02 - m20) / s,
			Kmag: (m10 - m01) / s,
		}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{
			Real: (m21 - m12) / s,
			Imag: 0.25 * s,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: 0.25 * s,
			Kmag: (m12 + m21) / s,
		}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: 0.25 * s,
		}
	}
	return QuatNormalize(q)
}

// EulerToQuat converts XYZ euler angles (radians, X applied first) to a
// quaternion.
func EulerToQuat(e r3.Vec) quat.Number {
	qx := QuatAxisAngle(r3.Vec{X: 1}, e.X)
	qy := QuatAxisAngle(r3.Vec{Y: 1}, e.Y)
	qz := QuatAxisAngle(r3.Vec{Z: 1}, e.Z)
	return QuatNormalize(quat.Mul(qz, quat.Mul(qy, qx)))
}

// QuatToEuler converts a unit quaternion to XYZ euler angles (radians).
func QuatToEuler(q quat.Number) r3.Vec {
	m := FromQuat(q)
	// R = Rz*Ry*Rx: row 2 column 0 is -sin(y).
	m20 := m.X.Z
	m21 := m.Y.Z
	m22 := m.Z.Z
	m10 := m.X.Y
	m00 := m.X.X

	sy := Clamp(-m20, -1, 1)
	y := math.Asin(sy)
	var x, z float64
	if math.Abs(sy) < 0.9999999 {
		x = math.Atan2(m21, m22)
		z = math.Atan2(m10, m00)
	} else {
		// Gimbal lock: fold the roll into x.
		x = math.Atan2(-m.Z.Y, m.Y.Y)
		z = 0
	}
	return r3.Vec{X: x, Y: y, Z: z}
}

// FrameFromYRoll builds a rotation whose Y axis points along y, rolled by
// roll radians about that axis. A degenerate y yields the identity.
func FrameFromYRoll(y r3.Vec, roll float64) Transform {
	yu := SafeUnit(y)
	if r3.Norm(yu) < Epsilon {
		return Identity()
	}
	up := r3.Vec{Y: 1}
	dot := Clamp(r3.Dot(up, yu), -1, 1)
	axis := r3.Cross(up, yu)
	var align quat.Number
	if r3.Norm(axis) > AxisThreshold {
		align = QuatAxisAngle(SafeUnit(axis), math.Acos(dot))
	} else if dot > 0 {
		align = QuatIdentity()
	} else {
		// Antiparallel: rotate half a turn about X.
		align = QuatAxisAngle(r3.Vec{X: 1}, math.Pi)
	}
	q := align
	if roll != 0 {
		q = quat.Mul(QuatAxisAngle(yu, roll), align)
	}
	return FromQuat(QuatNormalize(q))
}
