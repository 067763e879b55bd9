package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func quatNear(a, b quat.Number, eps float64) bool {
	// Quaternions double-cover rotations; compare up to sign.
	if a.Real*b.Real+a.Imag*b.Imag+a.Jmag*b.Jmag+a.Kmag*b.Kmag < 0 {
		b = quat.Scale(-1, b)
	}
	return math.Abs(a.Real-b.Real) < eps && math.Abs(a.Imag-b.Imag) < eps &&
		math.Abs(a.Jmag-b.Jmag) < eps && math.Abs(a.Kmag-b.Kmag) < eps
}

func TestMatQuatRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		axis  r3.Vec
		angle float64
	}{
		{"small z", r3.Vec{Z: 1}, 0.1},
		{"quarter x", r3.Vec{X: 1}, math.Pi / 2},
		{"near half turn", SafeUnit(r3.Vec{X: 1, Y: 1, Z: 1}), math.Pi - 0.01},
		{"negative", r3.Vec{Y: 1}, -2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatAxisAngle(tt.axis, tt.angle)
			got := MatToQuat(FromQuat(q))
			if !quatNear(got, q, 1e-9) {
				t.Errorf("roundtrip = %v, want %v", got, q)
			}
		})
	}
}

func TestSlerp(t *testing.T) {
	a := QuatIdentity()
	b := QuatAxisAngle(r3.Vec{Z: 1}, math.Pi/2)

	if got := Slerp(a, b, 0); !quatNear(got, a, 1e-9) {
		t.Errorf("t=0 gives %v, want %v", got, a)
	}
	if got := Slerp(a, b, 1); !quatNear(got, b, 1e-9) {
		t.Errorf("t=1 gives %v, want %v", got, b)
	}
	mid := Slerp(a, b, 0.5)
	want := QuatAxisAngle(r3.Vec{Z: 1}, math.Pi/4)
	if !quatNear(mid, want, 1e-9) {
		t.Errorf("t=0.5 gives %v, want %v", mid, want)
	}
}

func TestSlerpShortestPath(t *testing.T) {
	a := QuatAxisAngle(r3.Vec{Z: 1}, 0.1)
	b := quat.Scale(-1, QuatAxisAngle(r3.Vec{Z: 1}, 0.3))
	got := Slerp(a, b, 0.5)
	want := QuatAxisAngle(r3.Vec{Z: 1}, 0.2)
	if !quatNear(got, want, 1e-6) {
		t.Errorf("slerp took the long way: %v, want %v", got, want)
	}
}

func TestEulerRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		euler r3.Vec
	}{
		{"zero", r3.Vec{}},
		{"x only", r3.Vec{X: 0.5}},
		{"mixed", r3.Vec{X: 0.3, Y: -0.7, Z: 1.2}},
		{"negative", r3.Vec{X: -1.1, Y: 0.2, Z: -0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := EulerToQuat(tt.euler)
			got := QuatToEuler(q)
			if !vecNear(got, tt.euler, 1e-9) {
				t.Errorf("roundtrip = %v, want %v", got, tt.euler)
			}
		})
	}
}

func TestFrameFromYRoll(t *testing.T) {
	tests := []struct {
		name string
		y    r3.Vec
	}{
		{"along y", r3.Vec{Y: 1}},
		{"along x", r3.Vec{X: 1}},
		{"along -y", r3.Vec{Y: -1}},
		{"diagonal", SafeUnit(r3.Vec{X: 1, Y: 2, Z: -1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FrameFromYRoll(tt.y, 0)
			if !vecNear(SafeUnit(m.Y), SafeUnit(tt.y), 1e-9) {
				t.Errorf("Y axis = %v, want %v", m.Y, tt.y)
			}
			if math.Abs(m.Det()-1) > 1e-9 {
				t.Errorf("det = %v, want 1", m.Det())
			}
		})
	}

	// Roll spins about the Y axis without moving it.
	m := FrameFromYRoll(r3.Vec{Y: 1}, math.Pi/2)
	if !vecNear(m.Y, r3.Vec{Y: 1}, 1e-9) {
		t.Errorf("rolled Y axis moved: %v", m.Y)
	}
	if !vecNear(m.X, r3.Vec{Z: -1}, 1e-9) {
		t.Errorf("rolled X axis = %v, want -Z", m.X)
	}
}
