package collide

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
)

// Plane is an infinite half-space collider. Points behind the plane are
// projected onto its surface along the normal.
type Plane struct {
	Point  r3.Vec
	Normal r3.Vec
}

// PlaneFromObject derives a plane from an object transform: the plane
// passes through the object's origin with the object's local Z as normal.
// Returns false when the axis is degenerate.
func PlaneFromObject(m geom.Transform) (Plane, bool) {
	n := m.Z
	if r3.Norm(n) == 0 {
		return Plane{}, false
	}
	return Plane{Point: m.T, Normal: geom.SafeUnit(n)}, true
}

// Resolve projects p onto the plane if it lies behind it.
func (pl Plane) Resolve(p r3.Vec) r3.Vec {
	dist := r3.Dot(r3.Sub(p, pl.Point), pl.Normal)
	if dist < 0 {
		return r3.Sub(p, r3.Scale(dist, pl.Normal))
	}
	return p
}
