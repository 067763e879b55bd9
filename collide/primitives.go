package collide

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

// Primitive is one resolved collider volume: a sphere, box or
// capsule-cylinder in the collider object's local frame, inflated by a
// margin.
type Primitive struct {
	Name      string
	Shape     scene.CollisionShape
	Transform geom.Transform
	Dims      r3.Vec
	Margin    float64
}

// Advisory reports a collider that could not participate in the run.
// Advisories never abort a bake.
type Advisory struct {
	Name   string
	Reason string
}

// BuildPrimitives converts candidate colliders into resolvable
// primitives. Objects without a physics representation are skipped with
// an advisory, or registered as box colliders when autoRegister is set.
// Convex hull and mesh shapes degrade to their bounding box.
func BuildPrimitives(cols []scene.Collider, autoRegister bool) (prims []Primitive, skipped []Advisory, registered []string) {
	for _, c := range cols {
		shape := c.Shape
		if !c.HasPhysics {
			if !autoRegister {
				skipped = append(skipped, Advisory{Name: c.Name, Reason: "no rigid body or collision"})
				continue
			}
			shape = scene.ShapeBox
			registered = append(registered, c.Name)
		}
		if shape == scene.ShapeNone {
			skipped = append(skipped, Advisory{Name: c.Name, Reason: "no collision shape"})
			continue
		}
		if shape == scene.ShapeConvexHull || shape == scene.ShapeMesh {
			shape = scene.ShapeBox
		}
		prims = append(prims, Primitive{
			Name:      c.Name,
			Shape:     shape,
			Transform: c.Transform,
			Dims:      c.Dims,
			Margin:    c.Margin,
		})
	}
	return prims, skipped, registered
}

// ResolvePrimitives pushes p out of every primitive in order.
func ResolvePrimitives(p r3.Vec, prims []Primitive) r3.Vec {
	corrected := p
	for _, pr := range prims {
		switch pr.Shape {
		case scene.ShapeSphere:
			corrected = collideSphere(corrected, pr)
		case scene.ShapeCapsule, scene.ShapeCylinder:
			corrected = collideCapsule(corrected, pr)
		default:
			corrected = collideBox(corrected, pr)
		}
	}
	return corrected
}

func collideSphere(p r3.Vec, pr Primitive) r3.Vec {
	center := pr.Transform.T
	radius := maxComponent(pr.Dims)*0.5 + pr.Margin
	if radius <= 0 {
		return p
	}
	delta := r3.Sub(p, center)
	dist := r3.Norm(delta)
	if dist >= radius {
		return p
	}
	if dist < geom.Epsilon {
		delta = r3.Vec{X: 1}
		dist = 1
	}
	return r3.Add(center, r3.Scale(radius, r3.Scale(1/dist, delta)))
}

func collideBox(p r3.Vec, pr Primitive) r3.Vec {
	local := pr.Transform.Inv().ApplyPoint(p)

	lo := r3.Vec{X: -pr.Dims.X / 2, Y: -pr.Dims.Y / 2, Z: -pr.Dims.Z / 2}
	hi := r3.Vec{X: pr.Dims.X / 2, Y: pr.Dims.Y / 2, Z: pr.Dims.Z / 2}
	lo.X, hi.X = expandAxis(lo.X, hi.X, pr.Margin)
	lo.Y, hi.Y = expandAxis(lo.Y, hi.Y, pr.Margin)
	lo.Z, hi.Z = expandAxis(lo.Z, hi.Z, pr.Margin)

	if local.X < lo.X || local.X > hi.X ||
		local.Y < lo.Y || local.Y > hi.Y ||
		local.Z < lo.Z || local.Z > hi.Z {
		return p
	}

	dx := min(local.X-lo.X, hi.X-local.X)
	dy := min(local.Y-lo.Y, hi.Y-local.Y)
	dz := min(local.Z-lo.Z, hi.Z-local.Z)
	switch {
	case dx <= dy && dx <= dz:
		local.X = nearestFace(local.X, lo.X, hi.X)
	case dy <= dz:
		local.Y = nearestFace(local.Y, lo.Y, hi.Y)
	default:
		local.Z = nearestFace(local.Z, lo.Z, hi.Z)
	}
	return pr.Transform.ApplyPoint(local)
}

func collideCapsule(p r3.Vec, pr Primitive) r3.Vec {
	baseRadius := max(pr.Dims.X, pr.Dims.Y) * 0.5
	radius := baseRadius + pr.Margin
	if radius <= 0 {
		return p
	}
	halfHeight := max(0, pr.Dims.Z*0.5-baseRadius) + pr.Margin

	axis := pr.Transform.Z
	if r3.Norm(axis) == 0 {
		return p
	}
	axis = geom.SafeUnit(axis)

	center := pr.Transform.T
	p0 := r3.Sub(center, r3.Scale(halfHeight, axis))
	p1 := r3.Add(center, r3.Scale(halfHeight, axis))
	closest := geom.ClosestPointOnSegment(p, p0, p1)
	delta := r3.Sub(p, closest)
	dist := r3.Norm(delta)
	if dist >= radius {
		return p
	}
	if dist < geom.Epsilon {
		delta = r3.Cross(axis, r3.Vec{X: 1})
		if r3.Norm(delta) < geom.Epsilon {
			delta = r3.Cross(axis, r3.Vec{Y: 1})
		}
		dist = r3.Norm(delta)
	}
	if dist > 0 {
		return r3.Add(closest, r3.Scale(radius, r3.Scale(1/dist, delta)))
	}
	return p
}

// expandAxis inflates one box axis by the margin; a flat axis gets a
// minimum thickness so a planar collider still has volume.
func expandAxis(lo, hi, margin float64) (float64, float64) {
	expand := margin
	if lo == hi {
		expand = max(0.0001, margin)
	}
	return lo - expand, hi + expand
}

func nearestFace(v, lo, hi float64) float64 {
	if v-lo < hi-v {
		return lo
	}
	return hi
}

func maxComponent(v r3.Vec) float64 { return max(v.X, v.Y, v.Z) }
