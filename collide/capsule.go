// Package collide pushes candidate tip positions out of intersecting
// geometry: bone capsules, primitive collider volumes and an infinite
// half-space plane. Resolvers correct sequentially, each consuming the
// previous stage's output.
package collide

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

// BoneCapsules resolves against the capsules of other bones. Head and
// tail positions are read live from the armature so capsules follow the
// already-updated pose within a frame.
type BoneCapsules struct {
	arm          scene.Armature
	bones        []scene.BoneID
	margin       float64
	lengthOffset float64
}

// NewBoneCapsules caches the candidate bone set. Margin inflates every
// capsule radius; lengthOffset extends each capsule along its axis by
// half the offset at both ends.
func NewBoneCapsules(arm scene.Armature, bones []scene.BoneID, margin, lengthOffset float64) *BoneCapsules {
	return &BoneCapsules{arm: arm, bones: bones, margin: margin, lengthOffset: lengthOffset}
}

func (c *BoneCapsules) capsule(b scene.BoneID) (head, tail r3.Vec, radius float64) {
	root := c.arm.Root()
	head = root.ApplyPoint(c.arm.Head(b))
	tail = root.ApplyPoint(c.arm.Tail(b))
	axis := r3.Sub(tail, head)
	if r3.Norm(axis) > 0 && c.lengthOffset > 0 {
		half := r3.Scale(c.lengthOffset*0.5, geom.SafeUnit(axis))
		head = r3.Sub(head, half)
		tail = r3.Add(tail, half)
	}
	hr, tr := c.arm.CollisionRadii(b)
	radius = hr
	if tr > radius {
		radius = tr
	}
	if radius < 0.001 {
		radius = 0.001
	}
	return head, tail, radius + c.margin
}

// Resolve pushes p out of every candidate capsule not in the exclusion
// set. A point on a capsule's core segment is pushed along a fallback
// perpendicular (axis cross X, or axis cross Y when that degenerates).
func (c *BoneCapsules) Resolve(p r3.Vec, exclude map[scene.BoneID]bool) r3.Vec {
	corrected := p
	for _, b := range c.bones {
		if exclude[b] {
			continue
		}
		head, tail, radius := c.capsule(b)
		closest := geom.ClosestPointOnSegment(corrected, head, tail)
		delta := r3.Sub(corrected, closest)
		dist := r3.Norm(delta)
		if dist >= radius {
			continue
		}
		if dist < geom.Epsilon {
			axis := geom.SafeUnit(r3.Sub(tail, head))
			delta = r3.Cross(axis, r3.Vec{X: 1})
			if r3.Norm(delta) < geom.Epsilon {
				delta = r3.Cross(axis, r3.Vec{Y: 1})
			}
			dist = r3.Norm(delta)
		}
		if dist > 0 {
			corrected = r3.Add(closest, r3.Scale(radius, r3.Scale(1/dist, delta)))
		}
	}
	return corrected
}
