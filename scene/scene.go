// Package scene holds the host-side contracts the simulation runs against
// and an in-memory implementation of them: a bone arena, a keyframe store
// and the scene objects (force fields, colliders) a bake can react to.
package scene

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
)

// BoneID is a stable handle into the bone arena, in declaration order.
type BoneID int

// None marks the absence of a bone reference.
const None BoneID = -1

// Channels are the keyable pose channels of one bone, relative to its
// parent. RotQuat is authoritative for composition; RotEuler is carried
// alongside so euler curves survive caching and blending.
type Channels struct {
	Loc      r3.Vec
	RotQuat  quat.Number
	RotEuler r3.Vec
	Scale    r3.Vec
}

// Armature is the pose provider: everything the simulation reads from and
// writes to the host's bone hierarchy. Matrices are in armature space;
// writes must be visible to subsequent reads within the same frame.
type Armature interface {
	Root() geom.Transform
	Bones() []BoneID
	Name(b BoneID) string
	Parent(b BoneID) (BoneID, bool)
	Children(b BoneID) []BoneID
	Matrix(b BoneID) geom.Transform
	SetMatrix(b BoneID, m geom.Transform)
	Head(b BoneID) r3.Vec
	Tail(b BoneID) r3.Vec
	Length(b BoneID) float64
	CollisionRadii(b BoneID) (head, tail float64)
	Channels(b BoneID) Channels
	SetChannels(b BoneID, ch Channels)
}

// Clock owns the current frame and forces dependent pose recomputation.
type Clock interface {
	Frame() int
	SetFrame(f int)
	FPS() float64
	Flush()
}

// KeySink accepts keyframe insertions and deletions. Deleting a frame with
// no key is a no-op, never an error.
type KeySink interface {
	InsertKey(b BoneID, frame int)
	DeleteKey(b BoneID, frame int)
}

// FieldKind classifies a scene force source.
type FieldKind uint8

const (
	FieldForce  FieldKind = iota // point source, radial falloff
	FieldWind                    // directional along local Z
	FieldVortex                  // enumerated but contributes no force
)

// ForceSource describes one scene force field.
type ForceSource struct {
	Kind           FieldKind
	Strength       float64
	Transform      geom.Transform
	UseMinDistance bool
	UseMaxDistance bool
	MinDistance    float64
	MaxDistance    float64
}

// CollisionShape classifies a collider object's geometry.
type CollisionShape uint8

const (
	ShapeNone CollisionShape = iota
	ShapeBox
	ShapeSphere
	ShapeCapsule
	ShapeCylinder
	ShapeConvexHull // degraded to box
	ShapeMesh       // degraded to box
)

// Collider describes one candidate collision object. Transform carries
// rotation and translation; Dims is the local-space bounding extent.
type Collider struct {
	Name       string
	Shape      CollisionShape
	Transform  geom.Transform
	Dims       r3.Vec
	Margin     float64
	HasPhysics bool
}

// Environment enumerates the scene objects a bake can react to.
type Environment interface {
	Fields() []ForceSource
	WindObject() (geom.Transform, bool)
	PlaneObject() (geom.Transform, bool)
	Colliders() []Collider
}
