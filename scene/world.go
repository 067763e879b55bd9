package scene

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
)

// boneInfo is the immutable description of one bone.
type boneInfo struct {
	Name       string
	Length     float64
	HeadRadius float64
	TailRadius float64
}

// bonePose holds a bone's parent-relative pose and its derived
// armature-space matrix.
type bonePose struct {
	Local geom.Transform
	Arm   geom.Transform
}

// boneLink stores hierarchy references. Children keep declaration order.
type boneLink struct {
	Parent    ecs.Entity
	HasParent bool
	Children  []ecs.Entity
}

// World is the in-memory host scene: a bone arena backed by an ECS,
// a keyframe store and the scene objects a bake reads.
//
// Bones are addressed by stable integer BoneIDs in declaration order;
// parents must be declared before their children, so a single in-order
// pass keeps armature-space matrices consistent.
type World struct {
	world *ecs.World
	bones *ecs.Map3[boneInfo, bonePose, boneLink]

	order  []ecs.Entity
	ids    map[ecs.Entity]BoneID
	byName map[string]BoneID

	root  geom.Transform
	frame int
	fps   float64

	keys map[BoneID]*curve

	fields    []ForceSource
	colliders []Collider
	wind      *geom.Transform
	plane     *geom.Transform
}

// NewWorld creates an empty scene evaluated at the given frame rate.
func NewWorld(fps float64) *World {
	w := ecs.NewWorld()
	return &World{
		world:  w,
		bones:  ecs.NewMap3[boneInfo, bonePose, boneLink](w),
		ids:    make(map[ecs.Entity]BoneID),
		byName: make(map[string]BoneID),
		root:   geom.Identity(),
		fps:    fps,
		keys:   make(map[BoneID]*curve),
	}
}

// SetRoot sets the armature's world transform.
func (w *World) SetRoot(m geom.Transform) { w.root = m }

// AddBone appends a bone to the arena. The bone's rest orientation is
// derived from the head-to-tail axis and roll. Parent must already exist
// (or be None for a root bone).
func (w *World) AddBone(name string, parent BoneID, head, tail r3.Vec, roll, headRadius, tailRadius float64) (BoneID, error) {
	if _, dup := w.byName[name]; dup {
		return None, fmt.Errorf("bone %q already exists", name)
	}
	if parent != None && (parent < 0 || int(parent) >= len(w.order)) {
		return None, fmt.Errorf("bone %q: parent %d out of range", name, parent)
	}

	axis := r3.Sub(tail, head)
	length := r3.Norm(axis)
	arm := geom.FrameFromYRoll(axis, roll)
	arm.T = head

	local := arm
	link := boneLink{}
	if parent != None {
		parentEnt := w.order[parent]
		_, pp, _ := w.bones.Get(parentEnt)
		local = pp.Arm.Inv().Mul(arm)
		link.Parent = parentEnt
		link.HasParent = true
	}

	info := boneInfo{Name: name, Length: length, HeadRadius: headRadius, TailRadius: tailRadius}
	pose := bonePose{Local: local, Arm: arm}
	ent := w.bones.NewEntity(&info, &pose, &link)

	id := BoneID(len(w.order))
	w.order = append(w.order, ent)
	w.ids[ent] = id
	w.byName[name] = id

	if parent != None {
		_, _, pl := w.bones.Get(w.order[parent])
		pl.Children = append(pl.Children, ent)
	}
	return id, nil
}

// Find returns the bone with the given name.
func (w *World) Find(name string) (BoneID, bool) {
	id, ok := w.byName[name]
	return id, ok
}

// Root implements Armature.
func (w *World) Root() geom.Transform { return w.root }

// Bones returns all bone handles in declaration order.
func (w *World) Bones() []BoneID {
	out := make([]BoneID, len(w.order))
	for i := range out {
		out[i] = BoneID(i)
	}
	return out
}

// Name implements Armature.
func (w *World) Name(b BoneID) string {
	info, _, _ := w.bones.Get(w.order[b])
	return info.Name
}

// Parent implements Armature.
func (w *World) Parent(b BoneID) (BoneID, bool) {
	_, _, link := w.bones.Get(w.order[b])
	if !link.HasParent {
		return None, false
	}
	return w.ids[link.Parent], true
}

// Children returns the bone's children in declaration order.
func (w *World) Children(b BoneID) []BoneID {
	_, _, link := w.bones.Get(w.order[b])
	out := make([]BoneID, len(link.Children))
	for i, ent := range link.Children {
		out[i] = w.ids[ent]
	}
	return out
}

// Matrix returns the bone's pose matrix in armature space.
func (w *World) Matrix(b BoneID) geom.Transform {
	_, pose, _ := w.bones.Get(w.order[b])
	return pose.Arm
}

// SetMatrix writes the bone's armature-space pose matrix. Descendant
// matrices are recomputed immediately so the next read observes the write.
func (w *World) SetMatrix(b BoneID, m geom.Transform) {
	_, pose, link := w.bones.Get(w.order[b])
	pose.Arm = m
	if link.HasParent {
		_, pp, _ := w.bones.Get(link.Parent)
		pose.Local = pp.Arm.Inv().Mul(m)
	} else {
		pose.Local = m
	}
	w.propagateFrom(b)
}

// Head returns the bone's head position in armature space.
func (w *World) Head(b BoneID) r3.Vec {
	_, pose, _ := w.bones.Get(w.order[b])
	return pose.Arm.T
}

// Tail returns the bone's tail position in armature space.
func (w *World) Tail(b BoneID) r3.Vec {
	info, pose, _ := w.bones.Get(w.order[b])
	return pose.Arm.ApplyPoint(r3.Vec{Y: info.Length})
}

// Length implements Armature.
func (w *World) Length(b BoneID) float64 {
	info, _, _ := w.bones.Get(w.order[b])
	return info.Length
}

// CollisionRadii implements Armature.
func (w *World) CollisionRadii(b BoneID) (float64, float64) {
	info, _, _ := w.bones.Get(w.order[b])
	return info.HeadRadius, info.TailRadius
}

// Channels returns the bone's parent-relative pose channels.
func (w *World) Channels(b BoneID) Channels {
	_, pose, _ := w.bones.Get(w.order[b])
	loc, rot, scale := pose.Local.Decompose()
	return Channels{
		Loc:      loc,
		RotQuat:  rot,
		RotEuler: geom.QuatToEuler(rot),
		Scale:    scale,
	}
}

// SetChannels writes the bone's pose channels. RotQuat is authoritative;
// RotEuler is stored back on the next read via conversion.
func (w *World) SetChannels(b BoneID, ch Channels) {
	_, pose, _ := w.bones.Get(w.order[b])
	pose.Local = geom.ComposeTRS(ch.Loc, ch.RotQuat, ch.Scale)
	w.propagateFrom(b)
}

// propagateFrom recomputes armature-space matrices for b and everything
// declared after it. Declaration order is topological, so one pass is
// enough.
func (w *World) propagateFrom(b BoneID) {
	for i := int(b); i < len(w.order); i++ {
		_, pose, link := w.bones.Get(w.order[i])
		if link.HasParent {
			_, pp, _ := w.bones.Get(link.Parent)
			pose.Arm = pp.Arm.Mul(pose.Local)
		} else {
			pose.Arm = pose.Local
		}
	}
}

// Frame implements Clock.
func (w *World) Frame() int { return w.frame }

// SetFrame implements Clock. Poses are not re-evaluated until Flush.
func (w *World) SetFrame(f int) { w.frame = f }

// FPS implements Clock.
func (w *World) FPS() float64 {
	if w.fps <= 0 {
		return 24
	}
	return w.fps
}

// Flush re-evaluates every keyed bone at the current frame and refreshes
// all armature-space matrices, synchronously. Unkeyed bones keep their
// current pose.
func (w *World) Flush() {
	for i := range w.order {
		id := BoneID(i)
		_, pose, link := w.bones.Get(w.order[i])
		if c := w.keys[id]; c != nil {
			if ch, ok := c.sample(w.frame); ok {
				pose.Local = geom.ComposeTRS(ch.Loc, ch.RotQuat, ch.Scale)
			}
		}
		if link.HasParent {
			_, pp, _ := w.bones.Get(link.Parent)
			pose.Arm = pp.Arm.Mul(pose.Local)
		} else {
			pose.Arm = pose.Local
		}
	}
}

// InsertKey captures the bone's current channels as a key at frame.
func (w *World) InsertKey(b BoneID, frame int) {
	c := w.keys[b]
	if c == nil {
		c = &curve{}
		w.keys[b] = c
	}
	c.insert(frame, w.Channels(b))
}

// DeleteKey removes the key at frame if present; absent keys are a no-op.
func (w *World) DeleteKey(b BoneID, frame int) {
	if c := w.keys[b]; c != nil {
		c.remove(frame)
	}
}

// KeyFrames returns the sorted frames that hold keys for the bone.
func (w *World) KeyFrames(b BoneID) []int {
	c := w.keys[b]
	if c == nil {
		return nil
	}
	out := make([]int, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.frame
	}
	return out
}

// AddField registers a scene force source.
func (w *World) AddField(f ForceSource) { w.fields = append(w.fields, f) }

// AddCollider registers a candidate collision object.
func (w *World) AddCollider(c Collider) { w.colliders = append(w.colliders, c) }

// SetWindObject sets the oscillating wind driver object.
func (w *World) SetWindObject(m geom.Transform) { w.wind = &m }

// SetPlaneObject sets the collision plane object.
func (w *World) SetPlaneObject(m geom.Transform) { w.plane = &m }

// Fields implements Environment.
func (w *World) Fields() []ForceSource { return w.fields }

// Colliders implements Environment.
func (w *World) Colliders() []Collider { return w.colliders }

// WindObject implements Environment.
func (w *World) WindObject() (geom.Transform, bool) {
	if w.wind == nil {
		return geom.Transform{}, false
	}
	return *w.wind, true
}

// PlaneObject implements Environment.
func (w *World) PlaneObject() (geom.Transform, bool) {
	if w.plane == nil {
		return geom.Transform{}, false
	}
	return *w.plane, true
}
