package rig

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

// State is the mutable per-chain integrator state. For a chain of N bones
// Pre and Rest hold N+1 entries: the extra slot is a virtual tip one bone
// length past the last bone, so the last real bone has a target to chase
// like every other.
type State struct {
	// Pre holds world-space pose matrices from the previous step,
	// virtual tip last.
	Pre []geom.Transform
	// Rest holds the parent-relative offset of each slot, captured at
	// initialization time.
	Rest []geom.Transform
	// PrevPhase is the displacement applied on the previous step, fed
	// back through the recursion parameter.
	PrevPhase []r3.Vec
	// PrevTip is each bone's world-space tail from the previous step,
	// read by the inertia term.
	PrevTip []r3.Vec
}

// InitState captures the chain's state at the current pose. Calling it
// again without moving the armature yields identical state.
func InitState(arm scene.Armature, ch Chain) *State {
	n := len(ch.Bones)
	st := &State{
		Pre:       make([]geom.Transform, n+1),
		Rest:      make([]geom.Transform, n+1),
		PrevPhase: make([]r3.Vec, n),
		PrevTip:   make([]r3.Vec, n),
	}
	root := arm.Root()
	for i, b := range ch.Bones {
		wmt := root.Mul(arm.Matrix(b))
		st.Pre[i] = wmt

		var parentWorld geom.Transform
		if i == 0 {
			p, _ := arm.Parent(b)
			parentWorld = root.Mul(arm.Matrix(p))
		} else {
			parentWorld = st.Pre[i-1]
		}
		st.Rest[i] = parentWorld.Inv().Mul(wmt)
		st.PrevTip[i] = root.ApplyPoint(arm.Tail(b))
	}

	last := ch.Bones[n-1]
	wmt := st.Pre[n-1]
	end := wmt.Mul(geom.Translation(r3.Vec{Y: arm.Length(last)}))
	st.Pre[n] = end
	st.Rest[n] = wmt.Inv().Mul(end)
	return st
}
