package rig

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

func vecNear(a, b r3.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func transformNear(a, b geom.Transform, eps float64) bool {
	return vecNear(a.X, b.X, eps) && vecNear(a.Y, b.Y, eps) &&
		vecNear(a.Z, b.Z, eps) && vecNear(a.T, b.T, eps)
}

func TestInitStateShape(t *testing.T) {
	w, ids := branchWorld(t)
	chains := BuildChains(w, []scene.BoneID{ids["a1"], ids["a2"], ids["a3"]})
	st := InitState(w, chains[0])

	n := len(chains[0].Bones)
	if len(st.Pre) != n+1 || len(st.Rest) != n+1 {
		t.Fatalf("Pre/Rest lengths = %d/%d, want %d", len(st.Pre), len(st.Rest), n+1)
	}
	if len(st.PrevPhase) != n || len(st.PrevTip) != n {
		t.Fatalf("PrevPhase/PrevTip lengths = %d/%d, want %d", len(st.PrevPhase), len(st.PrevTip), n)
	}
	for i, v := range st.PrevPhase {
		if !vecNear(v, r3.Vec{}, 0) {
			t.Errorf("PrevPhase[%d] = %v, want zero", i, v)
		}
	}
}

func TestInitStateRestOffsets(t *testing.T) {
	w, ids := branchWorld(t)
	chains := BuildChains(w, []scene.BoneID{ids["a1"], ids["a2"], ids["a3"]})
	st := InitState(w, chains[0])

	// Each slot's world matrix reassembles from its parent slot and the
	// captured rest offset.
	for i := 1; i < len(st.Pre); i++ {
		got := st.Pre[i-1].Mul(st.Rest[i])
		if !transformNear(got, st.Pre[i], 1e-5) {
			t.Errorf("slot %d: parent*rest mismatch\ngot  %+v\nwant %+v", i, got, st.Pre[i])
		}
	}

	// The first slot's offset is taken against the chain root's parent.
	p, _ := w.Parent(chains[0].Bones[0])
	parentWorld := w.Root().Mul(w.Matrix(p))
	if got := parentWorld.Mul(st.Rest[0]); !transformNear(got, st.Pre[0], 1e-5) {
		t.Errorf("slot 0: parent*rest mismatch\ngot  %+v\nwant %+v", got, st.Pre[0])
	}
}

func TestInitStateVirtualTip(t *testing.T) {
	w, ids := branchWorld(t)
	chains := BuildChains(w, []scene.BoneID{ids["a1"], ids["a2"], ids["a3"]})
	st := InitState(w, chains[0])

	last := chains[0].Bones[len(chains[0].Bones)-1]
	wantTip := w.Root().ApplyPoint(w.Tail(last))
	n := len(chains[0].Bones)
	if !vecNear(st.Pre[n].T, wantTip, 1e-9) {
		t.Errorf("virtual tip origin = %v, want tail %v", st.Pre[n].T, wantTip)
	}
	// The tip offset is one bone length along the last bone's Y.
	if got := r3.Norm(st.Rest[n].T); math.Abs(got-w.Length(last)) > 1e-9 {
		t.Errorf("tip rest offset length = %v, want %v", got, w.Length(last))
	}
}

func TestInitStateTracksPose(t *testing.T) {
	w, ids := branchWorld(t)
	chains := BuildChains(w, []scene.BoneID{ids["a1"], ids["a2"]})

	// Move the base bone; state captured afterwards must see the moved
	// world-space poses.
	m := w.Matrix(ids["base"])
	m.T = r3.Add(m.T, r3.Vec{X: 2})
	w.SetMatrix(ids["base"], m)

	st := InitState(w, chains[0])
	if got := st.Pre[0].T; !vecNear(got, r3.Vec{X: 2, Z: 1}, 1e-9) {
		t.Errorf("Pre[0] origin = %v, want {2 0 1}", got)
	}
	if got := st.PrevTip[0]; !vecNear(got, r3.Vec{X: 2, Z: 2}, 1e-9) {
		t.Errorf("PrevTip[0] = %v, want {2 0 2}", got)
	}
}

func TestInitStateIdempotent(t *testing.T) {
	w, ids := branchWorld(t)
	chains := BuildChains(w, []scene.BoneID{ids["a1"], ids["a2"], ids["a3"]})

	a := InitState(w, chains[0])
	b := InitState(w, chains[0])
	for i := range a.Pre {
		if !transformNear(a.Pre[i], b.Pre[i], 0) {
			t.Errorf("Pre[%d] differs between runs", i)
		}
		if !transformNear(a.Rest[i], b.Rest[i], 0) {
			t.Errorf("Rest[%d] differs between runs", i)
		}
	}
	for i := range a.PrevTip {
		if !vecNear(a.PrevTip[i], b.PrevTip[i], 0) {
			t.Errorf("PrevTip[%d] differs between runs", i)
		}
	}
}
