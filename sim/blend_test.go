package sim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

func pose(loc r3.Vec, rot quat.Number, scale r3.Vec) scene.Channels {
	return scene.Channels{
		Loc:      loc,
		RotQuat:  rot,
		RotEuler: geom.QuatToEuler(rot),
		Scale:    scale,
	}
}

func quatAngle(a, b quat.Number) float64 {
	d := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	return 2 * math.Acos(geom.Clamp(math.Abs(d), 0, 1))
}

// quatNear compares rotations. The tolerance is in angle space, where
// acos turns rounding noise in a near-unit dot product into ~1e-8.
func quatNear(a, b quat.Number) bool {
	return quatAngle(a, b) < 1e-7
}

func TestBlendOverrideEndpoints(t *testing.T) {
	ones := r3.Vec{X: 1, Y: 1, Z: 1}
	existing := pose(r3.Vec{X: 1}, geom.QuatIdentity(), ones)
	spring := pose(r3.Vec{X: 3}, geom.QuatAxisAngle(r3.Vec{Z: 1}, 0.8), ones)

	got := blendOverride(existing, spring, 0)
	if math.Abs(got.Loc.X-1) > 1e-9 || !quatNear(got.RotQuat, existing.RotQuat) {
		t.Errorf("weight 0 moved the pose: %+v", got)
	}

	got = blendOverride(existing, spring, 1)
	if math.Abs(got.Loc.X-3) > 1e-9 || !quatNear(got.RotQuat, spring.RotQuat) {
		t.Errorf("weight 1 missed the spring pose: %+v", got)
	}
}

func TestBlendOverrideMidpoint(t *testing.T) {
	ones := r3.Vec{X: 1, Y: 1, Z: 1}
	existing := pose(r3.Vec{}, geom.QuatIdentity(), ones)
	spring := pose(r3.Vec{X: 2}, geom.QuatAxisAngle(r3.Vec{Z: 1}, 0.8), ones)

	got := blendOverride(existing, spring, 0.5)
	if math.Abs(got.Loc.X-1) > 1e-9 {
		t.Errorf("midpoint Loc.X = %v, want 1", got.Loc.X)
	}
	if a := quatAngle(got.RotQuat, existing.RotQuat); math.Abs(a-0.4) > 1e-9 {
		t.Errorf("midpoint rotation angle = %v, want 0.4", a)
	}
}

func TestBlendAdditiveDelta(t *testing.T) {
	ones := r3.Vec{X: 1, Y: 1, Z: 1}
	base := pose(r3.Vec{}, geom.QuatIdentity(), ones)
	existing := pose(r3.Vec{Y: 2}, geom.QuatAxisAngle(r3.Vec{X: 1}, 0.3), ones)
	spring := pose(r3.Vec{X: 1}, geom.QuatAxisAngle(r3.Vec{Z: 1}, 0.5), ones)

	// Full weight: the whole delta from base lands on top of existing.
	got := blendAdditive(existing, spring, base, 1)
	if math.Abs(got.Loc.X-1) > 1e-9 || math.Abs(got.Loc.Y-2) > 1e-9 {
		t.Errorf("additive Loc = %v, want {1 2 0}", got.Loc)
	}
	want := geom.QuatNormalize(quat.Mul(spring.RotQuat, existing.RotQuat))
	if !quatNear(got.RotQuat, want) {
		t.Errorf("additive rotation = %+v, want %+v", got.RotQuat, want)
	}

	// Spring equal to base is a no-op at any weight.
	got = blendAdditive(existing, base, base, 0.7)
	if !quatNear(got.RotQuat, existing.RotQuat) || math.Abs(got.Loc.Y-2) > 1e-9 {
		t.Errorf("zero delta changed the pose: %+v", got)
	}
}

func TestBlendAdditiveScaleRatio(t *testing.T) {
	ones := r3.Vec{X: 1, Y: 1, Z: 1}
	base := pose(r3.Vec{}, geom.QuatIdentity(), ones)
	existing := pose(r3.Vec{}, geom.QuatIdentity(), r3.Vec{X: 2, Y: 2, Z: 2})
	spring := pose(r3.Vec{}, geom.QuatIdentity(), r3.Vec{X: 1.5, Y: 1, Z: 1})

	got := blendAdditive(existing, spring, base, 1)
	if math.Abs(got.Scale.X-3) > 1e-9 || math.Abs(got.Scale.Y-2) > 1e-9 {
		t.Errorf("scale = %v, want {3 2 2}", got.Scale)
	}

	// A zero base component guards to ratio 1 instead of dividing.
	base.Scale = r3.Vec{}
	got = blendAdditive(existing, spring, base, 1)
	if math.Abs(got.Scale.X-2) > 1e-9 {
		t.Errorf("zero-base scale = %v, want unchanged 2", got.Scale.X)
	}
}
