package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/collide"
	"github.com/pthm-cable/phase/forces"
	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/rig"
	"github.com/pthm-cable/phase/scene"
	"github.com/pthm-cable/phase/telemetry"
)

// stepChain advances every bone of one chain by one sub-step, root to
// leaf. Order matters: each bone reads the already-updated transform of
// its predecessor as the new parent reference, so a chain cannot be
// stepped in parallel.
func (b *Baker) stepChain(ch rig.Chain, st *rig.State, dtScale float64, insertKey bool) {
	host := b.host
	p := &b.params
	root := host.Root()

	curP := root
	if parent, ok := host.Parent(ch.Bones[0]); ok {
		curP = root.Mul(host.Matrix(parent))
	}

	extScale := 1.0 + p.Extend

	var forceVec r3.Vec
	if p.UseForce {
		forceVec = r3.Scale(p.ForceStrength, geom.SafeUnit(p.ForceVector))
	}
	var windVec r3.Vec
	if p.UseWindObject {
		if obj, ok := host.WindObject(); ok {
			windVec = b.wind.Vector(obj, host.Frame(), host.FPS())
		}
	}

	for i, bone := range ch.Bones {
		tag := curP.Mul(st.Rest[i])
		pre := st.Pre[i]
		newMt := pre
		tagPos := tag.T

		// Align the bone's Y axis toward the target Y.
		preY := geom.SafeUnit(pre.Y)
		tagY := geom.SafeUnit(tag.Y)
		yDiff := math.Acos(geom.Clamp(r3.Dot(preY, tagY), -1, 1))
		axis := r3.Cross(preY, tagY)
		if r3.Norm(axis) > geom.AxisThreshold {
			newMt = newMt.RotatedBy(geom.AxisAngle(yDiff, geom.SafeUnit(axis)))
		}
		newMt.T = tagPos

		// Roll the X axis toward the target X, damped by delay and twist.
		newX := geom.SafeUnit(newMt.X)
		tagX := geom.SafeUnit(tag.X)
		roll := math.Acos(geom.Clamp(r3.Dot(newX, tagX), -1, 1))
		if p.Delay > 0 {
			roll /= p.Delay
		} else {
			roll = 0
		}
		roll *= (1 - p.Twist) * dtScale
		if r3.Dot(r3.Cross(newX, tagX), tagY) < 0 {
			roll = -roll
		}
		newMt = newMt.RotatedBy(geom.AxisAngle(roll, geom.SafeUnit(newMt.Y)))
		newMt.T = tagPos

		// Elasticity: pull the new Y toward last step's tip direction.
		cPos := st.Pre[i+1].T
		yVec := r3.Sub(cPos, tagPos)
		if r3.Norm(yVec) > geom.Epsilon {
			yVec = geom.SafeUnit(yVec)
		} else {
			yVec = geom.SafeUnit(newMt.Y)
		}
		newY := geom.SafeUnit(newMt.Y)

		safeDelay := max(p.Delay, 0.001)
		phase := r3.Scale(1/safeDelay, r3.Sub(newY, r3.Scale(p.Strength, yVec)))
		phase = r3.Add(phase, r3.Scale(p.Recursion, st.PrevPhase[i]))
		if p.Inertia > 0 {
			phase = r3.Add(phase, r3.Scale(p.Inertia, r3.Sub(cPos, st.PrevTip[i])))
		}

		forceDamp := 1 / max(p.Delay, 1)
		if p.UseForce {
			phase = r3.Add(phase, r3.Scale(forceDamp, forceVec))
		}
		if p.UseWindObject && r3.Norm(windVec) > 0 {
			phase = r3.Add(phase, r3.Scale(forceDamp, windVec))
		}
		if p.UseSceneFields {
			sceneForce := forces.FieldsAt(b.fields, tagPos)
			phase = r3.Add(phase, r3.Scale(forces.SceneScale*forceDamp, sceneForce))
		}

		phase = r3.Scale(dtScale, phase)
		if p.Tension > 0 {
			phase = r3.Scale(1-p.Tension, phase)
		}
		if r3.Norm(phase) < p.Threshold {
			phase = r3.Vec{}
		}

		yVec = r3.Add(yVec, phase)
		st.PrevPhase[i] = phase
		yVec = geom.SafeUnit(yVec)

		if b.collisionActive() {
			yVec = b.resolveTip(bone, tagPos, yVec, st.Rest[i+1], extScale)
		}

		// Rebuild an orthonormal frame around the settled Y.
		newZ := geom.SafeUnit(newMt.Z)
		xVec := geom.SafeUnit(r3.Cross(yVec, newZ))
		zVec := geom.SafeUnit(r3.Cross(xVec, yVec))
		final := geom.Transform{X: xVec, Y: r3.Scale(extScale, yVec), Z: zVec, T: tagPos}

		host.SetMatrix(bone, root.Inv().Mul(final))
		if insertKey {
			if b.perf != nil {
				b.perf.StartPhase(telemetry.PhaseKeywrite)
			}
			b.writeKey(bone)
			if b.perf != nil {
				b.perf.StartPhase(telemetry.PhaseStep)
			}
		}

		st.Pre[i] = final
		curP = final
		st.Pre[i+1].T = curP.Mul(st.Rest[i+1]).T
		st.PrevTip[i] = cPos
	}
}

func (b *Baker) collisionActive() bool {
	return (b.params.UseCollision && b.capsules != nil) ||
		(b.params.UseCollisionPlane && b.plane != nil) ||
		(b.params.UseCollisionPrimitives && len(b.prims) > 0)
}

// resolveTip runs the candidate tip position through the resolver
// pipeline and re-derives the Y direction if anything moved it.
func (b *Baker) resolveTip(bone scene.BoneID, tagPos, yVec r3.Vec, restTip geom.Transform, extScale float64) r3.Vec {
	boneLen := r3.Norm(restTip.T) * extScale
	if boneLen <= 0 {
		return yVec
	}
	tip := r3.Add(tagPos, r3.Scale(boneLen, yVec))
	corrected := tip

	if b.params.UseCollision && b.capsules != nil {
		exclude := map[scene.BoneID]bool{bone: true}
		if parent, ok := b.host.Parent(bone); ok {
			exclude[parent] = true
		}
		for _, child := range b.host.Children(bone) {
			exclude[child] = true
		}
		corrected = b.capsules.Resolve(corrected, exclude)
	}
	if b.params.UseCollisionPrimitives && len(b.prims) > 0 {
		corrected = collide.ResolvePrimitives(corrected, b.prims)
	}
	if b.params.UseCollisionPlane && b.plane != nil {
		corrected = b.plane.Resolve(corrected)
	}

	if r3.Norm(r3.Sub(corrected, tagPos)) > geom.Epsilon {
		return geom.SafeUnit(r3.Sub(corrected, tagPos))
	}
	return yVec
}
