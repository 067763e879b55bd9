package sim

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

// animCache snapshots the animation a bake is about to overwrite, per
// bone per frame, plus the base pose at the start frame for additive
// blending. Built before keys are cleared, consumed during write-back.
type animCache struct {
	frames map[scene.BoneID]map[int]scene.Channels
	base   map[scene.BoneID]scene.Channels
}

func buildAnimCache(host Host, bones []scene.BoneID, sf, ef int) *animCache {
	c := &animCache{
		frames: make(map[scene.BoneID]map[int]scene.Channels, len(bones)),
		base:   make(map[scene.BoneID]scene.Channels, len(bones)),
	}
	restore := host.Frame()

	host.SetFrame(sf)
	host.Flush()
	for _, b := range bones {
		c.frames[b] = make(map[int]scene.Channels, ef-sf+1)
		c.base[b] = host.Channels(b)
	}
	for f := sf; f <= ef; f++ {
		host.SetFrame(f)
		host.Flush()
		for _, b := range bones {
			c.frames[b][f] = host.Channels(b)
		}
	}

	host.SetFrame(restore)
	host.Flush()
	return c
}

func (c *animCache) at(b scene.BoneID, frame int) (scene.Channels, bool) {
	perFrame, ok := c.frames[b]
	if !ok {
		return scene.Channels{}, false
	}
	ch, ok := perFrame[frame]
	return ch, ok
}

// writeKey commits the bone's current pose as a key at the current
// frame, blending with the cached prior animation first when the bake
// weight calls for it.
func (b *Baker) writeKey(bone scene.BoneID) {
	f := b.host.Frame()
	if b.params.blending() && b.cache != nil {
		if existing, ok := b.cache.at(bone, f); ok {
			spring := b.host.Channels(bone)
			var blended scene.Channels
			if b.params.BakeMode == BlendAdditive {
				if base, ok := b.cache.base[bone]; ok {
					blended = blendAdditive(existing, spring, base, b.params.BakeWeight)
				} else {
					blended = blendOverride(existing, spring, b.params.BakeWeight)
				}
			} else {
				blended = blendOverride(existing, spring, b.params.BakeWeight)
			}
			b.host.SetChannels(bone, blended)
		}
	}
	b.host.InsertKey(bone, f)
}

// blendOverride interpolates between the existing and baked poses.
func blendOverride(existing, spring scene.Channels, w float64) scene.Channels {
	rot := geom.Slerp(existing.RotQuat, spring.RotQuat, w)
	eulerQuat := geom.Slerp(geom.EulerToQuat(existing.RotEuler), geom.EulerToQuat(spring.RotEuler), w)
	return scene.Channels{
		Loc:      geom.Lerp(existing.Loc, spring.Loc, w),
		RotQuat:  rot,
		RotEuler: geom.QuatToEuler(eulerQuat),
		Scale:    geom.Lerp(existing.Scale, spring.Scale, w),
	}
}

// blendAdditive layers the baked delta from the base pose onto the
// existing pose.
func blendAdditive(existing, spring, base scene.Channels, w float64) scene.Channels {
	loc := r3.Add(existing.Loc, r3.Scale(w, r3.Sub(spring.Loc, base.Loc)))

	delta := quat.Mul(spring.RotQuat, quat.Inv(base.RotQuat))
	weighted := geom.Slerp(geom.QuatIdentity(), delta, w)
	rot := geom.QuatNormalize(quat.Mul(weighted, existing.RotQuat))

	eulerDelta := quat.Mul(geom.EulerToQuat(spring.RotEuler), quat.Inv(geom.EulerToQuat(base.RotEuler)))
	eulerWeighted := geom.Slerp(geom.QuatIdentity(), eulerDelta, w)
	eulerQuat := geom.QuatNormalize(quat.Mul(eulerWeighted, geom.EulerToQuat(existing.RotEuler)))

	ratio := r3.Vec{
		X: scaleRatio(spring.Scale.X, base.Scale.X),
		Y: scaleRatio(spring.Scale.Y, base.Scale.Y),
		Z: scaleRatio(spring.Scale.Z, base.Scale.Z),
	}
	factor := geom.Lerp(r3.Vec{X: 1, Y: 1, Z: 1}, ratio, w)
	scale := r3.Vec{
		X: existing.Scale.X * factor.X,
		Y: existing.Scale.Y * factor.Y,
		Z: existing.Scale.Z * factor.Z,
	}

	return scene.Channels{
		Loc:      loc,
		RotQuat:  rot,
		RotEuler: geom.QuatToEuler(eulerQuat),
		Scale:    scale,
	}
}

func scaleRatio(spring, base float64) float64 {
	if base == 0 {
		return 1
	}
	return spring / base
}
