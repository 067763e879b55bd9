// Package forces evaluates the external pushes acting on a bone tip:
// scene force fields, the oscillating wind driver and the constant force
// carried in the bake parameters.
package forces

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/scene"
)

const (
	// FieldScale matches the host's force field magnitude convention.
	FieldScale = 20.0
	// SceneScale damps the accumulated scene force before it enters the
	// integrator.
	SceneScale = 0.01
	// minFieldDistance floors the radial falloff distance.
	minFieldDistance = 0.001
)

// FieldsAt sums all scene field contributions at a world-space position.
// Radial contributions already carry FieldScale; the integrator applies
// SceneScale to the total.
func FieldsAt(fields []scene.ForceSource, pos r3.Vec) r3.Vec {
	var total r3.Vec
	for _, f := range fields {
		if f.Strength == 0 {
			continue
		}
		switch f.Kind {
		case scene.FieldWind:
			// Directional push along the field's local Z, no falloff.
			// Unscaled: the magnitude convention applies to radial
			// fields only.
			total = r3.Add(total, r3.Scale(f.Strength, geom.SafeUnit(f.Transform.Z)))
		case scene.FieldForce:
			total = r3.Add(total, radial(f, pos))
		case scene.FieldVortex:
			// Enumerated for completeness; contributes nothing.
		}
	}
	return total
}

func radial(f scene.ForceSource, pos r3.Vec) r3.Vec {
	dir := r3.Sub(pos, f.Transform.T)
	dist := r3.Norm(dir)
	if dist < minFieldDistance {
		dist = minFieldDistance
	}
	if f.UseMaxDistance && dist > f.MaxDistance {
		return r3.Vec{}
	}
	falloff := 1.0
	// Inside the minimum distance the field passes through at full
	// strength instead of diverging.
	if !(f.UseMinDistance && dist < f.MinDistance) {
		falloff = 1 / (dist * dist)
	}
	if math.IsInf(falloff, 0) {
		falloff = 0
	}
	return r3.Scale(f.Strength*falloff*FieldScale, r3.Scale(1/dist, dir))
}
