package forces

import (
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
)

// Wind is the oscillating wind driver. Strength swings sinusoidally
// between Min and Max at Freq cycles per second; Turbulence layers
// simplex noise on top so long bakes don't look metronomic.
type Wind struct {
	Min        float64
	Max        float64
	Freq       float64
	Turbulence float64
	Seed       int64

	noise opensimplex.Noise
}

// Strength returns the wind magnitude at the given frame.
func (w *Wind) Strength(frame int, fps float64) float64 {
	lo, hi := w.Min, w.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	if fps <= 0 {
		fps = 24
	}
	t := float64(frame) / fps

	s := hi
	if w.Freq > 0 {
		s = lo + (hi-lo)*(0.5+0.5*math.Sin(t*w.Freq*2*math.Pi))
	}
	if w.Turbulence > 0 {
		if w.noise == nil {
			w.noise = opensimplex.NewNormalized(w.Seed)
		}
		s *= 1 + w.Turbulence*(w.noise.Eval2(t, 0)-0.5)
	}
	return s
}

// Vector returns the world-space wind force at the given frame: the
// driver object's local Z axis scaled by the oscillating strength. A
// degenerate axis yields a zero vector.
func (w *Wind) Vector(obj geom.Transform, frame int, fps float64) r3.Vec {
	dir := geom.SafeUnit(obj.Z)
	return r3.Scale(w.Strength(frame, fps), dir)
}
