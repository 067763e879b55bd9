package forces

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/geom"
)

func TestWindStrengthOscillates(t *testing.T) {
	w := &Wind{Min: 1, Max: 3, Freq: 1}
	fps := 24.0

	// t=0: sin(0)=0 → midpoint.
	if got := w.Strength(0, fps); math.Abs(got-2) > 1e-9 {
		t.Errorf("Strength(0) = %v, want 2", got)
	}
	// Quarter period (6 frames at 24fps, freq 1): sin(pi/2)=1 → max.
	if got := w.Strength(6, fps); math.Abs(got-3) > 1e-9 {
		t.Errorf("Strength(6) = %v, want 3", got)
	}
	// Three quarters: min.
	if got := w.Strength(18, fps); math.Abs(got-1) > 1e-9 {
		t.Errorf("Strength(18) = %v, want 1", got)
	}
}

func TestWindStrengthZeroFreqHoldsMax(t *testing.T) {
	w := &Wind{Min: 1, Max: 3, Freq: 0}
	for _, frame := range []int{0, 7, 100} {
		if got := w.Strength(frame, 24); got != 3 {
			t.Errorf("Strength(%d) = %v, want 3", frame, got)
		}
	}
}

func TestWindStrengthSwapsReversedBounds(t *testing.T) {
	w := &Wind{Min: 3, Max: 1, Freq: 0}
	if got := w.Strength(0, 24); got != 3 {
		t.Errorf("Strength = %v, want 3 after swap", got)
	}
}

func TestWindStrengthFPSFallback(t *testing.T) {
	a := &Wind{Min: 0, Max: 2, Freq: 1}
	b := &Wind{Min: 0, Max: 2, Freq: 1}
	if got, want := a.Strength(6, 0), b.Strength(6, 24); math.Abs(got-want) > 1e-12 {
		t.Errorf("fps fallback: got %v, want %v", got, want)
	}
}

func TestWindTurbulenceDeterministic(t *testing.T) {
	a := &Wind{Min: 1, Max: 3, Freq: 0.5, Turbulence: 0.4, Seed: 7}
	b := &Wind{Min: 1, Max: 3, Freq: 0.5, Turbulence: 0.4, Seed: 7}
	for frame := 0; frame < 50; frame += 5 {
		if ga, gb := a.Strength(frame, 24), b.Strength(frame, 24); ga != gb {
			t.Fatalf("frame %d: same seed diverged: %v vs %v", frame, ga, gb)
		}
	}
	c := &Wind{Min: 1, Max: 3, Freq: 0.5, Turbulence: 0.4, Seed: 8}
	same := true
	for frame := 0; frame < 50; frame++ {
		if a.Strength(frame, 24) != c.Strength(frame, 24) {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical strength series")
	}
}

func TestWindVector(t *testing.T) {
	w := &Wind{Min: 2, Max: 2, Freq: 0}
	got := w.Vector(geom.Identity(), 0, 24)
	if !vecNear(got, r3.Vec{Z: 2}, 1e-9) {
		t.Errorf("Vector = %v, want {0 0 2}", got)
	}
}

func TestWindVectorDegenerateAxis(t *testing.T) {
	w := &Wind{Min: 2, Max: 2, Freq: 0}
	obj := geom.Identity()
	obj.Z = r3.Vec{}
	if got := w.Vector(obj, 0, 24); !vecNear(got, r3.Vec{}, 0) {
		t.Errorf("degenerate axis Vector = %v, want zero", got)
	}
}
