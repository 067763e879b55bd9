// Package sim is the spring bake core: a per-frame integrator that
// advances bone chain orientations toward their animated parents with
// delay, recursion and roll, plus the driver that walks frames,
// sub-steps and chains and commits results as keyframes.
package sim

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/forces"
)

// MaxFrameSpan caps a single run. Longer ranges are almost always a
// mis-set end frame, and the per-frame cache grows linearly.
const MaxFrameSpan = 10000

var (
	ErrFrameRange  = errors.New("start frame must be smaller than end frame")
	ErrSpanTooLong = errors.New("frame range exceeds maximum span")
)

// BlendMode selects how baked motion combines with existing animation
// when the bake weight is below one.
type BlendMode uint8

const (
	// BlendOverride interpolates between the existing pose and the
	// baked pose.
	BlendOverride BlendMode = iota
	// BlendAdditive layers the baked delta from the start-frame base
	// pose on top of the existing pose.
	BlendAdditive
)

func (m BlendMode) String() string {
	switch m {
	case BlendOverride:
		return "override"
	case BlendAdditive:
		return "additive"
	}
	return fmt.Sprintf("BlendMode(%d)", uint8(m))
}

// Parameters is the full control surface of one bake run.
type Parameters struct {
	// Delay divides how fast a bone catches up with its target; higher
	// is springier. Recursion feeds back the previous step's phase.
	// Strength scales the pull toward the previous tip direction.
	Delay     float64
	Recursion float64
	Strength  float64
	Twist     float64
	Tension   float64
	Inertia   float64
	Extend    float64

	SubSteps  int
	Threshold float64

	StartFrame int
	EndFrame   int

	UseForce      bool
	ForceVector   r3.Vec
	ForceStrength float64

	UseSceneFields bool

	UseWindObject bool
	Wind          forces.Wind

	UseCollision           bool
	CollisionMargin        float64
	CollisionLengthOffset  float64
	UseCollisionPlane      bool
	UseCollisionPrimitives bool
	AutoRegisterColliders  bool

	BakeWeight float64
	BakeMode   BlendMode
	Loop       bool
}

// DefaultParameters mirrors the documented defaults of the operator
// surface after mapping to core units.
func DefaultParameters() Parameters {
	return Parameters{
		Delay:       3,
		Recursion:   0.5,
		Strength:    1,
		SubSteps:    1,
		Threshold:   0.001,
		StartFrame:  0,
		EndFrame:    10,
		ForceVector: r3.Vec{Z: -1},
		Wind:        forces.Wind{Max: 1, Freq: 0.5},
		BakeWeight:  1,
		BakeMode:    BlendOverride,
	}
}

// Validate rejects frame ranges the driver cannot run.
func (p Parameters) Validate() error {
	if p.StartFrame >= p.EndFrame {
		return fmt.Errorf("%w: start %d, end %d", ErrFrameRange, p.StartFrame, p.EndFrame)
	}
	if span := p.EndFrame - p.StartFrame; span > MaxFrameSpan {
		return fmt.Errorf("%w: %d frames, max %d", ErrSpanTooLong, span, MaxFrameSpan)
	}
	return nil
}

// blending reports whether existing animation must be cached and mixed
// back in. At weight 0.999 and above the bake fully overwrites.
func (p Parameters) blending() bool { return p.BakeWeight < 0.999 }
