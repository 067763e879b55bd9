// Package config provides configuration loading and access for the baker.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/phase/forces"
	"github.com/pthm-cable/phase/sim"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the operator-facing bake settings. Spring values are in
// UI units; Params maps them to core units.
type Config struct {
	Spring    SpringConfig    `yaml:"spring"`
	Bake      BakeConfig      `yaml:"bake"`
	Force     ForceConfig     `yaml:"force"`
	Fields    FieldsConfig    `yaml:"fields"`
	Wind      WindConfig      `yaml:"wind"`
	Collision CollisionConfig `yaml:"collision"`
	Blend     BlendConfig     `yaml:"blend"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Preview   PreviewConfig   `yaml:"preview"`
}

// SpringConfig holds the integrator controls in operator units:
// delay 1-30, recursion 0-10, strength 1-10.
type SpringConfig struct {
	Delay     float64 `yaml:"delay"`
	Recursion float64 `yaml:"recursion"`
	Strength  float64 `yaml:"strength"`
	Twist     float64 `yaml:"twist"`
	Tension   float64 `yaml:"tension"`
	Inertia   float64 `yaml:"inertia"`
	Extend    float64 `yaml:"extend"`
	SubSteps  int     `yaml:"sub_steps"`
	Threshold float64 `yaml:"threshold"`
}

// BakeConfig holds the frame range.
type BakeConfig struct {
	StartFrame int  `yaml:"start_frame"`
	EndFrame   int  `yaml:"end_frame"`
	Loop       bool `yaml:"loop"`
}

// ForceConfig holds the constant directional force.
type ForceConfig struct {
	Enabled  bool       `yaml:"enabled"`
	Vector   [3]float64 `yaml:"vector"`
	Strength float64    `yaml:"strength"`
}

// FieldsConfig toggles scene force fields.
type FieldsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WindConfig holds the oscillating wind driver settings.
type WindConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Frequency  float64 `yaml:"frequency"`
	Turbulence float64 `yaml:"turbulence"`
	Seed       int64   `yaml:"seed"`
}

// CollisionConfig holds the collision feature toggles.
type CollisionConfig struct {
	Bones        bool    `yaml:"bones"`
	Margin       float64 `yaml:"margin"`
	LengthOffset float64 `yaml:"length_offset"`
	Plane        bool    `yaml:"plane"`
	Primitives   bool    `yaml:"primitives"`
	AutoRegister bool    `yaml:"auto_register"`
}

// BlendConfig holds bake blending settings.
type BlendConfig struct {
	Weight float64 `yaml:"weight"`
	Mode   string  `yaml:"mode"` // override | additive
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	OutputDir  string `yaml:"output_dir"`
	PerfWindow int    `yaml:"perf_window"`
}

// PreviewConfig holds the preview window settings.
type PreviewConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

var global *Config

// Init loads configuration and makes it globally available.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Overwrites only the fields present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Params maps operator units onto core simulation parameters:
// recursion is divided by 10, strength is compressed toward 1, and all
// values are clamped to their documented bounds.
func (c *Config) Params() (sim.Parameters, error) {
	mode := sim.BlendOverride
	switch c.Blend.Mode {
	case "override", "":
	case "additive":
		mode = sim.BlendAdditive
	default:
		return sim.Parameters{}, fmt.Errorf("unknown blend mode %q", c.Blend.Mode)
	}

	s := c.Spring
	p := sim.Parameters{
		Delay:     clamp(s.Delay, 1, 30),
		Recursion: clamp(s.Recursion, 0, 10) / 10,
		Strength:  1 + (clamp(s.Strength, 1, 10)-1)/10,
		Twist:     clamp(s.Twist, 0, 1),
		Tension:   clamp(s.Tension, 0, 1),
		Inertia:   clamp(s.Inertia, 0, 1),
		Extend:    max(0, s.Extend),
		SubSteps:  max(1, s.SubSteps),
		Threshold: clamp(s.Threshold, 1e-5, 0.1),

		StartFrame: c.Bake.StartFrame,
		EndFrame:   c.Bake.EndFrame,

		UseForce:      c.Force.Enabled,
		ForceVector:   r3.Vec{X: c.Force.Vector[0], Y: c.Force.Vector[1], Z: c.Force.Vector[2]},
		ForceStrength: c.Force.Strength,

		UseSceneFields: c.Fields.Enabled,

		UseWindObject: c.Wind.Enabled,
		Wind: forces.Wind{
			Min:        c.Wind.Min,
			Max:        c.Wind.Max,
			Freq:       c.Wind.Frequency,
			Turbulence: c.Wind.Turbulence,
			Seed:       c.Wind.Seed,
		},

		UseCollision:           c.Collision.Bones,
		CollisionMargin:        c.Collision.Margin,
		CollisionLengthOffset:  c.Collision.LengthOffset,
		UseCollisionPlane:      c.Collision.Plane,
		UseCollisionPrimitives: c.Collision.Primitives,
		AutoRegisterColliders:  c.Collision.AutoRegister,

		BakeWeight: clamp(c.Blend.Weight, 0, 1),
		BakeMode:   mode,
		Loop:       c.Bake.Loop,
	}
	return p, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
