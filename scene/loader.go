package scene

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/phase/geom"
)

// File is the YAML scene description consumed by the CLI tools.
// Angles are radians, rotations are XYZ euler.
type File struct {
	FPS       float64        `yaml:"fps"`
	Armature  ArmatureSpec   `yaml:"armature"`
	Selected  []string       `yaml:"selection"`
	Fields    []FieldSpec    `yaml:"fields"`
	Colliders []ColliderSpec `yaml:"colliders"`
	Plane     *ObjectSpec    `yaml:"plane"`
	Wind      *ObjectSpec    `yaml:"wind"`
}

// ArmatureSpec describes the bone hierarchy.
type ArmatureSpec struct {
	Location [3]float64 `yaml:"location"`
	Rotation [3]float64 `yaml:"rotation"`
	Bones    []BoneSpec `yaml:"bones"`
}

// BoneSpec describes one bone. Parents must appear before children.
type BoneSpec struct {
	Name       string     `yaml:"name"`
	Parent     string     `yaml:"parent"`
	Head       [3]float64 `yaml:"head"`
	Tail       [3]float64 `yaml:"tail"`
	Roll       float64    `yaml:"roll"`
	HeadRadius float64    `yaml:"head_radius"`
	TailRadius float64    `yaml:"tail_radius"`
}

// FieldSpec describes a scene force source.
type FieldSpec struct {
	Kind        string     `yaml:"kind"` // force | wind | vortex
	Strength    float64    `yaml:"strength"`
	Location    [3]float64 `yaml:"location"`
	Rotation    [3]float64 `yaml:"rotation"`
	MinDistance float64    `yaml:"min_distance"` // 0 = unused
	MaxDistance float64    `yaml:"max_distance"` // 0 = unused
}

// ColliderSpec describes a candidate collision object.
type ColliderSpec struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape"` // box | sphere | capsule | cylinder | convex_hull | mesh
	Location [3]float64 `yaml:"location"`
	Rotation [3]float64 `yaml:"rotation"`
	Dims     [3]float64 `yaml:"dims"`
	Margin   float64    `yaml:"margin"`
	Physics  bool       `yaml:"physics"`
}

// ObjectSpec is a bare transform-carrying object (wind driver, plane).
type ObjectSpec struct {
	Location [3]float64 `yaml:"location"`
	Rotation [3]float64 `yaml:"rotation"`
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

func objTransform(loc, rot [3]float64) geom.Transform {
	m := geom.FromQuat(geom.EulerToQuat(vec(rot)))
	m.T = vec(loc)
	return m
}

// Load reads a scene file from disk and builds the world plus the
// selection of bones to simulate.
func Load(path string) (*World, []BoneID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scene file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing scene file: %w", err)
	}
	return Build(&f)
}

// Build constructs a world from a parsed scene description.
func Build(f *File) (*World, []BoneID, error) {
	fps := f.FPS
	if fps <= 0 {
		fps = 24
	}
	w := NewWorld(fps)
	w.SetRoot(objTransform(f.Armature.Location, f.Armature.Rotation))

	for _, bs := range f.Armature.Bones {
		parent := None
		if bs.Parent != "" {
			p, ok := w.Find(bs.Parent)
			if !ok {
				return nil, nil, fmt.Errorf("bone %q: unknown parent %q (parents must be declared first)", bs.Name, bs.Parent)
			}
			parent = p
		}
		if _, err := w.AddBone(bs.Name, parent, vec(bs.Head), vec(bs.Tail), bs.Roll, bs.HeadRadius, bs.TailRadius); err != nil {
			return nil, nil, err
		}
	}

	var selection []BoneID
	for _, name := range f.Selected {
		id, ok := w.Find(name)
		if !ok {
			return nil, nil, fmt.Errorf("selection: unknown bone %q", name)
		}
		selection = append(selection, id)
	}

	for _, fs := range f.Fields {
		kind, err := parseFieldKind(fs.Kind)
		if err != nil {
			return nil, nil, err
		}
		w.AddField(ForceSource{
			Kind:           kind,
			Strength:       fs.Strength,
			Transform:      objTransform(fs.Location, fs.Rotation),
			UseMinDistance: fs.MinDistance > 0,
			UseMaxDistance: fs.MaxDistance > 0,
			MinDistance:    fs.MinDistance,
			MaxDistance:    fs.MaxDistance,
		})
	}

	for _, cs := range f.Colliders {
		shape, err := parseShape(cs.Shape)
		if err != nil {
			return nil, nil, fmt.Errorf("collider %q: %w", cs.Name, err)
		}
		w.AddCollider(Collider{
			Name:       cs.Name,
			Shape:      shape,
			Transform:  objTransform(cs.Location, cs.Rotation),
			Dims:       vec(cs.Dims),
			Margin:     cs.Margin,
			HasPhysics: cs.Physics,
		})
	}

	if f.Plane != nil {
		w.SetPlaneObject(objTransform(f.Plane.Location, f.Plane.Rotation))
	}
	if f.Wind != nil {
		w.SetWindObject(objTransform(f.Wind.Location, f.Wind.Rotation))
	}
	return w, selection, nil
}

func parseFieldKind(s string) (FieldKind, error) {
	switch s {
	case "force", "":
		return FieldForce, nil
	case "wind":
		return FieldWind, nil
	case "vortex":
		return FieldVortex, nil
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

func parseShape(s string) (CollisionShape, error) {
	switch s {
	case "box", "":
		return ShapeBox, nil
	case "sphere":
		return ShapeSphere, nil
	case "capsule":
		return ShapeCapsule, nil
	case "cylinder":
		return ShapeCylinder, nil
	case "convex_hull":
		return ShapeConvexHull, nil
	case "mesh":
		return ShapeMesh, nil
	}
	return 0, fmt.Errorf("unknown collision shape %q", s)
}
