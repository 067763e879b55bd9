// Bake preview tool - interactive 3D visualization with sliders.
//
// Usage: go run ./cmd/preview -scene scene.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/charmbracelet/harmonica"
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/config"
	"github.com/pthm-cable/phase/scene"
	"github.com/pthm-cable/phase/sim"
)

const panelWidth = 300

// rlVec maps a Z-up scene position onto raylib's Y-up space.
func rlVec(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Z), Z: float32(v.Y)}
}

func toggleText(on bool, whenOn, whenOff string) string {
	if on {
		return whenOn
	}
	return whenOff
}

// orbitCamera smooths distance and height toward their targets so wheel
// and key input never snap the view.
type orbitCamera struct {
	spring     harmonica.Spring
	yaw        float64
	dist, dVel float64
	height     float64
	hVel       float64
	distTarget float64
	heightTgt  float64
}

func newOrbitCamera(fps int) *orbitCamera {
	return &orbitCamera{
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.9),
		yaw:        0.8,
		dist:       8,
		distTarget: 8,
		height:     3,
		heightTgt:  3,
	}
}

func (c *orbitCamera) update() rl.Camera3D {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		c.yaw += float64(rl.GetMouseDelta().X) * 0.01
		c.heightTgt += float64(rl.GetMouseDelta().Y) * 0.02
	}
	c.distTarget -= float64(rl.GetMouseWheelMove()) * 0.5
	c.distTarget = min(max(c.distTarget, 1), 50)

	c.dist, c.dVel = c.spring.Update(c.dist, c.dVel, c.distTarget)
	c.height, c.hVel = c.spring.Update(c.height, c.hVel, c.heightTgt)

	return rl.Camera3D{
		Position: rl.Vector3{
			X: float32(c.dist * math.Cos(c.yaw)),
			Y: float32(c.height),
			Z: float32(c.dist * math.Sin(c.yaw)),
		},
		Target:     rl.Vector3{Y: 1},
		Up:         rl.Vector3{Y: 1},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

func main() {
	scenePath := flag.String("scene", "", "Path to scene.yaml (required)")
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *scenePath == "" {
		slog.Error("missing required -scene flag")
		flag.Usage()
		os.Exit(2)
	}
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	world, selection, err := scene.Load(*scenePath)
	if err != nil {
		slog.Error("failed to load scene", "path", *scenePath, "error", err)
		os.Exit(1)
	}
	selected := make(map[scene.BoneID]bool, len(selection))
	for _, b := range selection {
		selected[b] = true
	}

	rl.InitWindow(int32(cfg.Preview.Width), int32(cfg.Preview.Height), "Phase Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Preview.TargetFPS))

	cam := newOrbitCamera(cfg.Preview.TargetFPS)

	bake := func() {
		params, err := cfg.Params()
		if err != nil {
			slog.Error("invalid config", "error", err)
			return
		}
		report, err := sim.New(world, selection, params).Run(context.Background())
		if err != nil {
			slog.Error("bake failed", "error", err)
			return
		}
		slog.Info("bake finished", "frames", report.Frames, "bones", report.Bones)
	}
	bake()

	playing := true
	frame := float64(cfg.Bake.StartFrame)

	for !rl.WindowShouldClose() {
		sf, ef := float64(cfg.Bake.StartFrame), float64(cfg.Bake.EndFrame)
		if playing {
			frame += float64(rl.GetFrameTime()) * world.FPS()
			if frame > ef {
				frame = sf
			}
		}
		world.SetFrame(int(frame))
		world.Flush()

		camera := cam.update()

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.BeginMode3D(camera)
		rl.DrawGrid(20, 0.5)

		root := world.Root()
		for _, b := range world.Bones() {
			head := rlVec(root.ApplyPoint(world.Head(b)))
			tail := rlVec(root.ApplyPoint(world.Tail(b)))
			tint := rl.Gray
			if selected[b] {
				tint = rl.Orange
			}
			rl.DrawCylinderEx(head, tail, 0.02, 0.02, 6, tint)
			rl.DrawSphere(tail, 0.035, tint)
		}
		for _, col := range world.Colliders() {
			pos := rlVec(col.Transform.T)
			switch col.Shape {
			case scene.ShapeSphere:
				r := max(col.Dims.X, col.Dims.Y, col.Dims.Z) / 2
				rl.DrawSphereWires(pos, float32(r), 8, 8, rl.SkyBlue)
			default:
				rl.DrawCubeWiresV(pos, rlVec(col.Dims), rl.SkyBlue)
			}
		}
		rl.EndMode3D()

		// Control panel
		panelX := float32(cfg.Preview.Width - panelWidth)
		panelY := float32(10)
		slider := func(label string, v *float64, lo, hi float64) {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			got := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 80, Height: 20},
				fmt.Sprintf("%.0f", lo), fmt.Sprintf("%.0f", hi),
				float32(*v), float32(lo), float32(hi),
			)
			rl.DrawText(fmt.Sprintf("%.2f", *v), int32(panelX+panelWidth-70), int32(panelY+2), 16, rl.DarkGray)
			*v = float64(got)
			panelY += 32
		}

		rl.DrawText("Spring", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 30
		slider("Delay", &cfg.Spring.Delay, 1, 30)
		slider("Recursion", &cfg.Spring.Recursion, 0, 10)
		slider("Strength", &cfg.Spring.Strength, 1, 10)
		slider("Twist", &cfg.Spring.Twist, 0, 1)
		slider("Tension", &cfg.Spring.Tension, 0, 1)
		slider("Inertia", &cfg.Spring.Inertia, 0, 1)
		if cfg.Wind.Enabled {
			slider("Wind Max", &cfg.Wind.Max, 0, 5)
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Rebake") {
			bake()
			frame = sf
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30},
			toggleText(playing, "Pause", "Play")) {
			playing = !playing
		}
		panelY += 40

		rl.DrawText(fmt.Sprintf("Frame %d / %d", int(frame), int(ef)), int32(panelX), int32(panelY), 16, rl.DarkGray)

		rl.EndDrawing()
	}
}
