package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pthm-cable/phase/config"
	"github.com/pthm-cable/phase/scene"
	"github.com/pthm-cable/phase/sim"
	"github.com/pthm-cable/phase/telemetry"
)

func main() {
	// CLI flags
	scenePath := flag.String("scene", "", "Path to scene.yaml (required)")
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	preset := flag.String("preset", "", "Named preset to load instead of -config")
	presetDir := flag.String("preset-dir", "presets", "Directory holding preset files")
	startFrame := flag.Int("start", 0, "Start frame (0 = use config)")
	endFrame := flag.Int("end", 0, "End frame (0 = use config)")
	loop := flag.Bool("loop", false, "Match the end pose to the start pose")
	outputDir := flag.String("output-dir", "", "Output directory for CSV curves and config snapshot (empty = use config)")
	logText := flag.Bool("log-text", false, "Log as text instead of JSON")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if *logText {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	if *scenePath == "" {
		slog.Error("missing required -scene flag")
		flag.Usage()
		os.Exit(2)
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *preset != "" {
		loaded, err := config.LoadPreset(*presetDir, *preset)
		if err != nil {
			slog.Error("failed to load preset", "preset", *preset, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	world, selection, err := scene.Load(*scenePath)
	if err != nil {
		slog.Error("failed to load scene", "path", *scenePath, "error", err)
		os.Exit(1)
	}

	params, err := cfg.Params()
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if *startFrame != 0 {
		params.StartFrame = *startFrame
	}
	if *endFrame != 0 {
		params.EndFrame = *endFrame
	}
	if *loop {
		params.Loop = true
	}

	outDir := cfg.Telemetry.OutputDir
	if *outputDir != "" {
		outDir = *outputDir
	}
	output, err := telemetry.NewOutputManager(outDir)
	if err != nil {
		slog.Error("failed to create output directory", "dir", outDir, "error", err)
		os.Exit(1)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	// SIGINT/SIGTERM cancel the bake at the next frame boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := func(current, total int) {
		if total > 0 && (current%24 == 0 || current == total) {
			slog.Info("baking", "frame", current, "total", total)
		}
	}

	baker := sim.New(world, selection, params,
		sim.WithLogger(slog.Default()),
		sim.WithProgress(progress),
		sim.WithPerf(perf),
	)

	report, err := baker.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("bake canceled")
			os.Exit(130)
		}
		slog.Error("bake failed", "error", err)
		os.Exit(1)
	}

	stats := perf.Stats()
	stats.LogStats()
	slog.Info("bake finished",
		"frames", report.Frames,
		"chains", report.Chains,
		"bones", report.Bones,
		"skipped_colliders", len(report.SkippedColliders),
		"auto_registered", len(report.AutoRegistered),
	)

	if output != nil {
		if err := output.ExportCurves(world, selection); err != nil {
			slog.Error("failed to export curves", "error", err)
		}
		if err := output.WritePerf(stats, report.Frames); err != nil {
			slog.Error("failed to write perf stats", "error", err)
		}
		if err := cfg.WriteYAML(filepath.Join(output.Dir(), "config.yaml")); err != nil {
			slog.Error("failed to snapshot config", "error", err)
		}
		if err := output.Close(); err != nil {
			slog.Error("failed to close output files", "error", err)
		}
		slog.Info("output written", "dir", output.Dir())
	}
}
