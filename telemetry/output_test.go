package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/phase/scene"
)

func TestNilOutputManagerIsNoOp(t *testing.T) {
	var om *OutputManager
	if om.Dir() != "" {
		t.Error("nil manager has a dir")
	}
	if err := om.ExportCurves(nil, nil); err != nil {
		t.Errorf("ExportCurves on nil: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Errorf("WritePerf on nil: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestDisabledOutput(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Error("empty dir should disable output")
	}
}

func TestExportCurves(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	w := scene.NewWorld(24)
	id, err := w.AddBone("tail", scene.None, r3.Vec{}, r3.Vec{Y: 1}, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.InsertKey(id, 1)
	ch := w.Channels(id)
	ch.Loc = r3.Vec{X: 0.5}
	w.SetChannels(id, ch)
	w.InsertKey(id, 2)

	if err := om.ExportCurves(w, []scene.BoneID{id}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "curves.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("curves.csv has %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "bone,frame,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "tail,1,") || !strings.HasPrefix(lines[2], "tail,2,") {
		t.Errorf("rows = %q, %q", lines[1], lines[2])
	}
}

func TestWritePerfHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	stats := PerfStats{PhaseAvg: map[string]time.Duration{}}
	if err := om.WritePerf(stats, 10); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(stats, 20); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("perf.csv has %d lines, want header + 2 rows", len(lines))
	}
}
