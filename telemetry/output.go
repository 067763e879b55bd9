package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/phase/scene"
)

// CurveRecord is one baked key as a CSV row.
type CurveRecord struct {
	Bone   string  `csv:"bone"`
	Frame  int     `csv:"frame"`
	LocX   float64 `csv:"loc_x"`
	LocY   float64 `csv:"loc_y"`
	LocZ   float64 `csv:"loc_z"`
	QuatW  float64 `csv:"quat_w"`
	QuatX  float64 `csv:"quat_x"`
	QuatY  float64 `csv:"quat_y"`
	QuatZ  float64 `csv:"quat_z"`
	EulerX float64 `csv:"euler_x"`
	EulerY float64 `csv:"euler_y"`
	EulerZ float64 `csv:"euler_z"`
	ScaleX float64 `csv:"scale_x"`
	ScaleY float64 `csv:"scale_y"`
	ScaleZ float64 `csv:"scale_z"`
}

// OutputManager writes baked curves and performance stats to an output
// directory as CSV. A nil manager is valid and discards everything.
type OutputManager struct {
	dir        string
	curvesFile *os.File
	perfFile   *os.File

	curvesHeaderWritten bool
	perfHeaderWritten   bool
}

// NewOutputManager initializes the output directory. Returns nil if dir
// is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "curves.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating curves.csv: %w", err)
	}
	om.curvesFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.curvesFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// Dir returns the output directory, empty when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// ExportCurves dumps every key of the given bones as CSV rows, sampling
// the world at each keyed frame.
func (om *OutputManager) ExportCurves(w *scene.World, bones []scene.BoneID) error {
	if om == nil {
		return nil
	}
	var records []CurveRecord
	for _, b := range bones {
		name := w.Name(b)
		for _, frame := range w.KeyFrames(b) {
			w.SetFrame(frame)
			w.Flush()
			ch := w.Channels(b)
			records = append(records, CurveRecord{
				Bone:   name,
				Frame:  frame,
				LocX:   ch.Loc.X,
				LocY:   ch.Loc.Y,
				LocZ:   ch.Loc.Z,
				QuatW:  ch.RotQuat.Real,
				QuatX:  ch.RotQuat.Imag,
				QuatY:  ch.RotQuat.Jmag,
				QuatZ:  ch.RotQuat.Kmag,
				EulerX: ch.RotEuler.X,
				EulerY: ch.RotEuler.Y,
				EulerZ: ch.RotEuler.Z,
				ScaleX: ch.Scale.X,
				ScaleY: ch.Scale.Y,
				ScaleZ: ch.Scale.Z,
			})
		}
	}
	if len(records) == 0 {
		return nil
	}

	if !om.curvesHeaderWritten {
		if err := gocsv.Marshal(records, om.curvesFile); err != nil {
			return fmt.Errorf("writing curves: %w", err)
		}
		om.curvesHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.curvesFile); err != nil {
			return fmt.Errorf("writing curves: %w", err)
		}
	}
	return nil
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	return nil
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, f := range []*os.File{om.curvesFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
