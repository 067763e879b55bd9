// Package telemetry records bake timings and exports baked curves and
// run statistics as CSV for offline inspection.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one bake frame.
const (
	PhaseFlush    = "flush"
	PhaseStep     = "step"
	PhasePrepass  = "prepass"
	PhaseKeywrite = "keywrite"
)

// PerfSample holds timing data for a single baked frame.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks bake timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Render timing for the interactive preview.
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new baked frame.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes the current frame and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records render timing for the preview window.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated timings.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var totalTick time.Duration
	var minTick, maxTick time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalTick += s.TickDuration
		if i == 0 || s.TickDuration < minTick {
			minTick = s.TickDuration
		}
		if s.TickDuration > maxTick {
			maxTick = s.TickDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgTick := totalTick / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgTick) * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogStats logs the aggregated timings.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgTickDuration.Microseconds(),
		"min_frame_us", s.MinTickDuration.Microseconds(),
		"max_frame_us", s.MaxTickDuration.Microseconds(),
		"frames_per_sec", int(s.TicksPerSecond),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, "pct_"+phase, int(pct))
	}
	slog.Info("bake perf", attrs...)
}

// PerfStatsCSV is the flattened CSV row for perf.csv.
type PerfStatsCSV struct {
	WindowEnd  int   `csv:"window_end_frame"`
	AvgTickUs  int64 `csv:"avg_frame_us"`
	MinTickUs  int64 `csv:"min_frame_us"`
	MaxTickUs  int64 `csv:"max_frame_us"`
	FramesPerS int   `csv:"frames_per_sec"`
	FlushUs    int64 `csv:"flush_us"`
	StepUs     int64 `csv:"step_us"`
}

// ToCSV flattens stats for CSV output.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:  windowEnd,
		AvgTickUs:  s.AvgTickDuration.Microseconds(),
		MinTickUs:  s.MinTickDuration.Microseconds(),
		MaxTickUs:  s.MaxTickDuration.Microseconds(),
		FramesPerS: int(s.TicksPerSecond),
		FlushUs:    s.PhaseAvg[PhaseFlush].Microseconds(),
		StepUs:     s.PhaseAvg[PhaseStep].Microseconds(),
	}
}
