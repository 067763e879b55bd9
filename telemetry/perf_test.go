package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorPhases(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartTick()
	p.StartPhase(PhaseFlush)
	time.Sleep(time.Millisecond)
	p.StartPhase(PhaseStep)
	time.Sleep(time.Millisecond)
	p.EndTick()

	stats := p.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Fatal("no tick duration recorded")
	}
	if stats.PhaseAvg[PhaseFlush] <= 0 || stats.PhaseAvg[PhaseStep] <= 0 {
		t.Errorf("phase averages missing: %+v", stats.PhaseAvg)
	}
	var pctSum float64
	for _, pct := range stats.PhasePct {
		pctSum += pct
	}
	if pctSum < 50 || pctSum > 110 {
		t.Errorf("phase percentages implausible, sum = %v", pctSum)
	}
}

func TestPerfCollectorWindowWraps(t *testing.T) {
	p := NewPerfCollector(3)
	for i := 0; i < 7; i++ {
		p.StartTick()
		p.StartPhase(PhaseStep)
		p.EndTick()
	}
	if p.sampleCount != 3 {
		t.Errorf("sampleCount = %d, want window size 3", p.sampleCount)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	stats := NewPerfCollector(5).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector produced stats: %+v", stats)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		PhaseAvg: map[string]time.Duration{
			PhaseFlush: 500 * time.Microsecond,
			PhaseStep:  time.Millisecond,
		},
	}
	row := stats.ToCSV(42)
	if row.WindowEnd != 42 || row.AvgTickUs != 1500 || row.FlushUs != 500 || row.StepUs != 1000 {
		t.Errorf("ToCSV = %+v", row)
	}
}
