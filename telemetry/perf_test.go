package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDensity)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseForces)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseDensity]; !ok {
		t.Error("expected density_pressure phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseForces]; !ok {
		t.Error("expected forces phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDensity)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpawn)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseForces)
		time.Sleep(500 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct[PhaseSpawn]
	slowPct := stats.PhasePct[PhaseForces]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected forces phase (%v%%) > spawn phase (%v%%)", slowPct, fastPct)
	}
	if total := fastPct + slowPct; total > 100.0001 {
		t.Errorf("phase shares sum to %v%%, want <= 100", total)
	}
	// Phases never entered are absent
	if _, ok := stats.PhaseAvg[PhaseIntegrate]; ok {
		t.Error("integrate phase should not be tracked")
	}
}

func TestPerfCollector_UnknownPhaseIgnored(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartTick()
	pc.StartPhase("render")
	time.Sleep(100 * time.Microsecond)
	pc.EndTick()

	stats := pc.Stats()
	if len(stats.PhaseAvg) != 0 {
		t.Errorf("expected no phases, got %v", stats.PhaseAvg)
	}
	if stats.AvgTickDuration < 100*time.Microsecond {
		t.Errorf("tick duration %v should still include the unknown phase", stats.AvgTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond) // ~60fps frame time
	// Second call measures duration
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}

	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}

	// With 16ms frames, expect ~60 FPS (allow range 40-80)
	if stats.FPS < 40 || stats.FPS > 80 {
		t.Errorf("expected FPS between 40-80 with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct: map[string]float64{
			PhaseDensity:   40,
			PhaseForces:    55,
			PhaseIntegrate: 5,
		},
	}

	row := stats.ToCSV(120, 500)
	if row.WindowEnd != 120 || row.Particles != 500 {
		t.Errorf("window_end/particles = %d/%d, want 120/500", row.WindowEnd, row.Particles)
	}
	if row.AvgTickUS != 2000 {
		t.Errorf("avg_tick_us = %d, want 2000", row.AvgTickUS)
	}
	if row.DensityPct != 40 || row.ForcesPct != 55 || row.IntegratePct != 5 {
		t.Errorf("phase pct = %v/%v/%v", row.DensityPct, row.ForcesPct, row.IntegratePct)
	}
	if row.SpawnPct != 0 || row.TelemetryPct != 0 {
		t.Errorf("missing phases should be zero, got %v/%v", row.SpawnPct, row.TelemetryPct)
	}
}
