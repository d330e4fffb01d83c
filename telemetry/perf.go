package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/sph/fluid"
)

// Phase names for the simulation step. The solver stages report themselves
// through fluid.WithStageHook; telemetry is timed by the caller.
const (
	PhaseSpawn     = fluid.StageSpawn
	PhaseDensity   = fluid.StageDensity
	PhaseForces    = fluid.StageForces
	PhaseIntegrate = fluid.StageIntegrate
	PhaseTelemetry = "telemetry"
)

// phases lists the phases in step order. A phase's index here is its slot in
// phaseTimes.
var phases = [...]string{PhaseSpawn, PhaseDensity, PhaseForces, PhaseIntegrate, PhaseTelemetry}

const numPhases = len(phases)

// phaseTimes holds one duration per phase.
type phaseTimes [numPhases]time.Duration

func phaseIndex(name string) int {
	for i, p := range phases {
		if p == name {
			return i
		}
	}
	return -1
}

// frameSmoothing is the weight of the newest frame in the FPS average.
const frameSmoothing = 0.1

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       phaseTimes
}

// PerfCollector keeps per-phase step timings over a ring of recent ticks.
// It is driven from one goroutine: the solver's stage hook runs on the
// goroutine that called Step.
type PerfCollector struct {
	ring    []PerfSample
	next    int
	filled  int
	current PerfSample

	tickStart  time.Time
	phaseStart time.Time
	phase      int // index into phases, -1 between phases

	// Frame timing (graphics mode only)
	lastFrame time.Time
	frameAvg  time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (default 60).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		ring:  make([]PerfSample, windowSize),
		phase: -1,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{}
	p.phase = -1
}

// StartPhase closes the running phase and starts timing the named one.
// Names outside the known phases stop attribution until the next call.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phaseIndex(phase)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the running phase and stores the tick in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = -1
	p.current.TickDuration = now.Sub(p.tickStart)

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

// RecordFrame marks a rendered frame. Frame time is an exponential moving
// average seeded with the first measured interval.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		d := now.Sub(p.lastFrame)
		if p.frameAvg == 0 {
			p.frameAvg = d
		} else {
			p.frameAvg += time.Duration(frameSmoothing * float64(d-p.frameAvg))
		}
	}
	p.lastFrame = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Keyed by phase name; phases never entered are absent.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average tick, 0-100

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ticks currently in the ring.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, numPhases),
		PhasePct:      make(map[string]float64, numPhases),
		FrameDuration: p.frameAvg,
	}
	if p.frameAvg > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameAvg)
	}
	if p.filled == 0 {
		return stats
	}

	var total time.Duration
	var sum phaseTimes
	var seen [numPhases]bool
	for i, s := range p.ring[:p.filled] {
		total += s.TickDuration
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		stats.MaxTickDuration = max(stats.MaxTickDuration, s.TickDuration)
		for k, d := range s.Phases {
			sum[k] += d
			seen[k] = seen[k] || d > 0
		}
	}

	n := time.Duration(p.filled)
	stats.AvgTickDuration = total / n
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}

	for k, name := range phases {
		if !seen[k] {
			continue
		}
		avg := sum[k] / n
		stats.PhaseAvg[name] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[name] = 100 * float64(avg) / float64(stats.AvgTickDuration)
		}
	}
	return stats
}

// LogStats logs the stats at info level, rounding phase shares to 0.1%.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS+0.5)))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	Particles    int     `csv:"particles"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	SpawnPct     float64 `csv:"spawn_pct"`
	DensityPct   float64 `csv:"density_pressure_pct"`
	ForcesPct    float64 `csv:"forces_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row. The particle count is
// recorded alongside since all-pairs cost grows with its square.
func (s PerfStats) ToCSV(windowEnd int64, particles int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Particles:    particles,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		SpawnPct:     s.PhasePct[PhaseSpawn],
		DensityPct:   s.PhasePct[PhaseDensity],
		ForcesPct:    s.PhasePct[PhaseForces],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
