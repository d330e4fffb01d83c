// Package telemetry provides step timing, windowed fluid statistics, CSV
// output and particle state snapshots.
package telemetry

import (
	"errors"

	"github.com/pthm-cable/sph/fluid"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64
	restDensity         float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	blocksSpawned   int
	burstsSpawned   int
	particlesPlaced int
	spawnsRejected  int
	resets          int

	// Sort buffer reused across flushes
	scratch []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
// restDensity: reference for the reported density ratio
func NewCollector(windowDurationSec, dt, restDensity float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		restDensity:         restDensity,
	}
}

// RecordSpawn records the outcome of a spawn or reset.
func (c *Collector) RecordSpawn(kind string, placed int, err error) {
	if errors.Is(err, fluid.ErrCapacityExceeded) {
		c.spawnsRejected++
		return
	}

	switch kind {
	case fluid.SpawnKindBlock:
		c.blocksSpawned++
	case fluid.SpawnKindBurst:
		c.burstsSpawned++
	case fluid.SpawnKindReset:
		c.resets++
		return
	}
	c.particlesPlaced += placed
}

// RecordReports records the outcomes of queued spawn requests.
func (c *Collector) RecordReports(reports []fluid.SpawnReport) {
	for _, r := range reports {
		c.RecordSpawn(r.Kind, r.Placed, r.Err)
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the sampled particle state and resets
// counters for the next window.
func (c *Collector) Flush(sample *fluid.Sample) WindowStats {
	var density Distribution
	density, c.scratch = ComputeDistribution(sample.Densities, c.scratch)

	var pressureMean, speedMean, speedMax float64
	if len(sample.Pressures) > 0 {
		var pd Distribution
		pd, c.scratch = ComputeDistribution(sample.Pressures, c.scratch)
		pressureMean = pd.Mean

		var sd Distribution
		sd, c.scratch = ComputeDistribution(sample.Speeds, c.scratch)
		speedMean, speedMax = sd.Mean, sd.Max
	}

	var ratio float64
	if c.restDensity > 0 {
		ratio = density.Mean / c.restDensity
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   sample.Tick,
		SimTimeSec:      float64(sample.Tick) * c.dt,

		Particles: len(sample.Densities),

		BlocksSpawned:   c.blocksSpawned,
		BurstsSpawned:   c.burstsSpawned,
		ParticlesPlaced: c.particlesPlaced,
		SpawnsRejected:  c.spawnsRejected,
		Resets:          c.resets,

		DensityMean:  density.Mean,
		DensityMin:   density.Min,
		DensityMax:   density.Max,
		DensityP50:   density.P50,
		DensityP90:   density.P90,
		DensityRatio: ratio,

		PressureMean:  pressureMean,
		SpeedMean:     speedMean,
		SpeedMax:      speedMax,
		KineticEnergy: sample.KineticEnergy,
	}

	// Reset for next window
	c.windowStartTick = sample.Tick
	c.blocksSpawned = 0
	c.burstsSpawned = 0
	c.particlesPlaced = 0
	c.spawnsRejected = 0
	c.resets = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
