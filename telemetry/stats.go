package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Particles int `csv:"particles"`

	// Spawn activity during window
	BlocksSpawned   int `csv:"blocks_spawned"`
	BurstsSpawned   int `csv:"bursts_spawned"`
	ParticlesPlaced int `csv:"particles_placed"`
	SpawnsRejected  int `csv:"spawns_rejected"`
	Resets          int `csv:"resets"`

	// Density distribution (sampled at window end)
	DensityMean  float64 `csv:"density_mean"`
	DensityMin   float64 `csv:"density_min"`
	DensityMax   float64 `csv:"density_max"`
	DensityP50   float64 `csv:"density_p50"`
	DensityP90   float64 `csv:"density_p90"`
	DensityRatio float64 `csv:"density_ratio"` // mean / rest density

	// Pressure and motion
	PressureMean  float64 `csv:"pressure_mean"`
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedMax      float64 `csv:"speed_max"`
	KineticEnergy float64 `csv:"kinetic_energy"`
}

// Quantile returns the empirical p-quantile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Distribution summarises a set of per-particle values.
type Distribution struct {
	Mean, Min, Max, P50, P90 float64
}

// ComputeDistribution calculates mean, range and percentiles. scratch is
// reused for sorting and returned; values is left untouched.
func ComputeDistribution(values, scratch []float64) (Distribution, []float64) {
	if len(values) == 0 {
		return Distribution{}, scratch
	}

	sorted := append(scratch[:0], values...)
	sort.Float64s(sorted)

	return Distribution{
		Mean: stat.Mean(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		P50:  Quantile(sorted, 0.50),
		P90:  Quantile(sorted, 0.90),
	}, sorted
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("blocks_spawned", s.BlocksSpawned),
		slog.Int("bursts_spawned", s.BurstsSpawned),
		slog.Int("particles_placed", s.ParticlesPlaced),
		slog.Int("spawns_rejected", s.SpawnsRejected),
		slog.Int("resets", s.Resets),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_min", s.DensityMin),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("density_ratio", s.DensityRatio),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("kinetic_energy", s.KineticEnergy),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"particles_placed", s.ParticlesPlaced,
		"spawns_rejected", s.SpawnsRejected,
		"resets", s.Resets,
		"density_mean", s.DensityMean,
		"density_p50", s.DensityP50,
		"density_p90", s.DensityP90,
		"density_ratio", s.DensityRatio,
		"pressure_mean", s.PressureMean,
		"speed_max", s.SpeedMax,
		"kinetic_energy", s.KineticEnergy,
	)
}
