package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/fluid"
	"github.com/pthm-cable/sph/telemetry"
)

// failurePenalty is the fitness of a run whose solver failed.
const failurePenalty = 1e6

// FitnessEvaluator seeds the dam break with candidate parameters and scores
// how far the median particle density lands from rest density.
type FitnessEvaluator struct {
	params     *ParamVector
	steps      int
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	mu          sync.Mutex
	lastMedian  float64 // median density from most recent Evaluate call
	bestFitness float64
}

// NewFitnessEvaluator creates a new evaluator. steps is the number of solver
// steps run before sampling (at least one, so densities are computed).
func NewFitnessEvaluator(params *ParamVector, steps int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	if steps < 1 {
		steps = 1
	}
	return &FitnessEvaluator{
		params:      params,
		steps:       steps,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// LastMedian returns the mean median density from the most recent evaluation.
func (fe *FitnessEvaluator) LastMedian() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMedian
}

// BestFitness returns the lowest fitness seen so far.
func (fe *FitnessEvaluator) BestFitness() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness
}

// Evaluate computes fitness for a raw parameter vector (lower = better):
// the squared relative error of the median density, averaged over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]float64, len(fe.seeds))
	medians := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			median, ok := fe.runSimulation(x, s)
			medians[idx] = median
			if !ok {
				results[idx] = failurePenalty
				return
			}
			rel := median/fe.baseConfig.Fluid.RestDensity - 1
			results[idx] = rel * rel
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalMedian float64
	for i := range results {
		totalFitness += results[i]
		totalMedian += medians[i]
	}
	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	fe.lastMedian = totalMedian / n
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation seeds one solver and returns the median density after the
// configured number of steps. ok is false if the solver could not be built or
// a step failed.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (median float64, ok bool) {
	cfg := fe.copyConfig()
	cfg.Seeding.Seed = seed
	fe.params.ApplyToConfig(cfg, x)

	// Seeds already run concurrently, so each solver stays on one goroutine
	solver, err := fluid.New(cfg, fluid.WithRunner(fluid.Sequential{}), fluid.WithLogger(fe.logger))
	if err != nil {
		return 0, false
	}
	defer solver.Close()

	solver.Seed()
	for i := 0; i < fe.steps; i++ {
		if err := solver.Step(); err != nil {
			return 0, false
		}
	}

	var sample fluid.Sample
	solver.Sample(&sample)
	d, _ := telemetry.ComputeDistribution(sample.Densities, nil)
	return d.P50, true
}

// copyConfig returns an independent copy of the base configuration.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
