// Package main calibrates the particle mass so that the seeded dam-break
// lattice sits at rest density, using Nelder-Mead over a log-scaled range.
//
// Usage: go run ./cmd/calibrate -output runs/calibrate
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/telemetry"
)

// evalRow is one line of calibrate_log.csv.
type evalRow struct {
	Eval          int     `csv:"eval"`
	Fitness       float64 `csv:"fitness"`
	ParticleMass  float64 `csv:"particle_mass"`
	MedianDensity float64 `csv:"median_density"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	steps := flag.Int("steps", 1, "Solver steps before sampling densities")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	tolerance := flag.Float64("tolerance", 1e-8, "Stop once fitness drops below this")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, *steps, evalSeeds, baseCfg)
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	evalLog, err := telemetry.CreateCSVLog(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer evalLog.Close()

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = append(bestParams[:0], raw...)
			}

			row := []evalRow{{
				Eval:          evalCount,
				Fitness:       fitness,
				ParticleMass:  raw[0],
				MedianDensity: evaluator.LastMedian(),
			}}
			if err := evalLog.Write(row); err != nil {
				log.Printf("failed to write log row: %v", err)
			}

			elapsed := time.Since(startTime)
			fmt.Printf("Eval %d/%d: mass=%.6g median_density=%.6g fitness=%.3g (best=%.3g) | elapsed: %s\n",
				evalCount, *maxEvals, raw[0], evaluator.LastMedian(), fitness, bestFitness,
				formatDuration(elapsed))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   *tolerance,
			Iterations: 20,
		},
	}

	fmt.Printf("Starting Nelder-Mead calibration with %d parameters, max_evals=%d\n", params.Dim(), *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, steps per run: %d, rest density: %g\n",
		*seeds, *steps, baseCfg.Fluid.RestDensity)

	result, err := optimize.Minimize(problem, initX, settings, &optimize.NelderMead{})
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.3g\n", evaluator.BestFitness())

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6g\n", spec.Path, bestParams[i])
	}

	// Save best config
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
