package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in simulation seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config copy and snapshots")
	snapshot := flag.String("snapshot", "", "Resume from a snapshot file instead of seeding")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, which defaults to time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 0, "Simulation steps per update call (0 = use config)")
	workers := flag.Int("workers", -1, "Solver worker goroutines (0 = GOMAXPROCS, -1 = use config)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *seed != 0 {
		cfg.Seeding.Seed = *seed
	}
	if *workers >= 0 {
		cfg.Solver.Workers = *workers
	}

	opts := game.Options{
		Config:         cfg,
		Logger:         logger,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		SnapshotPath:   *snapshot,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		os.Exit(runHeadless(opts, int64(*maxTicks)))
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Derived.ScreenW32), int32(cfg.Derived.ScreenH32), "SPH Fluid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		rl.CloseWindow()
		os.Exit(1)
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && g.Tick() >= int64(*maxTicks) {
			break
		}
	}
}

// runHeadless steps the simulation without raylib and returns the exit code.
func runHeadless(opts game.Options, maxTicks int64) int {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Config.Seeding.Seed,
		"particles", g.Solver().Len(),
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		if err := g.UpdateHeadless(); err != nil {
			return 1
		}

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return 0
		}
	}
}
