// Package game wires the fluid solver to a raylib window or a headless loop,
// with telemetry collection and CSV output.
package game

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/camera"
	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/fluid"
	"github.com/pthm-cable/sph/renderer"
	"github.com/pthm-cable/sph/telemetry"
)

// maxStepsPerUpdate bounds the , / . speed control.
const maxStepsPerUpdate = 10

// Options configures game creation.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Logger         *slog.Logger   // nil = slog.Default()
	LogStats       bool
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	OutputDir      string
	SnapshotPath   string // resume from this snapshot instead of seeding
	Headless       bool
	StepsPerUpdate int
}

// Game holds the simulation and its presentation state.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger
	solver *fluid.Solver

	// Rendering (nil in headless mode)
	camera    *camera.Camera
	particles *renderer.ParticleRenderer
	hud       *hud

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	logStats      bool
	lastStats     telemetry.WindowStats
	statsCallback func(telemetry.WindowStats)

	// Reused buffers
	sample    fluid.Sample
	positions []r2.Vec
	reports   []fluid.SpawnReport
	state     []fluid.Particle

	// State
	paused         bool
	stepsPerUpdate int
	err            error // first fatal step error; the game stops stepping

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game, seeding the dam break or restoring a
// snapshot. Graphical mode must be called after the raylib window exists.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = cfg.Solver.StepsPerFrame
	}
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:            cfg,
		logger:         logger,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:      telemetry.NewCollector(statsWindow, cfg.Fluid.Timestep, cfg.Fluid.RestDensity),
		logStats:       opts.LogStats,
		stepsPerUpdate: steps,
		screenWidth:    cfg.Derived.ScreenW32,
		screenHeight:   cfg.Derived.ScreenH32,
	}

	solver, err := fluid.New(cfg,
		fluid.WithLogger(logger),
		fluid.WithStageHook(g.perfCollector.StartPhase),
	)
	if err != nil {
		return nil, fmt.Errorf("creating solver: %w", err)
	}
	g.solver = solver

	if err := g.initState(opts.SnapshotPath); err != nil {
		solver.Close()
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		solver.Close()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}

	if !opts.Headless {
		g.camera = camera.New(g.screenWidth, g.screenHeight, float32(cfg.Domain.Width), float32(cfg.Domain.Height))
		g.particles = renderer.NewParticleRenderer(cfg.Derived.PointRadius32)
		g.hud = newHUD()
	}

	return g, nil
}

// initState seeds the initial dam break, or restores a snapshot if path is set.
func (g *Game) initState(path string) error {
	if path == "" {
		placed := g.solver.Seed()
		g.collector.RecordSpawn(fluid.SpawnKindReset, placed, nil)
		return nil
	}

	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if snap.DomainWidth != g.cfg.Domain.Width || snap.DomainHeight != g.cfg.Domain.Height {
		g.logger.Warn("snapshot domain differs from config",
			"snapshot_width", snap.DomainWidth, "snapshot_height", snap.DomainHeight,
			"width", g.cfg.Domain.Width, "height", g.cfg.Domain.Height)
	}
	if err := g.solver.Restore(snap.Tick, snap.FluidParticles()); err != nil {
		return fmt.Errorf("restoring snapshot %s: %w", path, err)
	}
	return nil
}

// SetStatsCallback registers a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Update runs one frame of the graphical game: input, then simulation steps.
func (g *Game) Update() {
	g.handleInput()

	if g.paused || g.err != nil {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			g.paused = true
			return
		}
	}
}

// UpdateHeadless runs stepsPerUpdate steps without any rendering or input.
// Returns the fatal step error, if any; later calls keep returning it.
func (g *Game) UpdateHeadless() error {
	if g.err != nil {
		return g.err
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// step advances the solver once and handles telemetry.
func (g *Game) step() error {
	g.perfCollector.StartTick()

	if err := g.solver.Step(); err != nil {
		g.perfCollector.EndTick()
		g.fail(err)
		return err
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.reports = g.solver.DrainReports(g.reports[:0])
	g.collector.RecordReports(g.reports)
	g.flushTelemetry()
	g.perfCollector.EndTick()
	return nil
}

// fail records a fatal step error and saves the offending state.
func (g *Game) fail(err error) {
	g.err = err
	g.logger.Error("simulation stopped", "tick", g.solver.Tick(), "error", err)
	g.saveSnapshot("step_error")
}

// spawnBlock spawns the default block: queued while running, immediate while
// paused so the result is visible.
func (g *Game) spawnBlock() {
	center, size := g.solver.Params().DefaultBlock()
	if !g.paused {
		g.solver.RequestSpawn(center, size)
		return
	}
	placed, err := g.solver.SpawnBlock(center, size)
	g.collector.RecordSpawn(fluid.SpawnKindBlock, placed, err)
}

// spawnBurst spawns a burst at a world position.
func (g *Game) spawnBurst(at r2.Vec) {
	if !g.paused {
		g.solver.RequestBurst(at)
		return
	}
	placed, err := g.solver.SpawnBurst(at)
	g.collector.RecordSpawn(fluid.SpawnKindBurst, placed, err)
}

// reset clears and re-seeds the simulation. After a failed step this is the
// way back: the reset is applied at once and the error cleared.
func (g *Game) reset() {
	if g.err != nil {
		placed := g.solver.Reset()
		g.collector.RecordSpawn(fluid.SpawnKindReset, placed, nil)
		g.logger.Info("simulation reset after failure", "previous_error", g.err, "particles", placed)
		g.err = nil
		return
	}
	if !g.paused {
		g.solver.RequestReset()
		return
	}
	placed := g.solver.Reset()
	g.collector.RecordSpawn(fluid.SpawnKindReset, placed, nil)
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int64 {
	return g.solver.Tick()
}

// Err returns the fatal step error, or nil while the simulation is healthy.
func (g *Game) Err() error {
	return g.err
}

// Solver exposes the underlying solver.
func (g *Game) Solver() *fluid.Solver {
	return g.solver
}

// Unload stops workers and closes output files.
func (g *Game) Unload() {
	g.solver.Close()
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
}
