// Package fluid implements a 2D SPH (smoothed particle hydrodynamics) solver:
// density and pressure estimation, pressure/viscosity/gravity forces and
// explicit Euler integration over an all-pairs particle set.
package fluid

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/config"
)

// Stage names reported to the stage hook, in execution order.
const (
	StageSpawn     = "spawn"
	StageDensity   = "density_pressure"
	StageForces    = "forces"
	StageIntegrate = "integrate"
)

// Spawn kinds reported in SpawnReport.
const (
	SpawnKindBlock = "block"
	SpawnKindBurst = "burst"
	SpawnKindReset = "reset"
)

// SpawnReport describes the outcome of a spawn or reset request.
type SpawnReport struct {
	Tick   int64
	Kind   string
	Placed int
	Err    error // ErrCapacityExceeded when the store was already full
}

// spawnRequest is a spawn queued from input, applied at the next step boundary.
type spawnRequest struct {
	kind         string
	center, size r2.Vec
}

// Solver owns the particle store and runs the three stages in order.
// All exported methods are safe for concurrent use; a spawn issued while a
// step is running blocks until that step completes.
type Solver struct {
	mu sync.Mutex

	params Params
	store  *Store
	bufs   Buffers
	runner Runner
	pool   *WorkerPool // non-nil when the solver owns its runner
	rng    *rand.Rand
	logger *slog.Logger

	checkFinite bool
	stageHook   func(stage string)
	tick        int64
	failed      error // last fatal step error; cleared by Reset and Restore

	// Input queue, guarded separately so input never waits on a step
	qmu     sync.Mutex
	pending []spawnRequest
	reports []SpawnReport
}

// Option configures a Solver.
type Option func(*Solver)

// WithRunner replaces the worker pool used by the stages.
func WithRunner(r Runner) Option {
	return func(s *Solver) { s.runner = r }
}

// WithRand sets the random source used for seeding jitter and bursts.
func WithRand(rng *rand.Rand) Option {
	return func(s *Solver) { s.rng = rng }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// WithStageHook registers a callback invoked at the start of every stage.
// telemetry.PerfCollector.StartPhase fits this signature.
func WithStageHook(fn func(stage string)) Option {
	return func(s *Solver) { s.stageHook = fn }
}

// New validates cfg and returns a solver with an empty store.
// Call Seed to place the initial particles.
func New(cfg *config.Config, opts ...Option) (*Solver, error) {
	params, err := ParamsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &Solver{
		params:      params,
		store:       NewStore(params.MaxParticles),
		checkFinite: cfg.Solver.CheckFinite,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.runner == nil {
		s.pool = NewWorkerPool(cfg.Solver.Workers, cfg.Solver.ParallelThreshold)
		s.runner = s.pool
	}
	if s.rng == nil {
		seed := cfg.Seeding.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed))
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Close stops the worker pool if the solver owns one.
func (s *Solver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
	}
}

// Params returns the solver's immutable parameters.
func (s *Solver) Params() Params {
	return s.params
}

// Step advances the simulation by one timestep. Queued spawns are applied
// first; then density/pressure, forces and integration run over the whole
// store, each stage finishing for every particle before the next begins.
// An empty store is a no-op. Returned errors are *StepError and fatal: once
// a step fails, Step keeps returning that error until a reset (direct or
// queued) or Restore replaces the state.
func (s *Solver) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hook(StageSpawn)
	s.applyPending()

	if s.failed != nil {
		return s.failed
	}

	if s.store.Len() == 0 {
		s.tick++
		return nil
	}

	s.hook(StageDensity)
	DensityPressure(s.store, &s.params, s.runner, &s.bufs)

	s.hook(StageForces)
	Forces(s.store, &s.params, s.runner, &s.bufs)

	s.hook(StageIntegrate)
	if err := Integrate(s.store, &s.params, s.runner); err != nil {
		return s.stepError(err)
	}

	if s.checkFinite {
		if i := checkFinite(s.store.particles); i >= 0 {
			return s.stepError(&StepError{Particle: i, Stage: StageIntegrate, Wrapped: ErrNonFinite})
		}
	}

	s.tick++
	return nil
}

// stepError stamps the current tick onto a stage error and logs it.
func (s *Solver) stepError(err error) error {
	if se, ok := err.(*StepError); ok {
		se.Tick = s.tick
	}
	s.logger.Error("step failed", "tick", s.tick, "error", err)
	s.failed = err
	return err
}

// Err returns the error that stopped the solver, or nil.
func (s *Solver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *Solver) hook(stage string) {
	if s.stageHook != nil {
		s.stageHook(stage)
	}
}

// Seed adds the initial dam-break configuration to the store.
func (s *Solver) Seed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedLocked()
}

func (s *Solver) seedLocked() int {
	placed := fillDamBreak(s.store, &s.params, s.rng)
	s.logger.Info("initializing dam break", "particles", placed)
	return placed
}

// Reset clears the store and re-seeds it.
func (s *Solver) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

func (s *Solver) resetLocked() int {
	s.store.Clear()
	s.failed = nil
	return s.seedLocked()
}

// SpawnBlock places up to block_size particles on a grid over the rectangle
// centred at center. Returns ErrCapacityExceeded, placing nothing, if the
// store is already full; a block cut short by the cap is not an error.
func (s *Solver) SpawnBlock(center, size r2.Vec) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnLocked(spawnRequest{kind: SpawnKindBlock, center: center, size: size})
}

// SpawnDefaultBlock spawns the block used by the keyboard shortcut.
func (s *Solver) SpawnDefaultBlock() (int, error) {
	center, size := s.params.DefaultBlock()
	return s.SpawnBlock(center, size)
}

// SpawnBurst scatters block_size-1 particles just above and right of center.
// Same capacity semantics as SpawnBlock.
func (s *Solver) SpawnBurst(center r2.Vec) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnLocked(spawnRequest{kind: SpawnKindBurst, center: center})
}

func (s *Solver) spawnLocked(req spawnRequest) (int, error) {
	if req.kind == SpawnKindReset {
		return s.resetLocked(), nil
	}

	if s.store.Full() {
		s.logger.Warn("maximum number of particles reached",
			"kind", req.kind, "particles", s.store.Len())
		return 0, ErrCapacityExceeded
	}

	var placed int
	switch req.kind {
	case SpawnKindBurst:
		placed = fillBurst(s.store, &s.params, req.center, s.rng)
	default:
		placed = fillBlock(s.store, &s.params, req.center, req.size)
	}

	s.logger.Debug("spawned particles",
		"kind", req.kind, "placed", placed, "particles", s.store.Len())
	return placed, nil
}

// RequestSpawn queues a block spawn for the next step boundary. It never
// blocks on a running step.
func (s *Solver) RequestSpawn(center, size r2.Vec) {
	s.enqueue(spawnRequest{kind: SpawnKindBlock, center: center, size: size})
}

// RequestBurst queues a burst spawn for the next step boundary.
func (s *Solver) RequestBurst(center r2.Vec) {
	s.enqueue(spawnRequest{kind: SpawnKindBurst, center: center})
}

// RequestReset queues a reset for the next step boundary.
func (s *Solver) RequestReset() {
	s.enqueue(spawnRequest{kind: SpawnKindReset})
}

func (s *Solver) enqueue(req spawnRequest) {
	s.qmu.Lock()
	s.pending = append(s.pending, req)
	s.qmu.Unlock()
}

// applyPending drains the request queue. Called with mu held.
func (s *Solver) applyPending() {
	s.qmu.Lock()
	pending := s.pending
	s.pending = nil
	s.qmu.Unlock()

	if len(pending) == 0 {
		return
	}

	reports := make([]SpawnReport, 0, len(pending))
	for _, req := range pending {
		placed, err := s.spawnLocked(req)
		reports = append(reports, SpawnReport{Tick: s.tick, Kind: req.kind, Placed: placed, Err: err})
	}

	s.qmu.Lock()
	s.reports = append(s.reports, reports...)
	s.qmu.Unlock()
}

// DrainReports appends the outcomes of queued requests applied since the last
// call to dst and returns it.
func (s *Solver) DrainReports(dst []SpawnReport) []SpawnReport {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	dst = append(dst, s.reports...)
	s.reports = s.reports[:0]
	return dst
}

// Positions appends a snapshot of all particle positions to dst[:0].
func (s *Solver) Positions(dst []r2.Vec) []r2.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Positions(dst)
}

// Len returns the live particle count.
func (s *Solver) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// Cap returns the population limit.
func (s *Solver) Cap() int {
	return s.params.MaxParticles
}

// Tick returns the number of completed steps.
func (s *Solver) Tick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// SimTime returns the simulated time in seconds.
func (s *Solver) SimTime() float64 {
	return float64(s.Tick()) * s.params.DT
}

// State appends a copy of every particle to dst[:0] and returns it with the
// current tick.
func (s *Solver) State(dst []Particle) ([]Particle, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst = append(dst[:0], s.store.particles...)
	return dst, s.tick
}

// Restore replaces the store contents and tick with a previously captured
// state. Returns ErrCapacityExceeded, changing nothing, if ps does not fit.
func (s *Solver) Restore(tick int64, ps []Particle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ps) > s.store.Cap() {
		return ErrCapacityExceeded
	}
	s.store.Clear()
	s.store.particles = append(s.store.particles, ps...)
	s.tick = tick
	s.failed = nil
	s.logger.Info("restored state", "tick", tick, "particles", len(ps))
	return nil
}
