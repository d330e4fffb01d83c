// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned for configurations the solver cannot run with.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Domain     DomainConfig     `yaml:"domain"`
	Fluid      FluidConfig      `yaml:"fluid"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Population PopulationConfig `yaml:"population"`
	Seeding    SeedingConfig    `yaml:"seeding"`
	Solver     SolverConfig     `yaml:"solver"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`       // 0 = domain width
	Height     int     `yaml:"height"`      // 0 = domain height
	TargetFPS  int     `yaml:"target_fps"`
	PointScale float64 `yaml:"point_scale"` // Drawn radius = interaction_radius/2 * this
}

// DomainConfig holds the extent of the simulated box in world units.
// The origin is the bottom-left corner; y points up.
type DomainConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// FluidConfig holds the SPH material constants.
type FluidConfig struct {
	RestDensity       float64    `yaml:"rest_density"`
	GasConstant       float64    `yaml:"gas_constant"`       // Equation of state stiffness
	InteractionRadius float64    `yaml:"interaction_radius"` // Kernel support H
	ParticleMass      float64    `yaml:"particle_mass"`
	Viscosity         float64    `yaml:"viscosity"`
	Timestep          float64    `yaml:"timestep"`
	Gravity           [2]float64 `yaml:"gravity"`
}

// BoundaryConfig holds wall reflection parameters.
type BoundaryConfig struct {
	Epsilon float64 `yaml:"epsilon"` // 0 = interaction_radius
	Damping float64 `yaml:"damping"` // Velocity multiplier on wall contact, in [-1, 0]
}

// PopulationConfig holds particle count limits and spawn sizes.
type PopulationConfig struct {
	MaxParticles int     `yaml:"max_particles"`
	InitialCount int     `yaml:"initial_count"`
	BlockSize    int     `yaml:"block_size"`
	BlockSpacing float64 `yaml:"block_spacing"` // Block grid spacing as a fraction of interaction_radius
	BurstJitter  int     `yaml:"burst_jitter"`  // Burst offsets are drawn from [0, burst_jitter)
}

// SeedingConfig holds initial placement parameters.
type SeedingConfig struct {
	Jitter float64 `yaml:"jitter"` // Horizontal jitter upper bound for the dam-break fill
	Seed   int64   `yaml:"seed"`   // RNG seed (0 = time-based)
}

// SolverConfig holds execution parameters of the step pipeline.
type SolverConfig struct {
	Workers           int  `yaml:"workers"`            // 0 = GOMAXPROCS
	ParallelThreshold int  `yaml:"parallel_threshold"` // Below this, stages run single-threaded
	CheckFinite       bool `yaml:"check_finite"`       // Verify state after every step
	StepsPerFrame     int  `yaml:"steps_per_frame"`
}

// TelemetryConfig holds stats/perf window sizes.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Simulation seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // Steps averaged by the perf collector
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	BoundaryEpsilon float64
	ScreenW32       float32
	ScreenH32       float32
	PointRadius32   float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.BoundaryEpsilon = c.boundaryEpsilon()

	// Screen defaults to domain size
	screenW := c.Screen.Width
	if screenW == 0 {
		screenW = int(c.Domain.Width)
	}
	screenH := c.Screen.Height
	if screenH == 0 {
		screenH = int(c.Domain.Height)
	}
	c.Derived.ScreenW32 = float32(screenW)
	c.Derived.ScreenH32 = float32(screenH)

	scale := c.Screen.PointScale
	if scale == 0 {
		scale = 1
	}
	c.Derived.PointRadius32 = float32(c.Fluid.InteractionRadius / 4 * scale)
}

// boundaryEpsilon is the wall margin: boundary.epsilon, or the interaction
// radius when that is 0.
func (c *Config) boundaryEpsilon() float64 {
	if c.Boundary.Epsilon == 0 {
		return c.Fluid.InteractionRadius
	}
	return c.Boundary.Epsilon
}

// Validate rejects configurations that would make the solver divide by zero,
// produce non-finite state or place particles outside the domain. Errors wrap
// ErrInvalid.
func (c *Config) Validate() error {
	floats := []struct {
		name string
		v    float64
	}{
		{"domain.width", c.Domain.Width},
		{"domain.height", c.Domain.Height},
		{"fluid.rest_density", c.Fluid.RestDensity},
		{"fluid.gas_constant", c.Fluid.GasConstant},
		{"fluid.interaction_radius", c.Fluid.InteractionRadius},
		{"fluid.particle_mass", c.Fluid.ParticleMass},
		{"fluid.viscosity", c.Fluid.Viscosity},
		{"fluid.timestep", c.Fluid.Timestep},
		{"fluid.gravity[0]", c.Fluid.Gravity[0]},
		{"fluid.gravity[1]", c.Fluid.Gravity[1]},
		{"boundary.epsilon", c.Boundary.Epsilon},
		{"boundary.damping", c.Boundary.Damping},
		{"population.block_spacing", c.Population.BlockSpacing},
		{"seeding.jitter", c.Seeding.Jitter},
		{"telemetry.stats_window", c.Telemetry.StatsWindow},
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalid, f.name, f.v)
		}
	}

	f := c.Fluid
	switch {
	case !(f.ParticleMass > 0):
		return fmt.Errorf("%w: fluid.particle_mass must be positive, got %g", ErrInvalid, f.ParticleMass)
	case !(f.InteractionRadius > 0):
		return fmt.Errorf("%w: fluid.interaction_radius must be positive, got %g", ErrInvalid, f.InteractionRadius)
	case !(f.Timestep > 0):
		return fmt.Errorf("%w: fluid.timestep must be positive, got %g", ErrInvalid, f.Timestep)
	case !(f.RestDensity > 0):
		return fmt.Errorf("%w: fluid.rest_density must be positive, got %g", ErrInvalid, f.RestDensity)
	case !(f.Viscosity >= 0):
		return fmt.Errorf("%w: fluid.viscosity must not be negative, got %g", ErrInvalid, f.Viscosity)
	}

	eps := c.boundaryEpsilon()
	if !(eps >= 0) {
		return fmt.Errorf("%w: boundary.epsilon must not be negative, got %g", ErrInvalid, eps)
	}
	if !(c.Domain.Width >= 2*eps) || !(c.Domain.Height >= 2*eps) {
		return fmt.Errorf("%w: domain %gx%g is smaller than twice the boundary epsilon %g",
			ErrInvalid, c.Domain.Width, c.Domain.Height, eps)
	}
	if !(c.Boundary.Damping >= -1 && c.Boundary.Damping <= 0) {
		return fmt.Errorf("%w: boundary.damping must be in [-1, 0], got %g", ErrInvalid, c.Boundary.Damping)
	}

	p := c.Population
	switch {
	case p.MaxParticles <= 0:
		return fmt.Errorf("%w: population.max_particles must be positive, got %d", ErrInvalid, p.MaxParticles)
	case p.InitialCount < 0 || p.InitialCount > p.MaxParticles:
		return fmt.Errorf("%w: population.initial_count %d outside [0, %d]", ErrInvalid, p.InitialCount, p.MaxParticles)
	case p.BlockSize < 0:
		return fmt.Errorf("%w: population.block_size must not be negative, got %d", ErrInvalid, p.BlockSize)
	case !(p.BlockSpacing > 0):
		return fmt.Errorf("%w: population.block_spacing must be positive, got %g", ErrInvalid, p.BlockSpacing)
	case p.BurstJitter < 1:
		return fmt.Errorf("%w: population.burst_jitter must be at least 1, got %d", ErrInvalid, p.BurstJitter)
	}

	if c.Solver.Workers < 0 {
		return fmt.Errorf("%w: solver.workers must not be negative, got %d", ErrInvalid, c.Solver.Workers)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
