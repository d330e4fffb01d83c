package fluid

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/config"
)

// minPairDistance is the distance below which two distinct particles are
// treated as coincident and their pair contribution is skipped.
const minPairDistance = 1e-9

// minDensity is the smallest density integration will divide by.
const minDensity = 1e-12

// Params is the flattened, validated view of the configuration used on the
// hot path. It is immutable for the lifetime of a Solver.
type Params struct {
	RestDensity float64
	GasConstant float64
	Mass        float64
	Viscosity   float64
	DT          float64
	Gravity     r2.Vec

	Width, Height float64
	Epsilon       float64
	Damping       float64

	MaxParticles int
	InitialCount int
	BlockSize    int
	BlockSpacing float64
	BurstJitter  int
	SeedJitter   float64

	Kernels Kernels
}

// ParamsFromConfig validates cfg and flattens it. Derived values are
// recomputed on a copy, so fields edited after Load take effect.
// Errors wrap config.ErrInvalid.
func ParamsFromConfig(base *config.Config) (Params, error) {
	c := *base
	cfg := &c
	cfg.Recompute()
	if err := cfg.Validate(); err != nil {
		return Params{}, err
	}
	f := cfg.Fluid
	return Params{
		RestDensity:  f.RestDensity,
		GasConstant:  f.GasConstant,
		Mass:         f.ParticleMass,
		Viscosity:    f.Viscosity,
		DT:           f.Timestep,
		Gravity:      r2.Vec{X: f.Gravity[0], Y: f.Gravity[1]},
		Width:        cfg.Domain.Width,
		Height:       cfg.Domain.Height,
		Epsilon:      cfg.Derived.BoundaryEpsilon,
		Damping:      cfg.Boundary.Damping,
		MaxParticles: cfg.Population.MaxParticles,
		InitialCount: cfg.Population.InitialCount,
		BlockSize:    cfg.Population.BlockSize,
		BlockSpacing: cfg.Population.BlockSpacing,
		BurstJitter:  cfg.Population.BurstJitter,
		SeedJitter:   cfg.Seeding.Jitter,
		Kernels:      NewKernels(f.InteractionRadius),
	}, nil
}

// SelfDensity is the density of an isolated particle: mass * w(0).
func (p Params) SelfDensity() float64 {
	return p.Mass * p.Kernels.Density(0)
}
