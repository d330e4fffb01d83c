package fluid

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/sph/config"
)

func TestParamsFromConfigRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"NaN mass", func(c *config.Config) { c.Fluid.ParticleMass = math.NaN() }},
		{"infinite timestep", func(c *config.Config) { c.Fluid.Timestep = math.Inf(1) }},
		{"NaN gravity", func(c *config.Config) { c.Fluid.Gravity[1] = math.NaN() }},
		{"NaN damping", func(c *config.Config) { c.Boundary.Damping = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := New(cfg, WithLogger(discardLogger())); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("New error = %v, want config.ErrInvalid", err)
			}
		})
	}
}

func TestParamsFromConfigRecomputesEpsilon(t *testing.T) {
	cfg := testConfig()
	// Edited after Load without Recompute
	cfg.Fluid.InteractionRadius = 8

	p, err := ParamsFromConfig(cfg)
	if err != nil {
		t.Fatalf("ParamsFromConfig: %v", err)
	}
	if p.Epsilon != 8 {
		t.Errorf("epsilon = %v, want 8 (the current interaction radius)", p.Epsilon)
	}
	if p.Kernels.H != 8 {
		t.Errorf("kernel radius = %v, want 8", p.Kernels.H)
	}
	// The caller's config is left as it was
	if cfg.Derived.BoundaryEpsilon != 16 {
		t.Errorf("caller derived epsilon changed to %v", cfg.Derived.BoundaryEpsilon)
	}
}
