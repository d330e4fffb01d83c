package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Fluid.InteractionRadius != 16 {
		t.Errorf("interaction_radius = %v, want 16", cfg.Fluid.InteractionRadius)
	}
	if cfg.Fluid.Gravity != [2]float64{0, -10} {
		t.Errorf("gravity = %v, want [0 -10]", cfg.Fluid.Gravity)
	}
	if cfg.Population.MaxParticles != 25000 {
		t.Errorf("max_particles = %d, want 25000", cfg.Population.MaxParticles)
	}

	// Epsilon 0 falls back to the interaction radius
	if cfg.Derived.BoundaryEpsilon != cfg.Fluid.InteractionRadius {
		t.Errorf("derived epsilon = %v, want %v", cfg.Derived.BoundaryEpsilon, cfg.Fluid.InteractionRadius)
	}
	// Screen 0 falls back to the domain size
	if cfg.Derived.ScreenW32 != 1200 || cfg.Derived.ScreenH32 != 900 {
		t.Errorf("derived screen = %vx%v, want 1200x900", cfg.Derived.ScreenW32, cfg.Derived.ScreenH32)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte("fluid:\n  viscosity: 50\npopulation:\n  initial_count: 9\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Fluid.Viscosity != 50 {
		t.Errorf("viscosity = %v, want 50", cfg.Fluid.Viscosity)
	}
	if cfg.Population.InitialCount != 9 {
		t.Errorf("initial_count = %d, want 9", cfg.Population.InitialCount)
	}
	// Untouched keys keep their defaults
	if cfg.Fluid.RestDensity != 1000 {
		t.Errorf("rest_density = %v, want 1000", cfg.Fluid.RestDensity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero mass", func(c *Config) { c.Fluid.ParticleMass = 0 }},
		{"negative mass", func(c *Config) { c.Fluid.ParticleMass = -1 }},
		{"zero radius", func(c *Config) { c.Fluid.InteractionRadius = 0 }},
		{"zero timestep", func(c *Config) { c.Fluid.Timestep = 0 }},
		{"zero rest density", func(c *Config) { c.Fluid.RestDensity = 0 }},
		{"negative viscosity", func(c *Config) { c.Fluid.Viscosity = -1 }},
		{"domain too narrow", func(c *Config) { c.Domain.Width = 20 }},
		{"domain too short", func(c *Config) { c.Domain.Height = 31 }},
		{"positive damping", func(c *Config) { c.Boundary.Damping = 0.5 }},
		{"damping below -1", func(c *Config) { c.Boundary.Damping = -1.5 }},
		{"zero max particles", func(c *Config) { c.Population.MaxParticles = 0 }},
		{"initial above max", func(c *Config) { c.Population.InitialCount = c.Population.MaxParticles + 1 }},
		{"zero block spacing", func(c *Config) { c.Population.BlockSpacing = 0 }},
		{"zero burst jitter", func(c *Config) { c.Population.BurstJitter = 0 }},
		{"negative workers", func(c *Config) { c.Solver.Workers = -2 }},
		{"NaN mass", func(c *Config) { c.Fluid.ParticleMass = math.NaN() }},
		{"infinite mass", func(c *Config) { c.Fluid.ParticleMass = math.Inf(1) }},
		{"infinite timestep", func(c *Config) { c.Fluid.Timestep = math.Inf(1) }},
		{"NaN radius", func(c *Config) { c.Fluid.InteractionRadius = math.NaN() }},
		{"NaN rest density", func(c *Config) { c.Fluid.RestDensity = math.NaN() }},
		{"infinite gas constant", func(c *Config) { c.Fluid.GasConstant = math.Inf(-1) }},
		{"NaN viscosity", func(c *Config) { c.Fluid.Viscosity = math.NaN() }},
		{"NaN gravity x", func(c *Config) { c.Fluid.Gravity[0] = math.NaN() }},
		{"infinite gravity y", func(c *Config) { c.Fluid.Gravity[1] = math.Inf(-1) }},
		{"NaN domain width", func(c *Config) { c.Domain.Width = math.NaN() }},
		{"infinite domain height", func(c *Config) { c.Domain.Height = math.Inf(1) }},
		{"NaN damping", func(c *Config) { c.Boundary.Damping = math.NaN() }},
		{"NaN epsilon", func(c *Config) { c.Boundary.Epsilon = math.NaN() }},
		{"infinite epsilon", func(c *Config) { c.Boundary.Epsilon = math.Inf(1) }},
		{"NaN block spacing", func(c *Config) { c.Population.BlockSpacing = math.NaN() }},
		{"NaN seed jitter", func(c *Config) { c.Seeding.Jitter = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			cfg.Recompute()
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestLoadRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name, yaml string
	}{
		{"NaN mass", "fluid:\n  particle_mass: .nan\n"},
		{"infinite timestep", "fluid:\n  timestep: .inf\n"},
		{"NaN damping", "boundary:\n  damping: .nan\n"},
		{"NaN gravity", "fluid:\n  gravity: [.nan, -10]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateUsesCurrentRadius(t *testing.T) {
	// Derived values are stale here; Validate must still see epsilon = radius
	cfg := Default()
	cfg.Fluid.InteractionRadius = 500
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("domain 1200x900 with epsilon 500: error = %v, want ErrInvalid", err)
	}
}

func TestValidateDefaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Fluid.GasConstant = 321

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Fluid.GasConstant != 321 {
		t.Errorf("gas_constant = %v, want 321", loaded.Fluid.GasConstant)
	}
}

func TestCfgBeforeInitPanics(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Cfg()
}
