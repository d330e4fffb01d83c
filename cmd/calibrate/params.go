package main

import (
	"math"

	"github.com/pthm-cable/sph/config"
)

// ParamSpec defines a single calibrated parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Log     bool    // Search in log10 space
}

// ParamVector holds the set of calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard calibration set: the particle mass,
// which scales every density linearly.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "particle_mass", Path: "fluid.particle_mass", Min: 0.1, Max: 1e7, Default: 2.5, Log: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to the [0,1] search range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		lo, hi, v := spec.Min, spec.Max, raw[i]
		if spec.Log {
			lo, hi, v = math.Log10(lo), math.Log10(hi), math.Log10(v)
		}
		normalized[i] = (v - lo) / (hi - lo)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if spec.Log {
			lo, hi := math.Log10(spec.Min), math.Log10(spec.Max)
			raw[i] = math.Pow(10, lo+normalized[i]*(hi-lo))
		} else {
			raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
		}
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min || math.IsNaN(val) {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Fluid.ParticleMass = clamped[0]
	cfg.Recompute()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{cfg.Fluid.ParticleMass}
}
