package fluid

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by spawns issued while the store is full.
	// The request is dropped; nothing is placed.
	ErrCapacityExceeded = errors.New("fluid: maximum number of particles reached")

	// ErrDegenerateDensity indicates a particle whose density is too small to
	// divide by. Only reachable with a misconfigured kernel or mass.
	ErrDegenerateDensity = errors.New("fluid: density is zero or near zero")

	// ErrNonFinite indicates a NaN or Inf in particle state after a step.
	ErrNonFinite = errors.New("fluid: non-finite particle state")
)

// StepError wraps a fatal step failure with the step and slot it happened at.
type StepError struct {
	Tick     int64
	Particle int
	Stage    string
	Wrapped  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s stage, tick %d, particle %d: %v", e.Stage, e.Tick, e.Particle, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
