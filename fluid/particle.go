package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Particle is one fluid sample. Density and pressure are owned by the
// density stage and are only meaningful after it has run for the current step.
type Particle struct {
	Pos   r2.Vec
	Vel   r2.Vec
	Force r2.Vec

	Density  float64
	Pressure float64
}

// NewParticle returns a particle at rest at pos.
func NewParticle(pos r2.Vec) Particle {
	return Particle{Pos: pos}
}
