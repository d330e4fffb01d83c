package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Integrate advances velocity then position by one explicit Euler step and
// reflects particles off the domain walls. Each particle only touches its own
// slot, so no buffer is needed.
//
// If any density is too small to divide by, nothing is modified and the
// offending slot is returned in a *StepError wrapping ErrDegenerateDensity.
func Integrate(s *Store, p *Params, r Runner) error {
	ps := s.particles
	for i := range ps {
		if !(ps[i].Density > minDensity) {
			return &StepError{Particle: i, Stage: StageIntegrate, Wrapped: ErrDegenerateDensity}
		}
	}

	r.Run(len(ps), func(i0, i1 int) {
		integrateRange(ps, p, i0, i1)
	})
	return nil
}

func integrateRange(ps []Particle, p *Params, i0, i1 int) {
	dt := p.DT
	for i := i0; i < i1; i++ {
		pi := &ps[i]
		pi.Vel = r2.Add(pi.Vel, r2.Scale(dt/pi.Density, pi.Force))
		pi.Pos = r2.Add(pi.Pos, r2.Scale(dt, pi.Vel))

		p.reflect(&pi.Pos.X, &pi.Vel.X, p.Width)
		p.reflect(&pi.Pos.Y, &pi.Vel.Y, p.Height)
	}
}

// reflect applies the soft wall on one axis: the velocity component is
// multiplied by the (negative) damping factor and the position clamped to
// the margin.
func (p *Params) reflect(x, v *float64, bound float64) {
	if *x-p.Epsilon < 0 {
		*v *= p.Damping
		*x = p.Epsilon
	}
	if *x+p.Epsilon > bound {
		*v *= p.Damping
		*x = bound - p.Epsilon
	}
}

// checkFinite returns the first slot holding a NaN or Inf, or -1.
func checkFinite(ps []Particle) int {
	for i := range ps {
		pi := &ps[i]
		if !finite(pi.Pos.X) || !finite(pi.Pos.Y) ||
			!finite(pi.Vel.X) || !finite(pi.Vel.Y) ||
			!finite(pi.Force.X) || !finite(pi.Force.Y) ||
			!finite(pi.Density) || !finite(pi.Pressure) {
			return i
		}
	}
	return -1
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
