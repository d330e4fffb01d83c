package fluid

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// runDensityAndForces runs the first two stages sequentially.
func runDensityAndForces(s *Store, p *Params) {
	var buf Buffers
	DensityPressure(s, p, Sequential{}, &buf)
	Forces(s, p, Sequential{}, &buf)
}

func TestIsolatedParticleFeelsOnlyGravity(t *testing.T) {
	p := testParams(t)
	s := storeOf(r2.Vec{X: 300, Y: 300})
	s.particles[0].Force = r2.Vec{X: 1e6, Y: 1e6} // must be overwritten, not accumulated

	runDensityAndForces(s, &p)

	rho := s.At(0).Density
	want := r2.Scale(p.Mass/rho, p.Gravity)
	if got := s.At(0).Force; got != want {
		t.Errorf("force = %v, want gravity term %v", got, want)
	}
}

func TestCoincidentParticlesStayFinite(t *testing.T) {
	p := testParams(t)
	pos := r2.Vec{X: 250, Y: 250}
	s := storeOf(pos, pos)

	runDensityAndForces(s, &p)

	for i := 0; i < 2; i++ {
		pi := s.At(i)
		if !vecFinite(pi.Force) {
			t.Fatalf("particle %d force not finite: %v", i, pi.Force)
		}
		// The pair is skipped, so only gravity remains
		want := r2.Scale(p.Mass/pi.Density, p.Gravity)
		if pi.Force != want {
			t.Errorf("particle %d force = %v, want %v", i, pi.Force, want)
		}
	}
}

func TestPressureForceIsPairwiseOpposite(t *testing.T) {
	p := testParams(t)
	p.Gravity = r2.Vec{}
	d := 0.5 * p.Kernels.H
	s := storeOf(r2.Vec{X: 400, Y: 400}, r2.Vec{X: 400 + d, Y: 400})

	runDensityAndForces(s, &p)

	fi, fj := s.At(0).Force, s.At(1).Force
	if fi.X != -fj.X {
		t.Errorf("forces not opposite: %v vs %v", fi, fj)
	}
	if fi.Y != 0 || fj.Y != 0 {
		t.Errorf("forces should be horizontal, got %v and %v", fi, fj)
	}
	// Default fluid is far below rest density: pressures are negative and
	// the pair is pushed apart
	if s.At(0).Pressure >= 0 {
		t.Fatalf("expected negative pressure with default parameters, got %v", s.At(0).Pressure)
	}
	if fi.X >= 0 || fj.X <= 0 {
		t.Errorf("expected particles pushed apart, got fi=%v fj=%v", fi, fj)
	}
}

func TestViscosityDragsTowardNeighbourVelocity(t *testing.T) {
	p := testParams(t)
	p.Gravity = r2.Vec{}
	p.GasConstant = 0 // isolate the viscosity term
	d := 0.5 * p.Kernels.H
	s := storeOf(r2.Vec{X: 400, Y: 400}, r2.Vec{X: 400, Y: 400 + d})
	s.particles[1].Vel = r2.Vec{X: 10}

	runDensityAndForces(s, &p)

	if fx := s.At(0).Force.X; fx <= 0 {
		t.Errorf("resting particle should be dragged along +x, got %v", fx)
	}
	if fx := s.At(1).Force.X; fx >= 0 {
		t.Errorf("moving particle should be slowed, got %v", fx)
	}

	// Closed form for the resting particle
	rho := s.At(1).Density
	want := p.Viscosity * p.Mass / rho * p.Kernels.ViscosityLaplacian(d) * 10
	if got := s.At(0).Force.X; !approxEqual(got, want, 1e-12) {
		t.Errorf("viscous force = %v, want %v", got, want)
	}
}

func TestOutOfRangePairsIgnored(t *testing.T) {
	p := testParams(t)
	h := p.Kernels.H
	s := storeOf(r2.Vec{X: 100, Y: 100}, r2.Vec{X: 100 + h, Y: 100})
	s.particles[1].Vel = r2.Vec{X: 50}

	runDensityAndForces(s, &p)

	want := r2.Scale(p.Mass/s.At(0).Density, p.Gravity)
	if got := s.At(0).Force; got != want {
		t.Errorf("force = %v, want gravity only %v", got, want)
	}
}
