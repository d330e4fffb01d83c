package fluid

// DensityPressure overwrites every particle's density and pressure.
// Reads positions only; position, velocity and force are left untouched.
func DensityPressure(s *Store, p *Params, r Runner, buf *Buffers) {
	n := s.Len()
	if n == 0 {
		return
	}
	buf.ensure(n)

	ps := s.particles
	r.Run(n, func(i0, i1 int) {
		densityRange(ps, p, buf.density, buf.pressure, i0, i1)
	})

	// Commit after the barrier
	for i := range ps {
		ps[i].Density = buf.density[i]
		ps[i].Pressure = buf.pressure[i]
	}
}

// densityRange computes density and pressure for slots [i0, i1).
// The j == i term is included: every particle contributes mass * w(0) to itself.
func densityRange(ps []Particle, p *Params, dens, press []float64, i0, i1 int) {
	k := p.Kernels
	for i := i0; i < i1; i++ {
		xi := ps[i].Pos
		rho := 0.0
		for j := range ps {
			dx := ps[j].Pos.X - xi.X
			dy := ps[j].Pos.Y - xi.Y
			r2 := dx*dx + dy*dy
			if r2 < k.H2 {
				rho += p.Mass * k.Density(r2)
			}
		}
		dens[i] = rho
		press[i] = p.GasConstant * (rho - p.RestDensity)
	}
}
