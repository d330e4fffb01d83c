package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Forces overwrites every particle's force with the sum of pressure,
// viscosity and gravity contributions. Densities and pressures must already
// be final for this step.
func Forces(s *Store, p *Params, r Runner, buf *Buffers) {
	n := s.Len()
	if n == 0 {
		return
	}
	buf.ensure(n)

	ps := s.particles
	r.Run(n, func(i0, i1 int) {
		forceRange(ps, p, buf.force, i0, i1)
	})

	for i := range ps {
		ps[i].Force = buf.force[i]
	}
}

// forceRange computes forces for slots [i0, i1). Pairs closer than
// minPairDistance are skipped: their direction is undefined.
func forceRange(ps []Particle, p *Params, out []r2.Vec, i0, i1 int) {
	k := p.Kernels
	for i := i0; i < i1; i++ {
		pi := &ps[i]
		var fPress, fVisc r2.Vec

		for j := range ps {
			if j == i {
				continue
			}
			pj := &ps[j]

			rij := r2.Sub(pj.Pos, pi.Pos)
			r := math.Hypot(rij.X, rij.Y)
			if r >= k.H || r < minPairDistance {
				continue
			}

			// -unit(rij) * m * (pi + pj) / (2 rho_j) * grad(r)
			dir := r2.Scale(-1/r, rij)
			press := p.Mass * (pi.Pressure + pj.Pressure) / (2 * pj.Density) * k.PressureGrad(r)
			fPress = r2.Add(fPress, r2.Scale(press, dir))

			visc := p.Viscosity * p.Mass / pj.Density * k.ViscosityLaplacian(r)
			fVisc = r2.Add(fVisc, r2.Scale(visc, r2.Sub(pj.Vel, pi.Vel)))
		}

		fGrav := r2.Scale(p.Mass/pi.Density, p.Gravity)
		out[i] = r2.Add(r2.Add(fPress, fVisc), fGrav)
	}
}
