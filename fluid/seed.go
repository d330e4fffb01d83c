package fluid

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// fillDamBreak lays out the initial column of fluid: a grid with spacing H
// over the left-centre quarter of the domain, each particle nudged right by a
// small random jitter. Stops at the initial count, the cap, or the grid end.
func fillDamBreak(s *Store, p *Params, rng *rand.Rand) int {
	h := p.Kernels.H
	eps := p.Epsilon
	placed := 0

	for y := eps; y < p.Height-2*eps; y += h {
		for x := p.Width / 4; x <= p.Width/2; x += h {
			if placed >= p.InitialCount || s.Full() {
				return placed
			}
			jitter := rng.Float64() * p.SeedJitter
			s.Add(r2.Vec{X: x + jitter, Y: y})
			placed++
		}
	}
	return placed
}

// fillBlock places a grid of particles over the rectangle centred on center
// with the given size. Rows run bottom to top; the right edge is inclusive.
func fillBlock(s *Store, p *Params, center, size r2.Vec) int {
	step := p.BlockSpacing * p.Kernels.H
	x0, x1 := center.X-size.X/2, center.X+size.X/2
	y0, y1 := center.Y-size.Y/2, center.Y+size.Y/2
	placed := 0

	for y := y0; y < y1; y += step {
		for x := x0; x <= x1; x += step {
			if placed >= p.BlockSize || s.Full() {
				return placed
			}
			s.Add(r2.Vec{X: x, Y: y})
			placed++
		}
	}
	return placed
}

// fillBurst scatters block_size-1 particles at integer offsets in
// [0, burst_jitter) from center. Offsets repeat, so coincident particles are
// expected here.
func fillBurst(s *Store, p *Params, center r2.Vec, rng *rand.Rand) int {
	placed := 0
	for placed < p.BlockSize-1 && !s.Full() {
		dx := float64(rng.Intn(p.BurstJitter))
		dy := float64(rng.Intn(p.BurstJitter))
		s.Add(r2.Vec{X: center.X + dx, Y: center.Y + dy})
		placed++
	}
	return placed
}

// DefaultBlock returns the centre and size of the block dropped by the
// keyboard spawn: a square of side 2/5 of the domain height, centred
// horizontally at two thirds of the height.
func (p Params) DefaultBlock() (center, size r2.Vec) {
	side := 2 * p.Height / 5
	return r2.Vec{X: p.Width / 2, Y: p.Height / 1.5}, r2.Vec{X: side, Y: side}
}
