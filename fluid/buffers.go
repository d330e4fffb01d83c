package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Buffers holds per-stage outputs. Stages write here while reading the store,
// then commit once every particle is done.
type Buffers struct {
	density  []float64
	pressure []float64
	force    []r2.Vec
}

// ensure sizes every buffer to n, reusing capacity.
func (b *Buffers) ensure(n int) {
	if cap(b.density) < n {
		b.density = make([]float64, n)
		b.pressure = make([]float64, n)
		b.force = make([]r2.Vec, n)
	}
	b.density = b.density[:n]
	b.pressure = b.pressure[:n]
	b.force = b.force[:n]
}
