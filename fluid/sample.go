package fluid

import "math"

// Sample is a copy of the per-particle scalars telemetry summarises.
// Slices are reused across calls.
type Sample struct {
	Tick      int64
	Densities []float64
	Pressures []float64
	Speeds    []float64

	KineticEnergy float64 // sum of 1/2 m |v|^2
}

// Sample fills dst with the current particle state.
func (s *Solver) Sample(dst *Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps := s.store.particles
	dst.Tick = s.tick
	dst.Densities = dst.Densities[:0]
	dst.Pressures = dst.Pressures[:0]
	dst.Speeds = dst.Speeds[:0]
	dst.KineticEnergy = 0

	for i := range ps {
		v := ps[i].Vel
		speed2 := v.X*v.X + v.Y*v.Y
		dst.Densities = append(dst.Densities, ps[i].Density)
		dst.Pressures = append(dst.Pressures, ps[i].Pressure)
		dst.Speeds = append(dst.Speeds, math.Sqrt(speed2))
		dst.KineticEnergy += 0.5 * s.params.Mass * speed2
	}
}
