package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Store is an ordered, capacity-bounded particle arena. Slot order carries no
// physical meaning; slot index is a particle's identity within a step.
type Store struct {
	particles []Particle
	max       int
}

// NewStore creates an empty store that never holds more than max particles.
func NewStore(max int) *Store {
	initial := max
	if initial > 1024 {
		initial = 1024
	}
	return &Store{
		particles: make([]Particle, 0, initial),
		max:       max,
	}
}

// Len returns the live particle count.
func (s *Store) Len() int { return len(s.particles) }

// Cap returns the population limit.
func (s *Store) Cap() int { return s.max }

// Full reports whether no more particles can be added.
func (s *Store) Full() bool { return len(s.particles) >= s.max }

// Add appends a particle at rest at pos. Returns false when the store is full.
func (s *Store) Add(pos r2.Vec) bool {
	if s.Full() {
		return false
	}
	s.particles = append(s.particles, NewParticle(pos))
	return true
}

// Clear removes every particle. Backing memory is kept for reuse.
func (s *Store) Clear() {
	s.particles = s.particles[:0]
}

// At returns a copy of the particle in slot i.
func (s *Store) At(i int) Particle { return s.particles[i] }

// Positions appends every particle position to dst[:0] and returns it.
func (s *Store) Positions(dst []r2.Vec) []r2.Vec {
	dst = dst[:0]
	for i := range s.particles {
		dst = append(dst, s.particles[i].Pos)
	}
	return dst
}
