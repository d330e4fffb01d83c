package fluid

import "math"

// Kernels holds the three smoothing kernels for a fixed interaction radius.
// Coefficients are computed once; evaluation is allocation-free.
type Kernels struct {
	H  float64
	H2 float64

	poly6     float64 // 315 / (64 pi H^8)
	spikyGrad float64 // -10 / (pi H^5)
	viscLap   float64 // 40 / (pi H^5)
}

// NewKernels builds the kernels for support radius h.
func NewKernels(h float64) Kernels {
	h2 := h * h
	h5 := h2 * h2 * h
	h8 := h5 * h2 * h
	return Kernels{
		H:         h,
		H2:        h2,
		poly6:     315.0 / (64.0 * math.Pi * h8),
		spikyGrad: -10.0 / (math.Pi * h5),
		viscLap:   40.0 / (math.Pi * h5),
	}
}

// Density is the poly6 weight for squared distance r2.
// Takes r2 so the density pass never needs a square root.
func (k Kernels) Density(r2 float64) float64 {
	if r2 >= k.H2 {
		return 0
	}
	d := k.H2 - r2
	return k.poly6 * d * d * d
}

// PressureGrad is the spiky gradient magnitude at distance r. Negative inside
// the support; the caller supplies the direction.
func (k Kernels) PressureGrad(r float64) float64 {
	if r >= k.H {
		return 0
	}
	d := k.H - r
	return k.spikyGrad * d * d * d
}

// ViscosityLaplacian is the viscosity kernel Laplacian at distance r.
func (k Kernels) ViscosityLaplacian(r float64) float64 {
	if r >= k.H {
		return 0
	}
	return k.viscLap * (k.H - r)
}
