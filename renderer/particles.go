// Package renderer draws solver snapshots with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph/camera"
)

// ParticleRenderer renders fluid particles as filled circles.
type ParticleRenderer struct {
	// Radius in world units
	Radius float32

	// Speed mapped to the hottest colour; slower particles blend toward Slow
	MaxSpeed float32

	Slow, Fast rl.Color
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer(radius float32) *ParticleRenderer {
	return &ParticleRenderer{
		Radius:   radius,
		MaxSpeed: 400,
		Slow:     rl.Color{R: 40, G: 110, B: 220, A: 255},
		Fast:     rl.Color{R: 200, G: 235, B: 255, A: 255},
	}
}

// Draw renders all particles. speeds may be nil or shorter than positions;
// missing entries are drawn with the slow colour.
func (r *ParticleRenderer) Draw(cam *camera.Camera, positions []r2.Vec, speeds []float64) {
	size := r.Radius * cam.Scale()
	if size < 1 {
		size = 1
	}

	for i, p := range positions {
		wx, wy := float32(p.X), float32(p.Y)
		if !cam.IsVisible(wx, wy, r.Radius) {
			continue
		}

		color := r.Slow
		if i < len(speeds) && r.MaxSpeed > 0 {
			t := float32(speeds[i]) / r.MaxSpeed
			if t > 1 {
				t = 1
			}
			color = lerpColor(r.Slow, r.Fast, t)
		}

		sx, sy := cam.WorldToScreen(wx, wy)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, size, color)
	}
}

// DrawDomain outlines the simulated box.
func DrawDomain(cam *camera.Camera, color rl.Color) {
	x, y, w, h := cam.DomainRect()
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x, Y: y, Width: w, Height: h}, 2, color)
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
