package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/renderer"
)

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	g.positions = g.solver.Positions(g.positions)
	g.solver.Sample(&g.sample)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 20, A: 255})

	renderer.DrawDomain(g.camera, rl.Color{R: 70, G: 80, B: 95, A: 255})
	g.particles.Draw(g.camera, g.positions, g.sample.Speeds)

	actions := g.hud.draw(g)
	drawControls(g.screenWidth, g.screenHeight)

	rl.EndDrawing()

	g.hud.apply(g, actions)
}
