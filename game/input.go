package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeyP) {
		g.paused = !g.paused
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.spawnBlock()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.reset()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.saveSnapshot("manual")
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	// Burst at the cursor, unless the click landed on the HUD
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		if !g.hud.contains(mouse) {
			wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
			g.spawnBurst(r2.Vec{X: float64(wx), Y: float64(wy)})
		}
	}

	// Camera controls
	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	if g.camera != nil {
		g.camera.Resize(w, h)
	}
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	if g.camera == nil {
		return
	}

	// Pan speed in screen pixels per frame
	const panSpeed = float32(8.0)

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel or +/- keys
	wheelMove := rl.GetMouseWheelMove()
	if wheelMove != 0 {
		zoomFactor := float32(1.0) + wheelMove*0.1
		g.camera.ZoomBy(zoomFactor)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
