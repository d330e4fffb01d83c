package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	hudPanelW   = 270
	hudPanelH   = 250
	hudMargin   = 10
	hudButtonW  = 120
	hudButtonH  = 28
	hudFontSize = 16
)

// hudActions holds the controls activated during one frame.
type hudActions struct {
	spawn, reset, pause, snapshot bool
	stepsPerUpdate                int
}

// hud draws the status panel and raygui controls in the top-right corner.
type hud struct {
	panel rl.Rectangle
}

func newHUD() *hud {
	return &hud{}
}

// layout positions the panel for the current screen width.
func (h *hud) layout(screenW float32) {
	h.panel = rl.Rectangle{
		X:      screenW - hudPanelW - hudMargin,
		Y:      hudMargin,
		Width:  hudPanelW,
		Height: hudPanelH,
	}
}

// contains reports whether a screen point lies on the panel.
func (h *hud) contains(p rl.Vector2) bool {
	if h == nil {
		return false
	}
	return rl.CheckCollisionPointRec(p, h.panel)
}

// draw renders the panel and returns the controls the user activated.
func (h *hud) draw(g *Game) hudActions {
	h.layout(g.screenWidth)
	x, y := h.panel.X+10, h.panel.Y+10

	rl.DrawRectangleRec(h.panel, rl.Color{R: 0, G: 0, B: 0, A: 180})
	rl.DrawRectangleLinesEx(h.panel, 1, rl.Color{R: 50, G: 60, B: 70, A: 255})

	var a hudActions
	pauseLabel := "Pause"
	if g.paused {
		pauseLabel = "Resume"
	}
	a.spawn = gui.Button(rl.Rectangle{X: x, Y: y, Width: hudButtonW, Height: hudButtonH}, "Spawn block")
	a.reset = gui.Button(rl.Rectangle{X: x + hudButtonW + 10, Y: y, Width: hudButtonW, Height: hudButtonH}, "Reset")
	y += hudButtonH + 8
	a.pause = gui.Button(rl.Rectangle{X: x, Y: y, Width: hudButtonW, Height: hudButtonH}, pauseLabel)
	a.snapshot = gui.Button(rl.Rectangle{X: x + hudButtonW + 10, Y: y, Width: hudButtonW, Height: hudButtonH}, "Snapshot")
	y += hudButtonH + 12

	rl.DrawText(fmt.Sprintf("Steps/frame: %d  [< >]", g.stepsPerUpdate), int32(x), int32(y), 14, rl.Gray)
	y += 18
	steps := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: hudPanelW - 60, Height: 16},
		"1", fmt.Sprint(maxStepsPerUpdate),
		float32(g.stepsPerUpdate), 1, maxStepsPerUpdate,
	)
	a.stepsPerUpdate = int(steps + 0.5)
	y += 28

	solver := g.solver
	lines := []string{
		fmt.Sprintf("Tick: %d  t=%.3fs", solver.Tick(), solver.SimTime()),
		fmt.Sprintf("Particles: %d / %d", solver.Len(), solver.Cap()),
		fmt.Sprintf("Density p50: %.4g", g.lastStats.DensityP50),
		fmt.Sprintf("FPS: %d", rl.GetFPS()),
	}
	for _, line := range lines {
		rl.DrawText(line, int32(x), int32(y), hudFontSize, rl.White)
		y += hudFontSize + 4
	}

	if g.err != nil {
		rl.DrawText("STOPPED: step failed, R to reset", int32(x), int32(y), hudFontSize, rl.Red)
	} else if g.paused {
		rl.DrawText("PAUSED", int32(x), int32(y), hudFontSize, rl.Yellow)
	}

	return a
}

// apply performs the activated controls.
func (h *hud) apply(g *Game, a hudActions) {
	if a.pause {
		g.paused = !g.paused
	}
	if a.spawn {
		g.spawnBlock()
	}
	if a.reset {
		g.reset()
	}
	if a.snapshot {
		g.saveSnapshot("manual")
	}
	if a.stepsPerUpdate >= 1 && a.stepsPerUpdate <= maxStepsPerUpdate {
		g.stepsPerUpdate = a.stepsPerUpdate
	}
}

// drawControls renders the key help line at the bottom of the screen.
func drawControls(screenW, screenH float32) {
	const text = "SPACE: Block | Click: Burst | R: Reset | P: Pause | S: Snapshot | < >: Speed | Arrows/Wheel: Camera"
	rl.DrawText(text, hudMargin, int32(screenH)-24, 14, rl.LightGray)
}
