// Package camera provides a 2D camera system for viewport control.
package camera

// Camera controls the viewport into the simulation domain.
// World coordinates have y pointing up; screen coordinates have y pointing
// down. The domain is bounded, so the camera centre is clamped to it.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level relative to the fit-to-viewport scale (1.0 = whole domain visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	// fit is the pixels-per-world-unit scale at zoom 1
	fit float32
}

// New creates a camera centered on the world with the whole domain in view.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
	c.fit = fitScale(viewportW, viewportH, worldW, worldH)
	return c
}

// Scale returns screen pixels per world unit at the current zoom.
func (c *Camera) Scale() float32 {
	return c.fit * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given world radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	s := c.Scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and the fit scale.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fit = fitScale(viewportW, viewportH, c.WorldW, c.WorldH)
}

// Pan moves the camera by the given delta in screen pixels
// (positive dy moves the view down the screen).
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, 0, c.WorldW)
	c.Y = clamp(c.Y-dy/s, 0, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// DomainRect returns the screen rectangle covered by the domain as
// (x, y, w, h) with (x, y) the top-left corner.
func (c *Camera) DomainRect() (x, y, w, h float32) {
	x, y = c.WorldToScreen(0, c.WorldH)
	s := c.Scale()
	return x, y, c.WorldW * s, c.WorldH * s
}

func fitScale(viewportW, viewportH, worldW, worldH float32) float32 {
	sx := viewportW / worldW
	sy := viewportH / worldH
	if sy < sx {
		return sy
	}
	return sx
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
