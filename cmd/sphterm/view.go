package main

import (
	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"
)

// glyphs shade a cell by how many particles fall in it.
var glyphs = []rune{' ', '.', ':', 'o', 'O', '@'}

// view projects world positions onto a character grid. The bottom row of
// the screen is kept for the status line.
type view struct {
	screen tcell.Screen

	domainW, domainH float64
	cols, rows       int
	counts           []int

	styles    []tcell.Style
	statusSty tcell.Style
}

func newView(screen tcell.Screen, domainW, domainH float64) *view {
	v := &view{
		screen:  screen,
		domainW: domainW,
		domainH: domainH,
		styles: []tcell.Style{
			tcell.StyleDefault,
			tcell.StyleDefault.Foreground(tcell.NewRGBColor(70, 110, 200)),
			tcell.StyleDefault.Foreground(tcell.NewRGBColor(80, 140, 230)),
			tcell.StyleDefault.Foreground(tcell.NewRGBColor(100, 180, 250)),
			tcell.StyleDefault.Foreground(tcell.NewRGBColor(150, 215, 255)),
			tcell.StyleDefault.Foreground(tcell.ColorWhite),
		},
		statusSty: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite),
	}
	v.resize()
	return v
}

// resize re-reads the screen size.
func (v *view) resize() {
	w, h := v.screen.Size()
	v.cols = max(w, 0)
	v.rows = max(h-1, 0)
	if n := v.cols * v.rows; cap(v.counts) < n {
		v.counts = make([]int, n)
	} else {
		v.counts = v.counts[:n]
	}
}

// cell maps a world position to a grid cell. y points up in the world and
// down on screen. Positions on the far walls land in the last column/row.
func (v *view) cell(p r2.Vec) (cx, cy int, ok bool) {
	if v.cols == 0 || v.rows == 0 {
		return 0, 0, false
	}
	if p.X < 0 || p.X > v.domainW || p.Y < 0 || p.Y > v.domainH {
		return 0, 0, false
	}
	cx = min(int(p.X/v.domainW*float64(v.cols)), v.cols-1)
	row := min(int(p.Y/v.domainH*float64(v.rows)), v.rows-1)
	return cx, v.rows - 1 - row, true
}

// glyphFor returns the glyph index for a cell count.
func glyphFor(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count == 2:
		return 2
	case count <= 4:
		return 3
	case count <= 8:
		return 4
	default:
		return 5
	}
}

// draw bins positions into cells and writes the field and status line.
func (v *view) draw(positions []r2.Vec, status string) {
	clear(v.counts)
	for _, p := range positions {
		if cx, cy, ok := v.cell(p); ok {
			v.counts[cy*v.cols+cx]++
		}
	}

	for cy := 0; cy < v.rows; cy++ {
		for cx := 0; cx < v.cols; cx++ {
			g := glyphFor(v.counts[cy*v.cols+cx])
			v.screen.SetContent(cx, cy, glyphs[g], nil, v.styles[g])
		}
	}

	// Status line
	runes := []rune(status)
	for cx := 0; cx < v.cols; cx++ {
		r := ' '
		if cx < len(runes) {
			r = runes[cx]
		}
		v.screen.SetContent(cx, v.rows, r, nil, v.statusSty)
	}
}
