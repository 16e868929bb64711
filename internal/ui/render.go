package ui

import (
	"math"
	"strings"

	"SLClient/internal/mapping"
)

// Map glyphs.
const (
	glyphEmpty   = ' '
	glyphRoom    = '#'
	glyphUp      = '^'
	glyphDown    = 'v'
	glyphUpDown  = 'x'
	glyphAvatar  = '@'
	glyphHoriz   = '-'
	glyphVert    = '|'
	glyphFalling = '\\'
	glyphRising  = '/'
)

// RenderMap paints f as text. One surface unit is one terminal column or
// row; metrics decide how many units a cell and the gap after it take.
// Trailing blanks are trimmed from every row.
func RenderMap(f mapping.Frame, metrics mapping.Metrics) []string {
	pitch := metrics.Pitch()
	size := metrics.CellSize
	if size < 1 {
		size = 1
	}
	width := f.Viewport.Width * pitch
	height := f.Viewport.Height * pitch
	if width <= 0 || height <= 0 {
		return nil
	}
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(string(glyphEmpty), width))
	}
	put := func(x, y int, r rune, overwrite bool) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return
		}
		if !overwrite && grid[y][x] != glyphEmpty {
			return
		}
		grid[y][x] = r
	}
	anchor := func(local mapping.Point) mapping.Point {
		o := metrics.Origin(local)
		return mapping.Point{X: o.X + (size-1)/2, Y: o.Y + (size-1)/2}
	}
	block := func(local mapping.Point, r rune) {
		o := metrics.Origin(local)
		for dy := 0; dy < size; dy++ {
			for dx := 0; dx < size; dx++ {
				put(o.X+dx, o.Y+dy, r, true)
			}
		}
	}

	for _, n := range f.Nodes {
		block(n.Local, nodeGlyph(n))
	}
	if metrics.CellSpacing > 0 {
		for _, l := range f.Lines {
			from, to := anchor(l.FromLocal), anchor(l.ToLocal)
			glyph := connectorGlyph(to.X-from.X, to.Y-from.Y)
			for _, p := range between(from, to) {
				put(p.X, p.Y, glyph, false)
			}
		}
	}
	if f.PositionVisible() {
		block(f.Local, glyphAvatar)
	}

	rows := make([]string, height)
	for y, row := range grid {
		rows[y] = strings.TrimRight(string(row), string(glyphEmpty))
	}
	return rows
}

func nodeGlyph(n mapping.VisibleNode) rune {
	switch {
	case n.HasUp && n.HasDown:
		return glyphUpDown
	case n.HasUp:
		return glyphUp
	case n.HasDown:
		return glyphDown
	default:
		return glyphRoom
	}
}

func connectorGlyph(dx, dy int) rune {
	switch {
	case dy == 0:
		return glyphHoriz
	case dx == 0:
		return glyphVert
	case (dx > 0) == (dy > 0):
		return glyphFalling
	default:
		return glyphRising
	}
}

// between returns the surface points strictly between a and b.
func between(a, b mapping.Point) []mapping.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := max(abs(dx), abs(dy))
	if steps < 2 {
		return nil
	}
	points := make([]mapping.Point, 0, steps-1)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		points = append(points, mapping.Point{
			X: a.X + int(math.Round(t*float64(dx))),
			Y: a.Y + int(math.Round(t*float64(dy))),
		})
	}
	return points
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
