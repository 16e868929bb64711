package mapping

// Metrics describes how map cells are laid out on a render surface. A cell
// is CellSize units wide and is followed by CellSpacing units of gap, so the
// grid pitch is their sum.
type Metrics struct {
	CellSize    int
	CellSpacing int
}

// DefaultMetrics matches a pixel surface with 10 unit cells and 10 unit gaps.
var DefaultMetrics = Metrics{CellSize: 10, CellSpacing: 10}

// Pitch returns the distance between the origins of two neighbouring cells.
func (m Metrics) Pitch() int {
	p := m.CellSize + m.CellSpacing
	if p <= 0 {
		return 1
	}
	return p
}

// GridSize returns how many whole cells fit on a surface of the given size.
func (m Metrics) GridSize(surfaceWidth, surfaceHeight int) (int, int) {
	p := m.Pitch()
	w, h := surfaceWidth/p, surfaceHeight/p
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// CellAt converts a surface position into window-local cell coordinates.
func (m Metrics) CellAt(px, py int) Point {
	p := m.Pitch()
	return Point{X: floorDiv(px, p), Y: floorDiv(py, p)}
}

// Origin returns the surface position of the top left corner of a local cell.
func (m Metrics) Origin(local Point) Point {
	p := m.Pitch()
	return Point{X: local.X * p, Y: local.Y * p}
}

// Viewport is the visible window onto the graph: a pan offset, a window size
// in cells and the active layer.
type Viewport struct {
	Offset Point
	Width  int
	Height int
	Layer  int
}

// Center returns the window-local center cell.
func (v Viewport) Center() Point {
	return Point{X: v.Width / 2, Y: v.Height / 2}
}

// Contains reports whether the global column/row lies inside the window.
// The layer is not considered.
func (v Viewport) Contains(x, y int) bool {
	return x >= v.Offset.X && x < v.Offset.X+v.Width &&
		y >= v.Offset.Y && y < v.Offset.Y+v.Height
}

// ToLocal maps a global coordinate onto the window.
func (v Viewport) ToLocal(c Coordinate) Point {
	return Point{X: c.X - v.Offset.X, Y: c.Y - v.Offset.Y}
}

// ToGlobal maps a window-local cell onto the world at the active layer.
func (v Viewport) ToGlobal(local Point) Coordinate {
	return Coordinate{X: local.X + v.Offset.X, Y: local.Y + v.Offset.Y, Z: v.Layer}
}

// centeredOn returns v panned so that c sits at the window center on c's
// layer.
func (v Viewport) centeredOn(c Coordinate) Viewport {
	center := v.Center()
	v.Offset = Point{X: c.X - center.X, Y: c.Y - center.Y}
	v.Layer = c.Z
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
