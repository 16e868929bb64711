package mapping

import "fmt"

// Coordinate is a cell in the unbounded world grid. North is -Y, east is +X
// and up is +Z.
type Coordinate struct {
	X int
	Y int
	Z int
}

// Origin is the world coordinate every fresh map starts from.
var Origin = Coordinate{}

// Add returns the coordinate offset by delta.
func (c Coordinate) Add(delta Coordinate) Coordinate {
	return Coordinate{X: c.X + delta.X, Y: c.Y + delta.Y, Z: c.Z + delta.Z}
}

// Above returns the cell stacked directly on top of c.
func (c Coordinate) Above() Coordinate {
	return Coordinate{X: c.X, Y: c.Y, Z: c.Z + 1}
}

// Below returns the cell directly underneath c.
func (c Coordinate) Below() Coordinate {
	return Coordinate{X: c.X, Y: c.Y, Z: c.Z - 1}
}

// IsZero reports whether c is the zero delta.
func (c Coordinate) IsZero() bool {
	return c == Coordinate{}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Point is a two dimensional cell position, used for viewport offsets and
// window-local positions.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Edge records a traversal between two coordinates. From and To keep the
// orientation the link was first walked in; equality for graph purposes is
// unordered, see Key.
type Edge struct {
	From Coordinate
	To   Coordinate
}

// EdgeKey identifies an edge independent of its orientation.
type EdgeKey struct {
	A Coordinate
	B Coordinate
}

// Key returns the orientation-free identity of e.
func (e Edge) Key() EdgeKey {
	return keyFor(e.From, e.To)
}

// Reversed returns e walked in the opposite direction.
func (e Edge) Reversed() Edge {
	return Edge{From: e.To, To: e.From}
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s", e.From, e.To)
}

func keyFor(a, b Coordinate) EdgeKey {
	if less(b, a) {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

func less(a, b Coordinate) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
