// Package mapping implements the auto-mapper: it turns movement commands
// into a 3D grid graph of visited cells and the links walked between them,
// keeps a pannable viewport over that graph and reads and writes the
// .slmap file format.
//
// A Graph is not safe for concurrent use. All mutation is expected to happen
// on one goroutine; see the client package for the controller that owns it.
package mapping

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// DefaultWindow is the window size, in cells, used until the render surface
// reports its real size.
var DefaultWindow = Point{X: 40, Y: 20}

// Renderer receives a fresh Frame whenever the visible state changes.
type Renderer interface {
	Render(Frame)
}

// RenderFunc adapts an ordinary function to the Renderer interface.
type RenderFunc func(Frame)

// Render calls f(frame).
func (f RenderFunc) Render(frame Frame) {
	f(frame)
}

// Option customises a Graph created with New.
type Option func(*Graph)

// WithRenderer installs the render adapter notified after each change.
func WithRenderer(r Renderer) Option {
	return func(g *Graph) {
		g.renderer = r
	}
}

// WithWindow sets the initial window size in cells.
func WithWindow(width, height int) Option {
	return func(g *Graph) {
		g.view.Width, g.view.Height = clampWindow(width, height)
	}
}

// WithMetrics sets the cell layout used to convert surface positions.
func WithMetrics(m Metrics) Option {
	return func(g *Graph) {
		g.metrics = m
	}
}

// MoveResult describes the outcome of a Move or Step call.
type MoveResult struct {
	Delta      Coordinate
	From       Coordinate
	To         Coordinate
	Moved      bool
	Rejected   bool
	NodesAdded int
	EdgeAdded  bool
}

// Graph is the auto-map engine. It owns the visited cells, the recorded
// links, the viewport, the window-local position, the read-only switch, the
// dirty flag and the identity of the file the map belongs to.
//
// The global position is not stored: it is the viewport offset plus the
// local position, on the viewport's layer. Panning, stepping the layer and
// teleporting therefore carry the position along with the view.
type Graph struct {
	nodes    mapset.Set[Coordinate]
	edges    map[EdgeKey]Edge
	links    map[Coordinate]mapset.Set[Coordinate]
	local    Point
	view     Viewport
	metrics  Metrics
	readOnly bool
	dirty    bool
	file     string
	renderer Renderer
}

// New returns an empty map positioned at the origin.
func New(opts ...Option) *Graph {
	g := &Graph{
		view:    Viewport{Width: DefaultWindow.X, Height: DefaultWindow.Y},
		metrics: DefaultMetrics,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.nodes = mapset.New[Coordinate]()
	g.edges = make(map[EdgeKey]Edge)
	g.links = make(map[Coordinate]mapset.Set[Coordinate])
	g.centerOn(Origin)
	g.dirty = false
	g.file = ""
}

// NewMap discards every node and edge, moves back to the origin and forgets
// the associated file. The read-only switch is left alone.
func (g *Graph) NewMap() {
	g.reset()
	g.Redraw()
}

// Move parses token and, when it is a movement command, walks one step in
// that direction. Tokens that are not directions leave the map untouched.
func (g *Graph) Move(token string) MoveResult {
	delta, ok := ParseDirection(token)
	if !ok {
		return MoveResult{}
	}
	return g.Step(delta)
}

// Step walks from the current position by delta. In read-only mode the step
// only succeeds when the target is a recorded node linked to the current
// position; otherwise it is silently rejected.
func (g *Graph) Step(delta Coordinate) MoveResult {
	if delta.IsZero() {
		return MoveResult{}
	}
	from := g.Position()
	to := from.Add(delta)
	result := MoveResult{Delta: delta, From: from, To: to}

	if g.readOnly {
		if !g.nodes.Has(to) || !g.Connected(from, to) {
			result.Rejected = true
			return result
		}
	} else {
		if g.addNode(from) {
			result.NodesAdded++
		}
		if g.addNode(to) {
			result.NodesAdded++
		}
		result.EdgeAdded = g.addEdge(Edge{From: from, To: to})
	}

	g.centerOn(to)
	result.Moved = true

	if result.NodesAdded > 0 || result.EdgeAdded || from.Z != to.Z {
		g.dirty = true
	}
	g.Redraw()
	return result
}

func (g *Graph) addNode(c Coordinate) bool {
	if g.nodes.Has(c) {
		return false
	}
	g.nodes.Put(c)
	return true
}

func (g *Graph) addEdge(e Edge) bool {
	if e.From == e.To {
		return false
	}
	key := e.Key()
	if _, exists := g.edges[key]; exists {
		return false
	}
	g.edges[key] = e
	g.link(e.From, e.To)
	g.link(e.To, e.From)
	return true
}

func (g *Graph) link(a, b Coordinate) {
	set, ok := g.links[a]
	if !ok {
		set = mapset.New[Coordinate]()
		g.links[a] = set
	}
	set.Put(b)
}

// PanBy shifts the viewport by whole cells. The local position stays put,
// so the global position moves with the view. Nothing is recorded and the
// map does not become dirty.
func (g *Graph) PanBy(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	g.view.Offset.X += dx
	g.view.Offset.Y += dy
	g.Redraw()
}

// StepLayer changes the active layer by delta. The next move starts on the
// new layer. A layer change marks the map dirty.
func (g *Graph) StepLayer(delta int) {
	if delta == 0 {
		return
	}
	g.view.Layer += delta
	g.dirty = true
	g.Redraw()
}

// RecenterOn pans the viewport so that c is at the window center on c's
// layer and places the local position there. Nothing is recorded.
func (g *Graph) RecenterOn(c Coordinate) {
	if c.Z != g.view.Layer {
		g.dirty = true
	}
	g.centerOn(c)
	g.Redraw()
}

// Teleport relocates the position to the cell under the window-local point
// on the active layer and recenters the view there. It is allowed in either
// mode, records nothing and returns the new position.
func (g *Graph) Teleport(local Point) Coordinate {
	target := g.view.ToGlobal(local)
	g.RecenterOn(target)
	return target
}

func (g *Graph) centerOn(c Coordinate) {
	g.view = g.view.centeredOn(c)
	g.local = g.view.Center()
}

// TeleportAt is Teleport for a position on the render surface.
func (g *Graph) TeleportAt(px, py int) Coordinate {
	return g.Teleport(g.metrics.CellAt(px, py))
}

// Resize recomputes the window from the render surface size. When the
// local position would fall outside the smaller window the view is
// recentered on the position.
func (g *Graph) Resize(surfaceWidth, surfaceHeight int) {
	w, h := g.metrics.GridSize(surfaceWidth, surfaceHeight)
	g.SetWindow(w, h)
}

// SetWindow sets the window size in cells.
func (g *Graph) SetWindow(width, height int) {
	width, height = clampWindow(width, height)
	if width == g.view.Width && height == g.view.Height {
		return
	}
	position := g.Position()
	g.view.Width, g.view.Height = width, height
	if !g.view.Contains(position.X, position.Y) {
		g.centerOn(position)
	}
	g.Redraw()
}

// SetReadOnly switches between edit and replay mode.
func (g *Graph) SetReadOnly(readOnly bool) {
	if g.readOnly == readOnly {
		return
	}
	g.readOnly = readOnly
	g.Redraw()
}

// ReadOnly reports whether moves are restricted to recorded paths.
func (g *Graph) ReadOnly() bool { return g.readOnly }

// Dirty reports whether the graph changed since the last save or load.
func (g *Graph) Dirty() bool { return g.dirty }

// File returns the path of the file the map was loaded from or saved to.
func (g *Graph) File() string { return g.file }

// MarkSaved records that the map now matches the file at path.
func (g *Graph) MarkSaved(path string) {
	g.file = path
	g.dirty = false
	g.Redraw()
}

// Position returns the avatar's global coordinate: the viewport offset plus
// the local position, on the active layer.
func (g *Graph) Position() Coordinate { return g.view.ToGlobal(g.local) }

// Viewport returns the current viewport.
func (g *Graph) Viewport() Viewport { return g.view }

// Metrics returns the cell layout used for surface conversions.
func (g *Graph) Metrics() Metrics { return g.metrics }

// Local returns the position in window-local cells.
func (g *Graph) Local() Point { return g.local }

// HasNode reports whether c has been visited.
func (g *Graph) HasNode(c Coordinate) bool { return g.nodes.Has(c) }

// Connected reports whether an edge links a and b in either direction.
func (g *Graph) Connected(a, b Coordinate) bool {
	set, ok := g.links[a]
	return ok && set.Has(b)
}

// Connections reports whether c is linked to the cell directly above and
// directly below it.
func (g *Graph) Connections(c Coordinate) (hasUp, hasDown bool) {
	return g.Connected(c, c.Above()), g.Connected(c, c.Below())
}

// NodeCount returns the number of visited cells.
func (g *Graph) NodeCount() int { return g.nodes.Size() }

// EdgeCount returns the number of recorded links.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns the visited cells sorted by layer, row and column.
func (g *Graph) Nodes() []Coordinate {
	out := make([]Coordinate, 0, g.nodes.Size())
	g.nodes.Each(func(c Coordinate) {
		out = append(out, c)
	})
	sortCoordinates(out)
	return out
}

// Edges returns the recorded links in a stable order.
func (g *Graph) Edges() []Edge {
	keys := make([]EdgeKey, 0, len(g.edges))
	for key := range g.edges {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return less(keys[i].A, keys[j].A)
		}
		return less(keys[i].B, keys[j].B)
	})
	out := make([]Edge, len(keys))
	for i, key := range keys {
		out[i] = g.edges[key]
	}
	return out
}

// Snapshot captures the persisted part of the map.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		Position: g.Position(),
		Nodes:    g.Nodes(),
		Edges:    g.Edges(),
	}
}

// Restore replaces the graph wholesale with s and centers the view on its
// position. The window size, metrics and read-only switch are kept; the map
// is clean afterwards and associated with path.
func (g *Graph) Restore(s Snapshot, path string) {
	g.nodes = mapset.New[Coordinate]()
	g.edges = make(map[EdgeKey]Edge)
	g.links = make(map[Coordinate]mapset.Set[Coordinate])
	for _, c := range s.Nodes {
		g.nodes.Put(c)
	}
	for _, e := range s.Edges {
		g.addEdge(e)
	}
	g.centerOn(s.Position)
	g.dirty = false
	g.file = path
	g.Redraw()
}

// Redraw hands the current Frame to the renderer, if any.
func (g *Graph) Redraw() {
	if g.renderer == nil {
		return
	}
	g.renderer.Render(g.Frame())
}

func clampWindow(width, height int) (int, int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

func sortCoordinates(list []Coordinate) {
	sort.Slice(list, func(i, j int) bool {
		return less(list[i], list[j])
	})
}
