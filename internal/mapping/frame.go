package mapping

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// UnsavedMapLabel names a map that is not associated with a file.
const UnsavedMapLabel = "<unsaved map>"

// VisibleNode is a visited cell inside the window on the active layer.
type VisibleNode struct {
	Coordinate
	Local   Point
	HasUp   bool
	HasDown bool
}

// VisibleLine is an edge drawn between two cells of the active layer.
type VisibleLine struct {
	Edge
	FromLocal Point
	ToLocal   Point
}

// Frame is everything a render adapter needs to paint the map. It is a
// value; adapters may keep it after Render returns.
type Frame struct {
	Viewport  Viewport
	Position  Coordinate
	Local     Point
	Nodes     []VisibleNode
	Lines     []VisibleLine
	ReadOnly  bool
	Dirty     bool
	File      string
	NodeCount int
	EdgeCount int
}

// PositionVisible reports whether the avatar marker falls inside the window
// on the displayed layer.
func (f Frame) PositionVisible() bool {
	return f.Position.Z == f.Viewport.Layer &&
		f.Viewport.Contains(f.Position.X, f.Position.Y)
}

// Name returns the base name of the associated file without its extension,
// or UnsavedMapLabel.
func (f Frame) Name() string {
	if strings.TrimSpace(f.File) == "" {
		return UnsavedMapLabel
	}
	base := filepath.Base(f.File)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Title renders the window title shown above the map.
func (f Frame) Title() string {
	title := fmt.Sprintf("Map: %s - Z: %d", f.Name(), f.Viewport.Layer)
	if f.Dirty {
		title += " *"
	}
	if f.ReadOnly {
		title += " [read-only]"
	}
	return title
}

// Frame computes the visible part of the graph. A node is visible when its
// column and row lie inside the window and it is on the active layer. A line
// is drawn when both endpoints are on the active layer and at least one of
// them is inside the window.
func (g *Graph) Frame() Frame {
	view := g.view
	frame := Frame{
		Viewport:  view,
		Position:  g.Position(),
		Local:     g.local,
		ReadOnly:  g.readOnly,
		Dirty:     g.dirty,
		File:      g.file,
		NodeCount: g.nodes.Size(),
		EdgeCount: len(g.edges),
	}

	g.nodes.Each(func(c Coordinate) {
		if c.Z != view.Layer || !view.Contains(c.X, c.Y) {
			return
		}
		up, down := g.Connections(c)
		frame.Nodes = append(frame.Nodes, VisibleNode{
			Coordinate: c,
			Local:      view.ToLocal(c),
			HasUp:      up,
			HasDown:    down,
		})
	})
	sort.Slice(frame.Nodes, func(i, j int) bool {
		return less(frame.Nodes[i].Coordinate, frame.Nodes[j].Coordinate)
	})

	for _, e := range g.Edges() {
		if e.From.Z != view.Layer || e.To.Z != view.Layer {
			continue
		}
		if !view.Contains(e.From.X, e.From.Y) && !view.Contains(e.To.X, e.To.Y) {
			continue
		}
		frame.Lines = append(frame.Lines, VisibleLine{
			Edge:      e,
			FromLocal: view.ToLocal(e.From),
			ToLocal:   view.ToLocal(e.To),
		})
	}
	return frame
}
