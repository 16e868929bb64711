package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMoveScenarioNorthThenUp(t *testing.T) {
	g := New(WithWindow(11, 7))

	res := g.Move("n")
	if !res.Moved {
		t.Fatalf("Move(n) did not move: %+v", res)
	}
	if got, want := g.Position(), (Coordinate{Y: -1}); got != want {
		t.Fatalf("Position() = %v, want %v", got, want)
	}
	if diff := cmp.Diff([]Coordinate{{Y: -1}, {}}, g.Nodes()); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Edge{{From: Coordinate{}, To: Coordinate{Y: -1}}}, g.Edges()); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}

	g.Move("up")
	if got, want := g.Position(), (Coordinate{Y: -1, Z: 1}); got != want {
		t.Fatalf("Position() = %v, want %v", got, want)
	}
	if g.Viewport().Layer != 1 {
		t.Fatalf("Layer = %d, want 1", g.Viewport().Layer)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if !g.Dirty() {
		t.Fatalf("expected map to be dirty")
	}
}

func TestMoveRecentersViewport(t *testing.T) {
	g := New(WithWindow(9, 5))
	for _, token := range []string{"e", "e", "se", "nwup"} {
		g.Move(token)
		view := g.Viewport()
		local := g.Local()
		require.Equal(t, view.Center(), local, "after %q", token)
		require.Equal(t, g.Position().X, view.Offset.X+local.X)
		require.Equal(t, g.Position().Y, view.Offset.Y+local.Y)
		require.Equal(t, g.Position().Z, view.Layer)
	}
}

func TestMoveIgnoresNonDirections(t *testing.T) {
	g := New()
	res := g.Move("look")
	if res.Moved || res.Rejected {
		t.Fatalf("Move(look) = %+v, want no-op", res)
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 || g.Dirty() {
		t.Fatalf("non-direction changed the map")
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	g := New()
	g.Move("e")
	g.Move("w")
	g.Move("e")
	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1 (reverse walk must not add a second edge)", g.EdgeCount())
	}
	if got := g.Edges()[0]; got.From != (Coordinate{}) || got.To != (Coordinate{X: 1}) {
		t.Fatalf("edge orientation = %v, want first walked direction", got)
	}
}

func TestDirtyOnlyForNewData(t *testing.T) {
	g := New()
	g.Move("e")
	g.MarkSaved("/tmp/a.slmap")
	if g.Dirty() {
		t.Fatalf("MarkSaved left map dirty")
	}
	g.Move("w")
	if g.Dirty() {
		t.Fatalf("walking a recorded edge marked the map dirty")
	}
	g.PanBy(3, -2)
	g.Teleport(Point{X: 0, Y: 0})
	g.RecenterOn(g.Position())
	if g.Dirty() {
		t.Fatalf("pan or teleport marked the map dirty")
	}
	g.Move("n")
	if !g.Dirty() {
		t.Fatalf("new node did not mark the map dirty")
	}
}

func TestStepLayerMarksDirty(t *testing.T) {
	g := New()
	g.Move("e")
	g.MarkSaved("/tmp/a.slmap")
	g.StepLayer(1)
	if !g.Dirty() {
		t.Fatalf("layer change did not mark the map dirty")
	}
	g.MarkSaved("/tmp/a.slmap")
	g.StepLayer(0)
	if g.Dirty() {
		t.Fatalf("zero layer step marked the map dirty")
	}
}

func TestReadOnlyGating(t *testing.T) {
	g := New()
	g.Restore(Snapshot{
		Position: Coordinate{},
		Nodes:    []Coordinate{{}, {X: 1}},
		Edges:    []Edge{{From: Coordinate{}, To: Coordinate{X: 1}}},
	}, "")
	g.SetReadOnly(true)

	if res := g.Move("north"); !res.Rejected || res.Moved {
		t.Fatalf("Move(north) = %+v, want rejected", res)
	}
	if g.Position() != (Coordinate{}) {
		t.Fatalf("rejected move changed position to %v", g.Position())
	}
	if res := g.Move("east"); !res.Moved {
		t.Fatalf("Move(east) = %+v, want moved", res)
	}
	if g.Position() != (Coordinate{X: 1}) {
		t.Fatalf("Position() = %v, want (1,0,0)", g.Position())
	}
	if res := g.Move("west"); !res.Moved {
		t.Fatalf("Move(west) along reverse edge = %+v, want moved", res)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 || g.Dirty() {
		t.Fatalf("read-only mode modified the map: nodes=%d edges=%d dirty=%v", g.NodeCount(), g.EdgeCount(), g.Dirty())
	}
}

func TestReadOnlyRequiresEdge(t *testing.T) {
	g := New()
	g.Restore(Snapshot{
		Nodes: []Coordinate{{}, {X: 1}},
	}, "")
	g.SetReadOnly(true)
	if res := g.Move("e"); !res.Rejected {
		t.Fatalf("move to unlinked node = %+v, want rejected", res)
	}
}

func TestPanCarriesPosition(t *testing.T) {
	g := New(WithWindow(10, 10))
	g.Move("s")

	g.PanBy(4, 0)
	if got := g.Viewport().Offset; got != (Point{X: -1, Y: -4}) {
		t.Fatalf("Offset = %v, want (-1,-4)", got)
	}
	if g.Local() != g.Viewport().Center() {
		t.Fatalf("PanBy moved the local position to %v", g.Local())
	}
	if got, want := g.Position(), (Coordinate{X: 4, Y: 1}); got != want {
		t.Fatalf("Position() = %v, want %v", got, want)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("PanBy changed the graph")
	}

	g.Move("s")
	if got, want := g.Position(), (Coordinate{X: 4, Y: 2}); got != want {
		t.Fatalf("move after pan = %v, want %v", got, want)
	}
	if !g.HasNode(Coordinate{X: 4, Y: 1}) {
		t.Fatalf("move after pan did not record its starting cell")
	}
}

func TestPanKeepsPositionInsideWindow(t *testing.T) {
	g := New(WithWindow(10, 10))
	for _, step := range []Point{{X: 30}, {Y: -45}, {X: -7, Y: 12}} {
		g.PanBy(step.X, step.Y)
		view := g.Viewport()
		pos := g.Position()
		require.True(t, view.Contains(pos.X, pos.Y), "position %v outside %+v", pos, view)
		require.Equal(t, pos.X, view.Offset.X+g.Local().X)
		require.Equal(t, pos.Y, view.Offset.Y+g.Local().Y)
	}
}

func TestTeleportMovesNextStepOrigin(t *testing.T) {
	g := New(WithWindow(10, 10))
	target := g.Teleport(Point{X: 8, Y: 5})
	if target != (Coordinate{X: 3}) {
		t.Fatalf("Teleport target = %v, want (3,0,0)", target)
	}
	if g.Position() != target || g.Local() != g.Viewport().Center() {
		t.Fatalf("position = %v local = %v after teleport", g.Position(), g.Local())
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 || g.Dirty() {
		t.Fatalf("Teleport recorded something")
	}

	g.Move("e")
	if got, want := g.Position(), (Coordinate{X: 4}); got != want {
		t.Fatalf("move after teleport = %v, want %v", got, want)
	}
	if diff := cmp.Diff([]Edge{{From: Coordinate{X: 3}, To: Coordinate{X: 4}}}, g.Edges()); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestTeleportAllowedInReadOnly(t *testing.T) {
	g := New(WithWindow(10, 10))
	g.Move("e")
	g.SetReadOnly(true)
	target := g.Teleport(Point{X: 4, Y: 5})
	if target != (Coordinate{}) || g.Position() != target {
		t.Fatalf("read-only teleport = %v, position %v", target, g.Position())
	}
	if res := g.Move("e"); !res.Moved {
		t.Fatalf("replay after teleport = %+v, want moved", res)
	}
}

func TestTeleportAtUsesMetrics(t *testing.T) {
	g := New(WithWindow(10, 10), WithMetrics(Metrics{CellSize: 10, CellSpacing: 10}))
	target := g.TeleportAt(45, 19)
	if target != (Coordinate{X: -3, Y: -5}) {
		t.Fatalf("TeleportAt = %v, want (-3,-5,0)", target)
	}
}

func TestStepLayerMovesPositionLayer(t *testing.T) {
	g := New()
	g.StepLayer(-2)
	if g.Viewport().Layer != -2 {
		t.Fatalf("Layer = %d, want -2", g.Viewport().Layer)
	}
	if got, want := g.Position(), (Coordinate{Z: -2}); got != want {
		t.Fatalf("Position() = %v, want %v", got, want)
	}
	g.Move("e")
	if got, want := g.Position(), (Coordinate{X: 1, Z: -2}); got != want {
		t.Fatalf("move after layer step = %v, want %v", got, want)
	}
	if g.Viewport().Layer != -2 || g.HasNode(Origin) {
		t.Fatalf("move after layer step left layer -2 or recorded the origin")
	}
}

func TestNewMapResets(t *testing.T) {
	g := New(WithWindow(8, 6))
	g.Move("n")
	g.Move("up")
	g.MarkSaved("maps/cave.slmap")
	g.Move("e")
	g.SetReadOnly(true)

	g.NewMap()
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Fatalf("NewMap left data behind")
	}
	if g.Dirty() || g.File() != "" {
		t.Fatalf("NewMap left dirty=%v file=%q", g.Dirty(), g.File())
	}
	if g.Position() != Origin || g.Viewport().Layer != 0 {
		t.Fatalf("NewMap position = %v layer = %d", g.Position(), g.Viewport().Layer)
	}
	if g.Local() != g.Viewport().Center() {
		t.Fatalf("NewMap did not center the origin")
	}
	if !g.ReadOnly() {
		t.Fatalf("NewMap must not flip the read-only switch")
	}
}

func TestSetWindowRecentersWhenPositionLeavesWindow(t *testing.T) {
	g := New(WithWindow(20, 20))
	for i := 0; i < 9; i++ {
		g.Move("e")
	}
	g.PanBy(-9, 0)
	before := g.Position()
	g.SetWindow(4, 4)
	view := g.Viewport()
	if g.Position() != before {
		t.Fatalf("shrink moved the position from %v to %v", before, g.Position())
	}
	if !view.Contains(g.Position().X, g.Position().Y) {
		t.Fatalf("position %v outside window %+v after shrink", g.Position(), view)
	}
	if g.Local() != view.Center() {
		t.Fatalf("local = %v, want center %v", g.Local(), view.Center())
	}
}

func TestSetWindowKeepsPositionWhenItFits(t *testing.T) {
	g := New(WithWindow(10, 10))
	g.Move("e")
	before := g.Position()
	g.SetWindow(12, 12)
	if g.Position() != before {
		t.Fatalf("grow moved the position from %v to %v", before, g.Position())
	}
}

func TestResizeUsesMetrics(t *testing.T) {
	g := New(WithMetrics(Metrics{CellSize: 1, CellSpacing: 1}))
	g.Resize(81, 30)
	view := g.Viewport()
	if view.Width != 40 || view.Height != 15 {
		t.Fatalf("window = %dx%d, want 40x15", view.Width, view.Height)
	}
}

func TestRendererCalledOnChange(t *testing.T) {
	var frames []Frame
	g := New(WithRenderer(RenderFunc(func(f Frame) {
		frames = append(frames, f)
	})))
	g.Move("look")
	if len(frames) != 0 {
		t.Fatalf("renderer called for a non-move")
	}
	g.Move("e")
	g.PanBy(1, 0)
	g.StepLayer(1)
	if len(frames) != 3 {
		t.Fatalf("renderer calls = %d, want 3", len(frames))
	}
	if frames[0].NodeCount != 2 || !frames[0].Dirty {
		t.Fatalf("first frame = %+v", frames[0])
	}
}
