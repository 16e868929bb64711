package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
)

// OutputMsg carries one line for the output pane.
type OutputMsg string

// FrameMsg carries a fresh map frame.
type FrameMsg mapping.Frame

// CatalogMsg carries the current contents of the maps directory.
type CatalogMsg []mapstore.Entry

// MapOpenMsg shows or hides the map pane.
type MapOpenMsg bool

// statusMsg replaces the status line.
type statusMsg string

// Bridge forwards events from the client goroutines into the running
// program. It implements client.Sink and mapping.Renderer. Messages sent
// before Attach are dropped.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewBridge returns an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Print implements client.Sink.
func (b *Bridge) Print(line string) {
	b.send(OutputMsg(line))
}

// Render implements mapping.Renderer.
func (b *Bridge) Render(f mapping.Frame) {
	b.send(FrameMsg(f))
}

// Catalog reports a changed maps directory.
func (b *Bridge) Catalog(entries []mapstore.Entry) {
	b.send(CatalogMsg(entries))
}

// MapOpen reports that the map was shown or hidden.
func (b *Bridge) MapOpen(open bool) {
	b.send(MapOpenMsg(open))
}

// Quit stops the program.
func (b *Bridge) Quit() {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}
