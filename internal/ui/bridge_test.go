package ui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
)

type recorder struct {
	got *[]tea.Msg
}

func (r recorder) Init() tea.Cmd { return nil }

func (r recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case OutputMsg, FrameMsg, CatalogMsg:
		*r.got = append(*r.got, msg)
	case MapOpenMsg:
		*r.got = append(*r.got, msg)
		return r, tea.Quit
	}
	return r, nil
}

func (r recorder) View() string { return "" }

func TestBridgeForwardsIntoProgram(t *testing.T) {
	var got []tea.Msg
	p := tea.NewProgram(recorder{got: &got}, tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
	b := NewBridge()
	b.Attach(p)

	frame := mapping.Frame{NodeCount: 4}
	entries := []mapstore.Entry{{Name: "cave"}}
	go func() {
		b.Print("hello")
		b.Render(frame)
		b.Catalog(entries)
		b.MapOpen(false)
	}()
	_, err := p.Run()
	require.NoError(t, err)
	require.Equal(t, []tea.Msg{OutputMsg("hello"), FrameMsg(frame), CatalogMsg(entries), MapOpenMsg(false)}, got)
}

func TestUnattachedBridgeDropsMessages(t *testing.T) {
	b := NewBridge()
	b.Print("nobody listens")
	b.Render(mapping.Frame{})
	b.Quit()
}
