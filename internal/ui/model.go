// Package ui is the terminal front end: an output pane, an input line and
// the map pane. Everything that touches the map runs inside tea.Cmd
// functions because the controller delivers frames back through the
// program and must never wait on Update.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"SLClient/internal/client"
	"SLClient/internal/mapping"
)

const (
	maxScrollback       = 2000
	maxHistory          = 100
	doubleClickInterval = 300 * time.Millisecond
)

// Session is the part of client.Session the UI drives.
type Session interface {
	Submit(line string)
	Connected() bool
	Endpoint() (string, int)
}

// MapController is the part of client.Controller the UI drives.
type MapController interface {
	Resize(width, height int) error
	PanBy(dx, dy int) error
	StepLayer(delta int) error
	Center() error
	TeleportAt(px, py int) (mapping.Coordinate, error)
}

// Options configures a Model.
type Options struct {
	Session    Session
	Controller MapController
	Metrics    mapping.Metrics
	MapOpen    bool
	// Notices are shown in the output pane before anything else.
	Notices []string
	Logger  *zap.Logger
}

// Model is the bubbletea model of the client window.
type Model struct {
	session Session
	ctrl    MapController
	metrics mapping.Metrics
	logger  *zap.Logger
	now     func() time.Time

	width  int
	height int

	output viewport.Model
	input  textinput.Model
	lines  []string

	history    []string
	historyPos int
	draft      string

	mapOpen   bool
	frame     mapping.Frame
	haveFrame bool
	clicks    clickTracker

	status string
}

// NewModel returns a model with an empty output pane and a focused input.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "type a command, #help for client commands"
	in.Focus()
	return Model{
		session: opts.Session,
		ctrl:    opts.Controller,
		metrics: opts.Metrics,
		logger:  logger.Named("ui"),
		now:     time.Now,
		output:  viewport.New(0, 0),
		input:   in,
		lines:   append([]string(nil), opts.Notices...),
		mapOpen: opts.MapOpen,
		status:  "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

type layout struct {
	outputWidth int
	bodyHeight  int
	mapWidth    int
	mapHeight   int
	mapX        int
	mapY        int
}

// layout splits the window: output left, map right, then one status row
// and the input row.
func (m Model) layout() layout {
	l := layout{outputWidth: max(1, m.width), bodyHeight: max(1, m.height-2)}
	if !m.mapOpen {
		return l
	}
	outer := max(m.width*2/5, mapPaneChromeWidth+1)
	l.outputWidth = max(1, m.width-outer)
	l.mapWidth = max(1, outer-mapPaneChromeWidth)
	l.mapHeight = max(1, l.bodyHeight-mapPaneChromeHeight)
	l.mapX = l.outputWidth + 2
	l.mapY = 2
	return l
}

func (m *Model) applyLayout() {
	l := m.layout()
	m.output.Width = l.outputWidth
	m.output.Height = l.bodyHeight
	m.input.Width = max(1, m.width-lipgloss.Width(m.input.Prompt)-1)
	m.refreshOutput()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.applyLayout()
		return m, m.resizeMap()
	case OutputMsg:
		m.appendOutput(string(msg))
		return m, nil
	case FrameMsg:
		m.frame = mapping.Frame(msg)
		m.haveFrame = true
		return m, nil
	case CatalogMsg:
		m.status = humanize.Comma(int64(len(msg))) + " saved maps"
		return m, nil
	case MapOpenMsg:
		m.mapOpen = bool(msg)
		m.applyLayout()
		return m, m.resizeMap()
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		line := m.input.Value()
		m.input.Reset()
		m.remember(line)
		return m, m.submit(line)
	case "up":
		m.recall(-1)
		return m, nil
	case "down":
		m.recall(1)
		return m, nil
	case "ctrl+up":
		return m, m.mapCmd(func(c MapController) (string, error) { return "", c.PanBy(0, -1) })
	case "ctrl+down":
		return m, m.mapCmd(func(c MapController) (string, error) { return "", c.PanBy(0, 1) })
	case "ctrl+left":
		return m, m.mapCmd(func(c MapController) (string, error) { return "", c.PanBy(-1, 0) })
	case "ctrl+right":
		return m, m.mapCmd(func(c MapController) (string, error) { return "", c.PanBy(1, 0) })
	case "alt+up":
		return m, m.mapCmd(func(c MapController) (string, error) { return "", c.StepLayer(1) })
	case "alt+down":
		return m, m.mapCmd(func(c MapController) (string, error) { return "", c.StepLayer(-1) })
	case "ctrl+home":
		return m, m.mapCmd(func(c MapController) (string, error) { return "view centered", c.Center() })
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	if !m.mapOpen {
		return m, nil
	}
	l := m.layout()
	px, py := msg.X-l.mapX, msg.Y-l.mapY
	if px < 0 || py < 0 || px >= l.mapWidth || py >= l.mapHeight {
		return m, nil
	}
	if !m.clicks.press(m.metrics.CellAt(px, py), m.now()) {
		return m, nil
	}
	return m, m.mapCmd(func(c MapController) (string, error) {
		target, err := c.TeleportAt(px, py)
		return "position set to " + target.String(), err
	})
}

func (m Model) submit(line string) tea.Cmd {
	if m.session == nil {
		return nil
	}
	session := m.session
	return func() tea.Msg {
		session.Submit(line)
		return nil
	}
}

// mapCmd runs fn off the update loop and turns its result into a status
// message.
func (m Model) mapCmd(fn func(MapController) (string, error)) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl, logger := m.ctrl, m.logger
	return func() tea.Msg {
		status, err := fn(ctrl)
		if errors.Is(err, client.ErrStopped) {
			return nil
		}
		if err != nil {
			logger.Warn("map request", zap.Error(err))
			return statusMsg(err.Error())
		}
		if status == "" {
			return nil
		}
		return statusMsg(status)
	}
}

func (m Model) resizeMap() tea.Cmd {
	if !m.mapOpen || m.width == 0 {
		return nil
	}
	l := m.layout()
	return m.mapCmd(func(c MapController) (string, error) {
		return "", c.Resize(l.mapWidth, l.mapHeight)
	})
}

func (m *Model) appendOutput(line string) {
	m.lines = append(m.lines, line)
	if over := len(m.lines) - maxScrollback; over > 0 {
		m.lines = append(m.lines[:0], m.lines[over:]...)
	}
	m.refreshOutput()
}

func (m *Model) refreshOutput() {
	follow := m.output.AtBottom()
	m.output.SetContent(strings.Join(Wrap(m.lines, m.output.Width), "\n"))
	if follow {
		m.output.GotoBottom()
	}
}

func (m *Model) remember(line string) {
	m.draft = ""
	if strings.TrimSpace(line) != "" {
		if n := len(m.history); n == 0 || m.history[n-1] != line {
			m.history = append(m.history, line)
		}
		if over := len(m.history) - maxHistory; over > 0 {
			m.history = append(m.history[:0], m.history[over:]...)
		}
	}
	m.historyPos = len(m.history)
}

// recall walks the input history; stepping past the newest entry restores
// what was being typed.
func (m *Model) recall(step int) {
	if len(m.history) == 0 {
		return
	}
	if m.historyPos == len(m.history) {
		m.draft = m.input.Value()
	}
	pos := min(max(m.historyPos+step, 0), len(m.history))
	if pos == m.historyPos {
		return
	}
	m.historyPos = pos
	if pos == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[pos])
	}
	m.input.CursorEnd()
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	l := m.layout()
	body := lipgloss.NewStyle().Width(l.outputWidth).Height(l.bodyHeight).Render(m.output.View())
	if m.mapOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.mapView(l))
	}
	status := dimStyle.Render(" " + m.statusLine() + " ")
	ui := lipgloss.JoinVertical(lipgloss.Left, body, status, m.input.View())
	return appStyle.Width(m.width).MaxHeight(m.height).Render(ui)
}

func (m Model) mapView(l layout) string {
	title := "Map"
	var rows []string
	if m.haveFrame {
		title = m.frame.Title()
		rows = RenderMap(m.frame, m.metrics)
	}
	rows = clip(rows, l.mapWidth, l.mapHeight)
	for i, row := range rows {
		rows[i] = strings.ReplaceAll(row, string(glyphAvatar), avatarStyle.Render(string(glyphAvatar)))
	}
	content := titleStyle.Render(truncate(title, l.mapWidth)) + "\n" + strings.Join(rows, "\n")
	return boxStyle.Width(l.mapWidth + 2).Height(l.mapHeight + 1).Render(content)
}

func (m Model) statusLine() string {
	conn := "offline"
	if m.session != nil && m.session.Connected() {
		host, port := m.session.Endpoint()
		conn = fmt.Sprintf("%s:%d", host, port)
	}
	return conn + " | " + m.status
}

func clip(rows []string, width, height int) []string {
	if len(rows) > height {
		rows = rows[:height]
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = truncate(row, width)
	}
	return out
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s
}

type clickTracker struct {
	armed bool
	cell  mapping.Point
	at    time.Time
}

// press records a left press on cell and reports whether it completes a
// double click.
func (c *clickTracker) press(cell mapping.Point, at time.Time) bool {
	if c.armed && c.cell == cell && at.Sub(c.at) <= doubleClickInterval {
		c.armed = false
		return true
	}
	c.armed, c.cell, c.at = true, cell, at
	return false
}
