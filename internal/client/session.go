package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"SLClient/internal/script"
	"SLClient/internal/transport"
)

// Sink receives text for the output pane. It must be safe for concurrent
// use; lines from the server and local notices arrive on different
// goroutines.
type Sink interface {
	Print(line string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(string)

// Print calls f(line).
func (f SinkFunc) Print(line string) {
	f(line)
}

// LocalFunc handles a '#' command. Returning true ends the session.
type LocalFunc func(ctx context.Context, s *Session, line string) bool

// Options configures a Session.
type Options struct {
	Transport  transport.Transport
	Controller *Controller
	Scripts    *script.Engine
	Sink       Sink
	Local      LocalFunc
	Logger     *zap.Logger
	// Host and Port are used by Connect when called without an endpoint.
	Host    string
	Port    int
	MapOpen bool
	// OnQuit is called once when a local command ends the session.
	OnQuit func()
	// OnMapOpen is called whenever the map is shown or hidden.
	OnMapOpen func(open bool)
}

// Session is one interactive client session.
type Session struct {
	transport  transport.Transport
	controller *Controller
	scripts    *script.Engine
	sink       Sink
	local      LocalFunc
	logger     *zap.Logger
	onQuit     func()
	onMapOpen  func(bool)
	quitOnce   sync.Once

	inputs chan string

	mu        sync.Mutex
	host      string
	port      int
	mapOpen   bool
	awaiting  bool
	lastBlank bool
	manual    bool

	receivers sync.WaitGroup
}

// NewSession returns a session. Transport, Controller and Sink are required.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		transport:  opts.Transport,
		controller: opts.Controller,
		scripts:    opts.Scripts,
		sink:       opts.Sink,
		local:      opts.Local,
		logger:     logger.Named("session"),
		onQuit:     opts.OnQuit,
		onMapOpen:  opts.OnMapOpen,
		inputs:     make(chan string, 32),
		host:       opts.Host,
		port:       opts.Port,
		mapOpen:    opts.MapOpen,
		lastBlank:  true,
	}
}

// Controller returns the map controller.
func (s *Session) Controller() *Controller {
	return s.controller
}

// Submit queues a typed line for Run. It never blocks the caller for longer
// than the queue is full.
func (s *Session) Submit(line string) {
	s.inputs <- line
}

// Run handles submitted input in order until ctx is cancelled, then closes
// the connection.
func (s *Session) Run(ctx context.Context) error {
	defer s.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-s.inputs:
			if s.HandleInput(ctx, line) {
				s.quit()
			}
		}
	}
}

func (s *Session) quit() {
	s.quitOnce.Do(func() {
		if s.onQuit != nil {
			s.onQuit()
		}
	})
}

func (s *Session) shutdown() {
	s.mu.Lock()
	s.manual = true
	s.mu.Unlock()
	if err := s.transport.Close(); err != nil {
		s.logger.Debug("close transport", zap.Error(err))
	}
	s.receivers.Wait()
}

// HandleInput processes one typed line. Lines starting with '#' go to the
// local command handler; everything else may move the map and is sent to
// the server. It returns true when the session should end.
func (s *Session) HandleInput(ctx context.Context, raw string) bool {
	command := strings.TrimSpace(raw)
	if command == "" {
		return false
	}
	if strings.HasPrefix(command, "#") && s.local != nil {
		return s.local(ctx, s, command)
	}

	command, handled := s.scripts.OnInput(command, s.actions())
	if handled || strings.TrimSpace(command) == "" {
		return false
	}

	if s.MapOpen() {
		if _, err := s.controller.Move(strings.ToLower(command)); err != nil {
			s.logger.Warn("forward move", zap.Error(err))
		}
	}
	s.send(command)
	return false
}

func (s *Session) send(command string) {
	if err := s.transport.Send(command); err != nil {
		if errors.Is(err, transport.ErrNotConnected) {
			s.Print("Not connected.")
			return
		}
		s.logger.Warn("send", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.awaiting = true
	s.mu.Unlock()
}

func (s *Session) actions() script.Actions {
	return script.Actions{
		Send: func(text string) { s.send(text) },
		Echo: s.Print,
	}
}

// Print writes a local line to the output pane.
func (s *Session) Print(line string) {
	s.mu.Lock()
	s.lastBlank = strings.TrimSpace(line) == ""
	s.mu.Unlock()
	s.sink.Print(line)
}

// Printf formats and prints a local line.
func (s *Session) Printf(format string, args ...any) {
	s.Print(fmt.Sprintf(format, args...))
}

// HandleLine processes one line received from the server.
func (s *Session) HandleLine(line string) {
	if line == "" {
		return
	}
	if strings.HasPrefix(line, ">") {
		line = strings.TrimLeft(line[1:], " \t")
	}
	s.mu.Lock()
	separate := s.awaiting && !s.lastBlank
	s.awaiting = false
	s.mu.Unlock()
	if separate {
		s.Print("")
	}
	s.Print(line)
	s.scripts.OnLine(line, s.actions())
}

// MapOpen reports whether typed movement is mirrored on the map.
func (s *Session) MapOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapOpen
}

// SetMapOpen shows or hides the map.
func (s *Session) SetMapOpen(open bool) {
	s.mu.Lock()
	s.mapOpen = open
	s.mu.Unlock()
	if s.onMapOpen != nil {
		s.onMapOpen(open)
	}
}

// Endpoint returns the last host and port used or configured.
func (s *Session) Endpoint() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host, s.port
}

// Connected reports whether the transport has an open connection.
func (s *Session) Connected() bool {
	return s.transport.Connected()
}

// Connect opens a connection and starts delivering its lines. An empty host
// or a zero port falls back to the last endpoint.
func (s *Session) Connect(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	if strings.TrimSpace(host) == "" {
		host = s.host
	}
	if port <= 0 {
		port = s.port
	}
	s.mu.Unlock()
	if strings.TrimSpace(host) == "" {
		return errors.New("no host given")
	}

	if _, err := s.Disconnect(); err != nil {
		s.logger.Debug("close previous connection", zap.Error(err))
	}
	s.Printf("Connecting to %s:%d...", host, port)
	lines, err := s.transport.Connect(ctx, host, port)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.host, s.port = host, port
	s.manual = false
	s.mu.Unlock()

	s.Print("Connected.")
	s.receivers.Add(1)
	go s.receive(lines)
	return nil
}

func (s *Session) receive(lines <-chan string) {
	defer s.receivers.Done()
	for line := range lines {
		s.HandleLine(line)
	}
	s.mu.Lock()
	manual := s.manual
	s.mu.Unlock()
	if !manual {
		s.Print("Connection closed by server.")
	}
}

// Disconnect closes the connection. It reports whether one was open.
func (s *Session) Disconnect() (bool, error) {
	if !s.transport.Connected() {
		return false, nil
	}
	s.mu.Lock()
	s.manual = true
	s.mu.Unlock()
	err := s.transport.Close()
	s.receivers.Wait()
	return true, err
}
