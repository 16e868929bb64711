package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"SLClient/internal/mapping"
	"SLClient/internal/script"
)

func newTestSession(t *testing.T, opts Options) (*Session, *fakeTransport, *captureSink) {
	t.Helper()
	tr, _ := opts.Transport.(*fakeTransport)
	if tr == nil {
		tr = &fakeTransport{}
		opts.Transport = tr
	}
	sink := &captureSink{}
	opts.Sink = sink
	if opts.Controller == nil {
		opts.Controller = startController(t)
	}
	s := NewSession(opts)
	t.Cleanup(func() { s.shutdown() })
	return s, tr, sink
}

func TestInputOfflineMovesMapAndWarns(t *testing.T) {
	s, tr, sink := newTestSession(t, Options{MapOpen: true})
	ctx := context.Background()

	if quit := s.HandleInput(ctx, "  Norden  "); quit {
		t.Fatalf("HandleInput returned quit")
	}
	if diff := cmp.Diff([]string{"Not connected."}, sink.all()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if len(tr.sentLines()) != 0 {
		t.Fatalf("sent while offline: %v", tr.sentLines())
	}
	frame, err := s.Controller().Frame()
	require.NoError(t, err)
	require.Equal(t, mapping.Coordinate{Y: -1}, frame.Position)
}

func TestInputIgnoresBlankAndClosedMap(t *testing.T) {
	s, tr, sink := newTestSession(t, Options{MapOpen: false})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "mud.example", 4711))

	s.HandleInput(ctx, "   ")
	s.HandleInput(ctx, "Süd")
	require.Equal(t, []string{"Süd"}, tr.sentLines())

	frame, err := s.Controller().Frame()
	require.NoError(t, err)
	require.Zero(t, frame.NodeCount, "closed map must not record moves")
	require.Contains(t, sink.all(), "Connected.")
}

func TestReceivedLinesAreCleanedAndSeparated(t *testing.T) {
	s, tr, sink := newTestSession(t, Options{})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "mud.example", 4711))
	before := len(sink.all())

	s.HandleInput(ctx, "schau")
	s.HandleLine(">  Eine Halle.")
	s.HandleLine("")
	s.HandleLine("Ausgaenge: n, s")
	s.HandleInput(ctx, "n")
	s.HandleLine("> ")
	s.HandleLine("Ein Gang.")

	got := sink.all()[before:]
	want := []string{"", "Eine Halle.", "Ausgaenge: n, s", "", "", "Ein Gang."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"schau", "n"}, tr.sentLines())
}

func TestLocalCommandsAreNotSent(t *testing.T) {
	var seen []string
	s, tr, _ := newTestSession(t, Options{
		Local: func(ctx context.Context, s *Session, line string) bool {
			seen = append(seen, line)
			return line == "#quit"
		},
	})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "mud.example", 23))

	require.False(t, s.HandleInput(ctx, "#map status"))
	require.True(t, s.HandleInput(ctx, " #quit "))
	require.Equal(t, []string{"#map status", "#quit"}, seen)
	require.Empty(t, tr.sentLines())
}

func TestScriptsRewriteInputAndReactToLines(t *testing.T) {
	engine, err := script.Compile(`package main

func OnInput(ctx map[string]any) {
    if ctx["input"].(string) == "ob" {
        ctx["input"] = "oben"
    }
}

func OnLine(ctx map[string]any) {
    if ctx["line"].(string) == "Du hast Hunger." {
        ctx["send"].(func(string))("iss brot")
    }
}
`, nil)
	require.NoError(t, err)

	s, tr, _ := newTestSession(t, Options{Scripts: engine, MapOpen: true})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, "mud.example", 4711))

	s.HandleInput(ctx, "ob")
	s.HandleLine("Du hast Hunger.")
	require.Equal(t, []string{"oben", "iss brot"}, tr.sentLines())

	frame, err := s.Controller().Frame()
	require.NoError(t, err)
	require.Equal(t, 1, frame.Position.Z)
}

func TestServerHangUpIsReported(t *testing.T) {
	s, tr, sink := newTestSession(t, Options{})
	require.NoError(t, s.Connect(context.Background(), "mud.example", 4711))
	tr.lines <- "Bye."
	tr.hangUp()

	require.Eventually(t, func() bool {
		lines := sink.all()
		return len(lines) > 0 && lines[len(lines)-1] == "Connection closed by server."
	}, 5*time.Second, 10*time.Millisecond)
	require.Contains(t, sink.all(), "Bye.")
}

func TestBannerBeforeEarlyHangUpIsShown(t *testing.T) {
	tr := &fakeTransport{banner: []string{"> Server full.", "Try later."}, dropAfterBanner: true}
	s, _, sink := newTestSession(t, Options{Transport: tr})
	require.NoError(t, s.Connect(context.Background(), "mud.example", 4711))

	require.Eventually(t, func() bool {
		lines := sink.all()
		return len(lines) > 0 && lines[len(lines)-1] == "Connection closed by server."
	}, 5*time.Second, 10*time.Millisecond)
	require.Contains(t, sink.all(), "Server full.")
	require.Contains(t, sink.all(), "Try later.")
}

func TestManualDisconnectIsQuiet(t *testing.T) {
	s, _, sink := newTestSession(t, Options{})
	require.NoError(t, s.Connect(context.Background(), "mud.example", 4711))
	was, err := s.Disconnect()
	require.NoError(t, err)
	require.True(t, was)
	require.NotContains(t, sink.all(), "Connection closed by server.")

	was, err = s.Disconnect()
	require.NoError(t, err)
	require.False(t, was)
}

func TestConnectUsesLastEndpoint(t *testing.T) {
	s, tr, _ := newTestSession(t, Options{Host: "default.example", Port: 4711})
	require.NoError(t, s.Connect(context.Background(), "", 0))
	require.Equal(t, []string{"default.example"}, tr.dialed)

	tr.failDial = errors.New("refused")
	require.Error(t, s.Connect(context.Background(), "other.example", 99))
	host, port := s.Endpoint()
	require.Equal(t, "default.example", host)
	require.Equal(t, 4711, port)
}

func TestRunProcessesSubmittedInput(t *testing.T) {
	quit := make(chan struct{})
	s, tr, _ := newTestSession(t, Options{
		Local:  func(ctx context.Context, s *Session, line string) bool { return true },
		OnQuit: func() { close(quit) },
	})
	require.NoError(t, s.Connect(context.Background(), "mud.example", 4711))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Submit("west")
	s.Submit("#quit")
	select {
	case <-quit:
	case <-time.After(5 * time.Second):
		t.Fatalf("quit callback not called")
	}
	cancel()
	require.NoError(t, <-done)
	require.Equal(t, []string{"west"}, tr.sentLines())
	require.False(t, s.Connected())
}

func TestSetMapOpenNotifies(t *testing.T) {
	var seen []bool
	s, _, _ := newTestSession(t, Options{OnMapOpen: func(open bool) { seen = append(seen, open) }})
	s.SetMapOpen(true)
	s.SetMapOpen(false)
	require.Equal(t, []bool{true, false}, seen)
	require.False(t, s.MapOpen())
}
