package client

import (
	"context"
	"sync"
	"testing"

	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
	"SLClient/internal/transport"
)

type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	lines     chan string
	sent      []string
	dialed    []string
	failDial  error

	// banner is queued on every new connection. With dropAfterBanner the
	// server hangs up before Connect returns.
	banner          []string
	dropAfterBanner bool
}

func (f *fakeTransport) Connect(ctx context.Context, host string, port int) (<-chan string, error) {
	if f.failDial != nil {
		return nil, f.failDial
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.lines = make(chan string, 16)
	f.dialed = append(f.dialed, host)
	for _, line := range f.banner {
		f.lines <- line
	}
	lines := f.lines
	if f.dropAfterBanner {
		f.connected = false
		close(f.lines)
	}
	return lines, nil
}

func (f *fakeTransport) Send(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return transport.ErrNotConnected
	}
	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// hangUp simulates the server dropping the connection.
func (f *fakeTransport) hangUp() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		f.connected = false
		close(f.lines)
	}
}

func (f *fakeTransport) Close() error {
	f.hangUp()
	return nil
}

func (f *fakeTransport) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type captureSink struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureSink) Print(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *captureSink) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// startController runs a controller over a fresh map until the test ends.
func startController(t *testing.T) *Controller {
	t.Helper()
	catalog, err := mapstore.NewCatalog(t.TempDir())
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}
	ctrl := NewController(mapping.New(mapping.WithWindow(9, 9)), catalog, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctrl
}
