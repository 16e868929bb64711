// Package transport connects the client to a game server. Every
// implementation delivers server output as a stream of lines that ends when
// the connection drops, and sends are best effort.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotConnected is returned by Send while no connection is open.
	ErrNotConnected = errors.New("not connected")
	// ErrUnknownKind is returned by New for an unsupported transport name.
	ErrUnknownKind = errors.New("unknown transport")
)

// Transport is a line oriented connection to a server.
type Transport interface {
	// Connect opens a connection, closing any previous one first, and
	// returns its receive stream. The stream is closed when the connection
	// drops or is closed, after every line read before that was delivered.
	Connect(ctx context.Context, host string, port int) (<-chan string, error)
	// Send writes one line. Write failures are logged and swallowed; only a
	// missing connection is reported.
	Send(line string) error
	Connected() bool
	Close() error
}

// Options selects and configures a transport.
type Options struct {
	Kind               string
	URL                string
	Charset            string
	InsecureSkipVerify bool
}

// New builds the transport named by opts.Kind: "tcp" (the default), "tls"
// or "ws".
func New(opts Options, logger *zap.Logger) (Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", "tcp", "telnet":
		return NewTCP(opts.Charset, nil, logger)
	case "tls", "telnets":
		return NewTCP(opts.Charset, tlsConfig(opts.InsecureSkipVerify), logger)
	case "ws", "wss", "websocket":
		return NewWebSocket(opts.URL, logger), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, opts.Kind)
	}
}

// lineConn is one open connection.
type lineConn interface {
	ReadLine() (string, error)
	WriteLine(string) error
	Close() error
}

type link struct {
	conn  lineConn
	lines chan string
	stop  chan struct{}
	done  chan struct{}
}

// base holds the connection bookkeeping shared by every transport.
type base struct {
	logger *zap.Logger
	mu     sync.Mutex
	cur    *link
}

func (b *base) attach(conn lineConn) <-chan string {
	l := &link{
		conn:  conn,
		lines: make(chan string, 64),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	b.mu.Lock()
	b.cur = l
	b.mu.Unlock()
	go b.pump(l)
	return l.lines
}

func (b *base) pump(l *link) {
	defer close(l.done)
	defer close(l.lines)
	for {
		line, err := l.conn.ReadLine()
		if err == nil || line != "" {
			select {
			case l.lines <- line:
			case <-l.stop:
				return
			}
		}
		if err != nil {
			select {
			case <-l.stop:
			default:
				b.logger.Info("connection dropped", zap.Error(err))
				b.detach(l)
				_ = l.conn.Close()
			}
			return
		}
	}
}

func (b *base) detach(l *link) {
	b.mu.Lock()
	if b.cur == l {
		b.cur = nil
	}
	b.mu.Unlock()
}

func (b *base) Send(line string) error {
	b.mu.Lock()
	l := b.cur
	b.mu.Unlock()
	if l == nil {
		return ErrNotConnected
	}
	if err := l.conn.WriteLine(line); err != nil {
		b.logger.Warn("send failed", zap.Error(err))
	}
	return nil
}

func (b *base) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur != nil
}

// Close closes the current connection and waits for its receive loop to
// finish. Closing an idle transport is a no-op.
func (b *base) Close() error {
	b.mu.Lock()
	l := b.cur
	b.cur = nil
	b.mu.Unlock()
	if l == nil {
		return nil
	}
	close(l.stop)
	err := l.conn.Close()
	<-l.done
	return err
}
