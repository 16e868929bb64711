package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"SLClient/internal/telnet"
)

const wsWriteTimeout = 5 * time.Second

// WebSocket exchanges text frames with a server. Each inbound frame may hold
// several lines; each sent line is one frame.
type WebSocket struct {
	base
	url    string
	dialer websocket.Dialer
}

// NewWebSocket returns a WebSocket transport. An empty url is derived from
// the host and port passed to Connect.
func NewWebSocket(url string, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{
		base:   base{logger: logger.Named("transport").With(zap.String("kind", "ws"))},
		url:    strings.TrimSpace(url),
		dialer: websocket.Dialer{HandshakeTimeout: DialTimeout},
	}
}

// Connect opens the WebSocket.
func (w *WebSocket) Connect(ctx context.Context, host string, port int) (<-chan string, error) {
	if err := w.Close(); err != nil {
		w.logger.Debug("close previous connection", zap.Error(err))
	}
	url := w.url
	if url == "" {
		url = "ws://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/"
	}
	conn, resp, err := w.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	w.logger.Info("connected", zap.String("url", url))
	return w.attach(&wsLine{conn: conn}), nil
}

type wsLine struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	pending []string
}

func (l *wsLine) ReadLine() (string, error) {
	for len(l.pending) == 0 {
		_, msg, err := l.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		text := strings.TrimRight(strings.ReplaceAll(string(msg), "\r\n", "\n"), "\n")
		for _, line := range strings.Split(text, "\n") {
			l.pending = append(l.pending, telnet.Sanitize(line))
		}
	}
	line := l.pending[0]
	l.pending = l.pending[1:]
	return line, nil
}

func (l *wsLine) WriteLine(line string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return l.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (l *wsLine) Close() error {
	l.writeMu.Lock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = l.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	l.writeMu.Unlock()
	return l.conn.Close()
}
