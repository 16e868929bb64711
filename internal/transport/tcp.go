package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"SLClient/internal/telnet"
)

// DialTimeout bounds how long Connect waits for the server.
const DialTimeout = 10 * time.Second

var netDialFunc = (&net.Dialer{Timeout: DialTimeout}).DialContext

// TCP speaks telnet over a plain or TLS wrapped TCP connection.
type TCP struct {
	base
	charset telnet.Charset
	tls     *tls.Config
}

// NewTCP returns a TCP transport using the named charset. A non-nil
// tlsConfig wraps every connection in TLS.
func NewTCP(charset string, tlsConfig *tls.Config, logger *zap.Logger) (*TCP, error) {
	cs, err := telnet.LookupCharset(charset)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	name := "tcp"
	if tlsConfig != nil {
		name = "tls"
	}
	return &TCP{
		base:    base{logger: logger.Named("transport").With(zap.String("kind", name))},
		charset: cs,
		tls:     tlsConfig,
	}, nil
}

func tlsConfig(insecure bool) *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, //nolint:gosec // opt-in for self-signed game servers
	}
}

// Connect dials host:port.
func (t *TCP) Connect(ctx context.Context, host string, port int) (<-chan string, error) {
	if err := t.Close(); err != nil {
		t.logger.Debug("close previous connection", zap.Error(err))
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := netDialFunc(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if t.tls != nil {
		cfg := t.tls.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
		tc := tls.Client(conn, cfg)
		if err := tc.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("tls handshake with %s: %w", addr, err)
		}
		conn = tc
	}
	t.logger.Info("connected", zap.String("addr", addr), zap.String("charset", t.charset.Name))
	return t.attach(&telnetLine{Conn: telnet.NewConn(conn, t.charset), closer: conn}), nil
}

type telnetLine struct {
	*telnet.Conn
	closer net.Conn
}

func (l *telnetLine) Close() error {
	return l.closer.Close()
}
