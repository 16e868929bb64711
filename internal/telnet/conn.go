// Package telnet is the client side of a telnet line stream. Commands from
// the server are stripped without replying, lines are framed on CR, LF or
// CRLF and text is converted through the configured charset.
package telnet

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"
	"unicode"
)

const (
	telnetIAC  byte = 255
	telnetDONT byte = 254
	telnetDO   byte = 253
	telnetWONT byte = 252
	telnetWILL byte = 251
	telnetSB   byte = 250
	telnetGA   byte = 249
	telnetSE   byte = 240
)

const escape byte = 0x1b

// Conn reads and writes lines over a telnet stream.
type Conn struct {
	rw      io.ReadWriter
	reader  *bufio.Reader
	mu      sync.Mutex
	charset Charset
	// afterCR is set when the last line ended in CR, so that an LF
	// arriving next completes that CRLF instead of ending an empty line.
	afterCR bool
}

// NewConn wraps rw. Reads and writes go through cs.
func NewConn(rw io.ReadWriter, cs Charset) *Conn {
	return &Conn{
		rw:      rw,
		reader:  bufio.NewReader(rw),
		charset: cs,
	}
}

// Charset returns the charset lines are converted with.
func (c *Conn) Charset() Charset {
	return c.charset
}

// WriteLine sends text followed by CRLF. Embedded newlines become CRLF and
// IAC bytes are doubled.
func (c *Conn) WriteLine(text string) error {
	payload := translateForTelnet(c.charset.Encode(text))
	payload = append(payload, '\r', '\n')
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.rw.Write(payload)
	return err
}

func translateForTelnet(msg []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(msg))
	var prev byte
	for _, b := range msg {
		switch b {
		case '\n':
			if prev != '\r' {
				buf.WriteByte('\r')
			}
			buf.WriteByte('\n')
		case telnetIAC:
			buf.WriteByte(telnetIAC)
			buf.WriteByte(telnetIAC)
		default:
			buf.WriteByte(b)
		}
		prev = b
	}
	return buf.Bytes()
}

// ReadLine returns the next line from the server with telnet commands,
// terminal escape sequences and control characters removed. A final
// unterminated line is returned together with io.EOF.
func (c *Conn) ReadLine() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			if buf.Len() > 0 && err == io.EOF {
				return c.finish(buf.Bytes()), io.EOF
			}
			return "", err
		}
		pendingLF := c.afterCR
		c.afterCR = false
		switch b {
		case '\r':
			c.afterCR = true
			return c.finish(buf.Bytes()), nil
		case '\n':
			if pendingLF {
				continue
			}
			return c.finish(buf.Bytes()), nil
		case 0x00:
		case telnetIAC:
			if err := c.handleIAC(&buf); err != nil {
				return "", err
			}
		default:
			buf.WriteByte(b)
		}
	}
}

func (c *Conn) finish(raw []byte) string {
	return sanitizeTelnetString([]byte(c.charset.Decode(raw)))
}

func (c *Conn) handleIAC(buf *bytes.Buffer) error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case telnetIAC:
		buf.WriteByte(telnetIAC)
	case telnetDO, telnetDONT, telnetWILL, telnetWONT:
		if _, err := c.reader.ReadByte(); err != nil {
			return err
		}
	case telnetSB:
		return c.skipSubnegotiation()
	default:
		// GA, NOP and the other two byte commands carry no payload
	}
	return nil
}

func (c *Conn) skipSubnegotiation() error {
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return err
		}
		if b != telnetIAC {
			continue
		}
		esc, err := c.reader.ReadByte()
		if err != nil {
			return err
		}
		if esc == telnetSE {
			return nil
		}
	}
}

// sanitizeTelnetString drops ANSI escape sequences and control characters.
// Tabs become spaces.
func sanitizeTelnetString(raw []byte) string {
	text := string(raw)
	var builder strings.Builder
	builder.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == rune(escape):
			i = skipEscape(runes, i)
		case r == '\t':
			builder.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
		case unicode.Is(unicode.Cf, r), unicode.IsControl(r):
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// skipEscape returns the index of the last rune of the escape sequence
// starting at i.
func skipEscape(runes []rune, i int) int {
	if i+1 >= len(runes) {
		return i
	}
	switch runes[i+1] {
	case '[':
		j := i + 2
		for j < len(runes) && (runes[j] < 0x40 || runes[j] > 0x7e) {
			j++
		}
		if j >= len(runes) {
			return len(runes) - 1
		}
		return j
	default:
		return i + 1
	}
}

// Sanitize applies the same cleanup ReadLine does to text that arrived by
// other means.
func Sanitize(text string) string {
	return sanitizeTelnetString([]byte(text))
}
