package telnet

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Charset converts between the server's byte encoding and UTF-8. A nil
// charmap means the wire is already UTF-8.
type Charset struct {
	Name string
	cm   *charmap.Charmap
}

// UTF8 is the default charset.
var UTF8 = Charset{Name: "UTF-8"}

var charsets = map[string]Charset{
	"UTF8":        UTF8,
	"ISO88591":    {Name: "ISO-8859-1", cm: charmap.ISO8859_1},
	"LATIN1":      {Name: "ISO-8859-1", cm: charmap.ISO8859_1},
	"ISO885915":   {Name: "ISO-8859-15", cm: charmap.ISO8859_15},
	"CP437":       {Name: "CP437", cm: charmap.CodePage437},
	"IBM437":      {Name: "CP437", cm: charmap.CodePage437},
	"CP1252":      {Name: "WINDOWS-1252", cm: charmap.Windows1252},
	"WINDOWS1252": {Name: "WINDOWS-1252", cm: charmap.Windows1252},
}

// LookupCharset resolves a charset name or a ';' or ',' separated preference
// list to the first supported entry. An empty name selects UTF-8.
func LookupCharset(name string) (Charset, error) {
	candidates := parseCharsetList(name)
	if len(candidates) == 0 {
		return UTF8, nil
	}
	for _, candidate := range candidates {
		if cs, ok := charsets[normalizeToken(candidate)]; ok {
			return cs, nil
		}
	}
	return UTF8, fmt.Errorf("unsupported charset %q", name)
}

// Decode converts raw bytes received from the server to a UTF-8 string.
func (c Charset) Decode(raw []byte) string {
	if c.cm == nil {
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	return decodeWithCharmap(c.cm, raw)
}

// Encode converts UTF-8 text to the server's encoding. Runes the charmap
// cannot represent become '?'.
func (c Charset) Encode(text string) []byte {
	if c.cm == nil {
		return []byte(text)
	}
	return encodeWithCharmap(c.cm, []byte(text))
}

func encodeWithCharmap(cm *charmap.Charmap, data []byte) []byte {
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if b, ok := cm.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}

func decodeWithCharmap(cm *charmap.Charmap, data []byte) string {
	var builder strings.Builder
	builder.Grow(len(data))
	for _, b := range data {
		builder.WriteRune(cm.DecodeByte(b))
	}
	return builder.String()
}

func normalizeToken(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

func parseCharsetList(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ';' || r == ','
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
