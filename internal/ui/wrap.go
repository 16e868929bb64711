package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// minWrapWidth keeps tiny terminals from splitting every word.
const minWrapWidth = 20

// Wrap breaks output lines so that each fits in width columns. Lines that
// already fit are kept verbatim so server formatting survives; only long
// lines are reflowed at word boundaries.
func Wrap(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	if width < minWrapWidth {
		width = minWrapWidth
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if lipgloss.Width(line) <= width {
			out = append(out, line)
			continue
		}
		out = append(out, strings.Split(wrapLine(line, width), "\n")...)
	}
	return out
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return ""
	}
	var builder strings.Builder
	current := 0
	for _, word := range words {
		runes := []rune(word)
		if len(runes) > width {
			if current != 0 {
				builder.WriteByte('\n')
			}
			for len(runes) > width {
				builder.WriteString(string(runes[:width]))
				builder.WriteByte('\n')
				runes = runes[width:]
			}
			builder.WriteString(string(runes))
			current = len(runes)
			continue
		}
		switch {
		case current == 0:
			current = len(runes)
		case current+1+len(runes) > width:
			builder.WriteByte('\n')
			current = len(runes)
		default:
			builder.WriteByte(' ')
			current += 1 + len(runes)
		}
		builder.WriteString(string(runes))
	}
	return builder.String()
}
