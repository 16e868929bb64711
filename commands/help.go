package commands

import (
	"fmt"
	"strings"
)

var Help = Define(Definition{
	Name:        "help",
	Aliases:     []string{"?"},
	Usage:       "#help",
	Description: "show this message",
}, func(ctx *Context) bool {
	ctx.Session.Print(helpMessage("Local commands:", All()))
	return false
})

func helpMessage(title string, commands []*Command) string {
	var builder strings.Builder
	builder.WriteString(title + "\n")
	for _, cmd := range commands {
		usage := cmd.Usage
		if strings.TrimSpace(usage) == "" {
			usage = Prefix + cmd.Name
		}
		builder.WriteString(fmt.Sprintf("  %-24s - %s\n", usage, cmd.Description))
	}
	return strings.TrimRight(builder.String(), "\n")
}
