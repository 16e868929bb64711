package commands

import (
	"strings"

	"SLClient/internal/config"
)

var Connect = Define(Definition{
	Name:        "connect",
	Aliases:     []string{"open"},
	Usage:       "#connect [host] [port]",
	Description: "connect to a server (defaults to the last one)",
}, func(ctx *Context) bool {
	fields := strings.Fields(ctx.Arg)
	host := ""
	port := 0
	if len(fields) > 0 {
		host = fields[0]
	}
	if len(fields) > 1 {
		p, err := config.ParsePort(fields[1])
		if err != nil {
			ctx.Session.Printf("Invalid port: %v", err)
			return false
		}
		port = p
	}
	if len(fields) > 2 {
		ctx.Session.Print("Usage: " + ctx.Command.Usage)
		return false
	}
	if err := ctx.Session.Connect(ctx.Ctx, host, port); err != nil {
		ctx.Session.Printf("Connection failed: %v", err)
	}
	return false
})

var Disconnect = Define(Definition{
	Name:        "disconnect",
	Aliases:     []string{"close"},
	Usage:       "#disconnect",
	Description: "close the connection",
}, func(ctx *Context) bool {
	was, err := ctx.Session.Disconnect()
	switch {
	case err != nil:
		ctx.Session.Printf("Disconnect failed: %v", err)
	case was:
		ctx.Session.Print("Disconnected.")
	default:
		ctx.Session.Print("No active connection.")
	}
	return false
})
