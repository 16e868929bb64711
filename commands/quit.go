package commands

var Quit = Define(Definition{
	Name:        "quit",
	Aliases:     []string{"exit"},
	Usage:       "#quit",
	Description: "close the client",
}, func(ctx *Context) bool {
	if _, err := ctx.Session.Disconnect(); err != nil {
		ctx.Session.Printf("Disconnect failed: %v", err)
	}
	ctx.Session.Print("Goodbye.")
	return true
})
