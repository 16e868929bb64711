// Package commands implements the client's local '#' commands. They are
// handled on the client and never sent to the server.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"SLClient/internal/client"
)

// Prefix marks a line as a local command.
const Prefix = "#"

// Definition describes a single command's metadata.
type Definition struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

// Handler executes a command.
// Returning true indicates the session should end.
type Handler func(*Context) bool

// Command couples metadata with the executable handler.
type Command struct {
	Definition
	Handler Handler
}

// Context provides the runtime data available to a command handler.
type Context struct {
	Ctx     context.Context
	Session *client.Session
	Raw     string
	Arg     string
	Input   string
	Command *Command
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Command)
	ordered    []*Command
)

// Define registers a new command using the provided definition and handler.
// It panics when metadata is incomplete or duplicates an existing command.
func Define(def Definition, handler Handler) *Command {
	if handler == nil {
		panic("commands: handler must not be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		panic("commands: command must have a name")
	}

	cmd := &Command{Definition: def, Handler: handler}

	registryMu.Lock()
	defer registryMu.Unlock()

	registerName := func(name string) {
		key := strings.ToLower(name)
		if _, exists := registry[key]; exists {
			panic(fmt.Sprintf("commands: duplicate registration for %q", name))
		}
		registry[key] = cmd
	}

	registerName(def.Name)
	for _, alias := range def.Aliases {
		if strings.TrimSpace(alias) == "" {
			continue
		}
		registerName(alias)
	}

	ordered = append(ordered, cmd)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	return cmd
}

// All returns the registered commands sorted by primary name.
func All() []*Command {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Command, len(ordered))
	copy(out, ordered)
	return out
}

// Find looks up a command by name or alias.
func Find(name string) (*Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), Prefix))]
	return cmd, ok
}

// Dispatch parses a '#' line, looks up the command, and executes it. It
// matches client.LocalFunc.
func Dispatch(ctx context.Context, s *client.Session, line string) bool {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), Prefix))
	parts := strings.Fields(line)
	if len(parts) == 0 {
		s.Print("Type '#help' for local commands.")
		return false
	}

	cmd, ok := Find(parts[0])
	if !ok {
		s.Printf("Unknown command %s%s. Type '#help'.", Prefix, parts[0])
		return false
	}

	arg := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
	return cmd.Handler(&Context{
		Ctx:     ctx,
		Session: s,
		Raw:     line,
		Arg:     arg,
		Input:   parts[0],
		Command: cmd,
	})
}
