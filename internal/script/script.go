// Package script runs user triggers written in Go and interpreted with
// yaegi. A trigger file may define
//
//	func OnLine(ctx map[string]any)  // every line received from the server
//	func OnInput(ctx map[string]any) // every command typed by the user
//
// ctx carries "send" and "echo" (both func(string)) plus the text under
// "line" or "input". OnInput may replace ctx["input"] to rewrite the command
// or set ctx["handled"] = true to keep it from being sent.
package script

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// Actions are the host capabilities handed to a trigger.
type Actions struct {
	Send func(string)
	Echo func(string)
}

type compiledScript struct {
	onLine  func(map[string]any)
	onInput func(map[string]any)
}

// Engine holds one compiled trigger file. The zero value and a nil *Engine
// run no triggers.
type Engine struct {
	mu     sync.Mutex
	name   string
	script *compiledScript
	logger *zap.Logger
}

// Load compiles the trigger file at path. An empty path yields an engine
// without triggers.
func Load(path string, logger *zap.Logger) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return &Engine{logger: orNop(logger)}, nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triggers: %w", err)
	}
	return compileNamed(path, string(source), logger)
}

// Compile builds an engine from source.
func Compile(source string, logger *zap.Logger) (*Engine, error) {
	return compileNamed("inline", source, logger)
}

func compileNamed(name, source string, logger *zap.Logger) (*Engine, error) {
	script, err := compile(source)
	if err != nil {
		return nil, fmt.Errorf("triggers %s: %w", name, err)
	}
	return &Engine{name: name, script: script, logger: orNop(logger).Named("script")}, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Active reports whether any hook is defined.
func (e *Engine) Active() bool {
	return e != nil && e.script != nil && (e.script.onLine != nil || e.script.onInput != nil)
}

// OnLine runs the OnLine hook for a received line.
func (e *Engine) OnLine(line string, act Actions) {
	if e == nil || e.script == nil || e.script.onLine == nil {
		return
	}
	payload := payloadFor(act)
	payload["line"] = line
	e.invoke("OnLine", func() {
		e.script.onLine(payload)
	})
}

// OnInput runs the OnInput hook for a typed command. It returns the command
// to send, which the hook may have rewritten, and whether the hook handled
// the command itself.
func (e *Engine) OnInput(input string, act Actions) (string, bool) {
	if e == nil || e.script == nil || e.script.onInput == nil {
		return input, false
	}
	payload := payloadFor(act)
	payload["input"] = input
	e.invoke("OnInput", func() {
		e.script.onInput(payload)
	})
	handled, _ := payload["handled"].(bool)
	rewritten, ok := payload["input"].(string)
	if !ok {
		rewritten = input
	}
	return rewritten, handled
}

func (e *Engine) invoke(hook string, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("trigger panic", zap.String("script", e.name), zap.String("hook", hook), zap.Any("panic", r))
		}
	}()
	fn()
}

func payloadFor(act Actions) map[string]any {
	send := act.Send
	if send == nil {
		send = func(string) {}
	}
	echo := act.Echo
	if echo == nil {
		echo = func(string) {}
	}
	return map[string]any{
		"send": func(text string) {
			if cleaned := strings.TrimSpace(text); cleaned != "" {
				send(cleaned)
			}
		},
		"echo": func(text string) {
			echo(text)
		},
	}
}

func compile(source string) (*compiledScript, error) {
	interpreter := interp.New(interp.Options{})
	if err := interpreter.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := interpreter.Eval(source); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	compiled := &compiledScript{}
	hooks := []struct {
		name string
		dst  *func(map[string]any)
	}{
		{"OnLine", &compiled.onLine},
		{"OnInput", &compiled.onInput},
	}
	for _, hook := range hooks {
		value, err := interpreter.Eval(hook.name)
		if err != nil {
			if isUndefinedSymbol(err) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", hook.name, err)
		}
		fn, ok := value.Interface().(func(map[string]any))
		if !ok {
			return nil, fmt.Errorf("%s has unexpected type %T", hook.name, value.Interface())
		}
		*hook.dst = fn
	}
	return compiled, nil
}

func isUndefinedSymbol(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "undefined") || strings.Contains(msg, "not declared")
}
