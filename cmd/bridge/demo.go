package main

import (
	"reflect"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/webbridge"
	"github.com/wippyai/webbridge/describe"
)

// demos are the built-in objects -bind can name.
var demos = map[string]func(*zap.Logger) any{
	"counter": func(*zap.Logger) any {
		c := newCounter(0, 1)
		c.principal = true
		return c
	},
	"echo": func(l *zap.Logger) any { return &Echo{logger: l.Named("echo")} },
}

func demoNames() string {
	names := make([]string, 0, len(demos))
	for n := range demos {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Counter is constructible from script: new app.counter(start, step).
type Counter struct {
	Value int
	Step  int `bridge:",readonly"`

	principal bool
	ctx       webbridge.ScriptContext
}

func newCounter(start, step int) *Counter {
	return &Counter{Value: start, Step: step}
}

// Describe adds the newCounter initializer to the reflected members.
func (c *Counter) Describe() (webbridge.Descriptor, error) {
	return describe.For(reflect.TypeOf(c), describe.WithInitializer(newCounter))
}

// SetScriptContext keeps the channel for property pushes.
func (c *Counter) SetScriptContext(ctx webbridge.ScriptContext) { c.ctx = ctx }

// Add advances the counter by n steps. The bound counter pushes its new
// value to the page.
func (c *Counter) Add(n int) int {
	c.Value += n * c.Step
	if c.principal && c.ctx != nil {
		_ = c.ctx.SyncProperty(0, "value")
	}
	return c.Value
}

// Reset sets the value back to zero.
func (c *Counter) Reset() {
	c.Value = 0
}

// Echo logs what the page sends it. It is callable: app.echo("hi").
type Echo struct {
	Prefix string

	logger *zap.Logger
}

// Call returns msg with the prefix applied.
func (e *Echo) Call(msg string) string {
	out := e.Prefix + msg
	e.logger.Info("call", zap.String("message", out))
	return out
}

// Join joins parts with sep after the prefix.
func (e *Echo) Join(sep string, parts ...string) string {
	return e.Prefix + strings.Join(parts, sep)
}

// ReceiveRawMessage logs payloads that carry no opcode.
func (e *Echo) ReceiveRawMessage(payload any) {
	e.logger.Info("raw message", zap.Any("payload", payload))
}
