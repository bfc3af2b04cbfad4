package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/raikhel/botflow/internal/expr"
)

// Context is the transient per-walk variable scope. It is created fresh
// when a trigger fires, mutated in place by set_var/storage/math/string_op
// and friends, and discarded when the walk ends. It is never persisted and
// never shared across events.
//
// Values are string scalars plus two side channels: the trigger's capture
// group array and named string lists written by string_op split.
type Context struct {
	vars     map[string]string
	lists    map[string][]string
	captures []string
}

// NewContext returns an empty execution context.
func NewContext() *Context {
	return &Context{
		vars:  make(map[string]string),
		lists: make(map[string][]string),
	}
}

// Get returns the named variable, or "" when unset.
func (c *Context) Get(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Set assigns the named variable.
func (c *Context) Set(name, value string) {
	c.vars[name] = value
}

// SetList stores a named string list (the split side channel).
func (c *Context) SetList(name string, items []string) {
	c.lists[name] = items
}

// List returns a named string list.
func (c *Context) List(name string) ([]string, bool) {
	l, ok := c.lists[name]
	return l, ok
}

// Captures returns the trigger's capture groups for this walk.
func (c *Context) Captures() []string {
	return c.captures
}

// SetCaptures seeds the capture group array. Called once, by the engine,
// when the trigger matches.
func (c *Context) SetCaptures(captures []string) {
	c.captures = captures
}

// ExprVars exposes the scope as an expression variable table. Values that
// parse as decimal numbers become numbers so comparisons behave
// arithmetically; everything else stays a string.
func (c *Context) ExprVars() map[string]expr.Value {
	vars := make(map[string]expr.Value, len(c.vars))
	for name, v := range c.vars {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && v != "" {
			vars[name] = expr.Number(f)
		} else {
			vars[name] = expr.String(v)
		}
	}
	return vars
}

// Snapshot returns the scalar variables as "name=value" lines in sorted
// order. Tests use it to compare final context states across runs.
func (c *Context) Snapshot() []string {
	out := make([]string, 0, len(c.vars))
	for name, v := range c.vars {
		out = append(out, name+"="+v)
	}
	sort.Strings(out)
	return out
}
