// Package scene runs multi-step dialogues ("scenes") across independent
// updates. The only persisted state is the chat session: the scene name, the
// step index and the scene's wizard data.
package scene

import (
	"github.com/m3rciful/utilbot/core/telegram/flow"
)

// Step handles one exchange of a scene.
type Step func(c *Context) error

// Scene is a named, ordered list of steps. Steps is called once, at registration.
type Scene interface {
	Name() string
	Steps() []Step
}

// Context is what a step receives: the update plus the transitions it may request.
type Context struct {
	*flow.Request
	engine *Engine
}

// Next advances to the following step; it does not run it.
func (c *Context) Next() error { return c.engine.Next(c) }

// Back moves one step back, never below zero.
func (c *Context) Back() { c.engine.Back(c) }

// SelectStep jumps to step i and runs it immediately.
func (c *Context) SelectStep(i int) error { return c.engine.SelectStep(c, i) }

// Leave ends the scene.
func (c *Context) Leave() { c.engine.Leave(c) }

// Enter switches to another scene.
func (c *Context) Enter(name string, init any) error {
	return c.engine.Enter(c.Request, name, init)
}

// Step returns the current step index.
func (c *Context) Step() int { return c.Session.Step }

// State returns the scene's typed wizard state, allocating a zero S on first use
// or when the stored value belongs to another type.
func State[S any](c *Context) *S {
	if s, ok := c.Session.Wizard.Data.(*S); ok && s != nil {
		return s
	}
	s := new(S)
	c.Session.Wizard.Data = s
	return s
}
