package scene

import (
	"fmt"
	"log/slog"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/session"
)

// Engine drives scenes against the session carried by each request.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry returns the registry the engine reads from.
func (e *Engine) Registry() *Registry { return e.registry }

// Active reports whether sess is inside a scene the engine knows.
func (e *Engine) Active(sess *session.Session) bool {
	return sess.InScene() && e.registry.Has(sess.Scene)
}

// Enter resets the session into step 0 of name and runs that step.
// init, when non-nil, becomes the scene's wizard data.
func (e *Engine) Enter(req *flow.Request, name string, init any) error {
	ent, ok := e.registry.lookup(name)
	if !ok {
		return &SceneNotFoundError{Name: name}
	}
	sess := req.Session
	prev := sess.Scene
	sess.Scene = name
	sess.Step = 0
	sess.Wizard = session.Wizard{Data: init}

	logger.Debug(req.Context(), logger.CompScene, "scene.enter",
		slog.String("scene", name),
		slog.String("prev", prev),
	)
	return e.run(&Context{Request: req, engine: e}, ent, 0)
}

// Handle runs the current step. It does nothing when the chat is idle or the
// scene is no longer registered.
func (e *Engine) Handle(req *flow.Request) error {
	sess := req.Session
	if !sess.InScene() {
		return nil
	}
	ent, ok := e.registry.lookup(sess.Scene)
	if !ok {
		logger.Warn(req.Context(), logger.CompScene, "scene.handle",
			slog.String("status", "skip"),
			slog.String("scene", sess.Scene),
			slog.String("cause", "unregistered"),
		)
		return nil
	}
	if sess.Step < 0 || sess.Step >= len(ent.steps) {
		return &StepIndexOutOfRangeError{Scene: sess.Scene, Index: sess.Step, Len: len(ent.steps)}
	}
	return e.run(&Context{Request: req, engine: e}, ent, sess.Step)
}

// Next moves to the following step. Moving past the last step fails and
// leaves the session untouched.
func (e *Engine) Next(c *Context) error {
	ent, err := e.active(c)
	if err != nil {
		return err
	}
	sess := c.Session
	if sess.Step+1 >= len(ent.steps) {
		return &StepIndexOutOfRangeError{Scene: sess.Scene, Index: sess.Step + 1, Len: len(ent.steps)}
	}
	sess.Step++
	return nil
}

// Back moves to the previous step, floored at 0.
func (e *Engine) Back(c *Context) {
	if c.Session.Step > 0 {
		c.Session.Step--
	}
}

// SelectStep jumps to step i and runs it. An index outside the scene fails
// and leaves the session untouched.
func (e *Engine) SelectStep(c *Context, i int) error {
	ent, err := e.active(c)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(ent.steps) {
		return &StepIndexOutOfRangeError{Scene: c.Session.Scene, Index: i, Len: len(ent.steps)}
	}
	c.Session.Step = i
	return e.run(c, ent, i)
}

// Leave ends the scene. UI cleanup is up to the caller.
func (e *Engine) Leave(c *Context) {
	sess := c.Session
	if sess.InScene() {
		logger.Debug(c.Context(), logger.CompScene, "scene.leave",
			slog.String("scene", sess.Scene),
			slog.Int("step", sess.Step),
		)
	}
	sess.ResetScene()
}

func (e *Engine) active(c *Context) (entry, error) {
	if !c.Session.InScene() {
		return entry{}, ErrNoActiveScene
	}
	ent, ok := e.registry.lookup(c.Session.Scene)
	if !ok {
		return entry{}, &SceneNotFoundError{Name: c.Session.Scene}
	}
	return ent, nil
}

func (e *Engine) run(c *Context, ent entry, i int) error {
	name := c.Session.Scene
	if err := ent.steps[i](c); err != nil {
		return fmt.Errorf("scene %s step %d: %w", name, i, err)
	}
	return nil
}
