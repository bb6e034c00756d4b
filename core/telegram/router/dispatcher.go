package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/commands"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/idle"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

const (
	// DefaultCancelCommand leaves the active scene from any step.
	DefaultCancelCommand = commands.Cancel

	cancelledText = "Cancelled."
	failureText   = "Something went wrong. Please try again."
)

// DispatcherOptions wires the Dispatcher. Store, Locker and Engine are required.
type DispatcherOptions struct {
	Store  session.Store
	Locker *session.Locker
	Engine *scene.Engine
	// Idle is optional; without it scenes never time out.
	Idle *idle.Supervisor

	MaxConcurrent int64
	CancelCommand string
	// OnCancel renders after the cancel command left a scene.
	OnCancel flow.Handler
	// OnFailure renders after a handler failed.
	OnFailure flow.Handler
}

// Dispatcher runs one update at a time per chat: it loads the session, routes
// the update to the active scene or to the idle handler, saves the session and
// re-arms the idle timer.
type Dispatcher struct {
	opts DispatcherOptions
	sem  *semaphore.Weighted
}

func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Store == nil || opts.Locker == nil || opts.Engine == nil {
		return nil, errors.New("router: dispatcher needs a store, a locker and an engine")
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 16
	}
	if opts.CancelCommand == "" {
		opts.CancelCommand = DefaultCancelCommand
	}
	if opts.OnCancel == nil {
		opts.OnCancel = func(req *flow.Request) error {
			return req.Render(cancelledText, keyboard.Back(keyboard.MenuBack))
		}
	}
	if opts.OnFailure == nil {
		opts.OnFailure = func(req *flow.Request) error {
			return req.Render(failureText, keyboard.Back(keyboard.MenuBack))
		}
	}
	return &Dispatcher{opts: opts, sem: semaphore.NewWeighted(opts.MaxConcurrent)}, nil
}

// Dispatch processes ev for its chat. handle runs when the chat is not inside
// a registered scene. A failing handler leaves the chat outside any scene and
// shows a generic failure; the error is still returned for logging.
func (d *Dispatcher) Dispatch(ctx context.Context, ev flow.Event, surface ui.Surface, handle flow.Handler) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("router: acquire slot: %w", err)
	}
	defer d.sem.Release(1)

	unlock := d.opts.Locker.Lock(ev.ChatID)
	defer unlock()

	// A failed load keeps the chat's timer so the scene still expires.
	sess, err := session.Load(ctx, d.opts.Store, ev.ChatID)
	if err != nil {
		return err
	}
	if d.opts.Idle != nil {
		d.opts.Idle.Cancel(ev.ChatID)
	}
	if sess.InScene() {
		ctx = logger.WithScene(ctx, sess.Scene, sess.Step)
	}
	req := &flow.Request{Ctx: ctx, Event: ev, Session: sess, UI: surface}

	herr := d.route(req, handle)
	if herr != nil {
		d.fail(req, herr)
	}

	if err := session.Save(ctx, d.opts.Store, sess); err != nil {
		herr = errors.Join(herr, err)
	}
	if d.opts.Idle != nil {
		d.opts.Idle.After(sess, ev)
	}
	return herr
}

func (d *Dispatcher) route(req *flow.Request, handle flow.Handler) error {
	sess := req.Session
	if d.opts.Engine.Active(sess) {
		if d.isCancel(req.Event) {
			return d.cancel(req)
		}
		return d.opts.Engine.Handle(req)
	}
	if handle == nil {
		return nil
	}
	return handle(req)
}

func (d *Dispatcher) isCancel(ev flow.Event) bool {
	if ev.IsCallback() {
		return false
	}
	return commands.Name(ev.Text) == d.opts.CancelCommand
}

// cancel shows the notice on the scene's interactive message, then drops the scene.
func (d *Dispatcher) cancel(req *flow.Request) error {
	sess := req.Session
	logger.Info(req.Context(), logger.CompRouter, "scene.cancel",
		slog.String("scene", sess.Scene),
		slog.Int("step", sess.Step),
	)
	req.DeleteIncoming()
	err := d.opts.OnCancel(req)
	sess.ResetScene()
	return err
}

func (d *Dispatcher) fail(req *flow.Request, err error) {
	if errors.Is(err, ErrUnknownAction) {
		return
	}
	logger.Error(req.Context(), logger.CompRouter, "dispatch.fail",
		slog.String("err_code", ErrorCode(err)),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	if rerr := d.opts.OnFailure(req); rerr != nil {
		logger.Warn(req.Context(), logger.CompRouter, "dispatch.fail_render", slog.Any("err", rerr))
	}
	req.Session.ResetScene()
}
