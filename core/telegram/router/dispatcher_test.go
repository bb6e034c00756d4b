package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/flow/flowtest"
	"github.com/m3rciful/utilbot/core/telegram/idle"
	"github.com/m3rciful/utilbot/core/telegram/scene"
	"github.com/m3rciful/utilbot/core/telegram/session"
)

type askState struct {
	Name string
}

// askScene prompts for a name and confirms it.
type askScene struct{}

func (askScene) Name() string { return "ask" }

func (askScene) Steps() []scene.Step {
	return []scene.Step{
		func(c *scene.Context) error {
			if err := c.Render("name?", nil); err != nil {
				return err
			}
			return c.Next()
		},
		func(c *scene.Context) error {
			if c.Event.Text == "" {
				return c.Render("name? (text please)", nil)
			}
			scene.State[askState](c).Name = c.Event.Text
			if err := c.Render("hello "+c.Event.Text, nil); err != nil {
				return err
			}
			c.Leave()
			return nil
		},
	}
}

type brokenScene struct{}

func (brokenScene) Name() string { return "broken" }

func (brokenScene) Steps() []scene.Step {
	return []scene.Step{
		func(c *scene.Context) error { return c.Next() },
		func(c *scene.Context) error { return c.SelectStep(7) },
	}
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return true }

// parkedClock never fires; tests only look at the timer table.
type parkedClock struct {
	mu sync.Mutex
	n  int
}

func (c *parkedClock) AfterFunc(time.Duration, func()) idle.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return stoppedTimer{}
}

type fixture struct {
	store   *session.MemoryStore
	engine  *scene.Engine
	sup     *idle.Supervisor
	disp    *Dispatcher
	surface *flowtest.Surface
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := scene.NewRegistry()
	reg.MustRegister(askScene{}, brokenScene{})
	f := &fixture{
		store:   session.NewMemoryStore(),
		engine:  scene.NewEngine(reg),
		surface: &flowtest.Surface{},
	}
	locker := session.NewLocker()
	f.sup = idle.New(f.store, locker, f.surface, idle.WithClock(&parkedClock{}))
	disp, err := NewDispatcher(DispatcherOptions{Store: f.store, Locker: locker, Engine: f.engine, Idle: f.sup})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	f.disp = disp
	return f
}

func (f *fixture) enter(name string) flow.Handler {
	return func(req *flow.Request) error { return f.engine.Enter(req, name, nil) }
}

func (f *fixture) session(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.Load(context.Background(), f.store, flowtest.Chat)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return sess
}

func TestDispatchRoutesMidSceneToEngine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.disp.Dispatch(ctx, flowtest.Press("ask"), f.surface, f.enter("ask")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if sess := f.session(t); sess.Scene != "ask" || sess.Step != 1 {
		t.Fatalf("after enter: %q#%d", sess.Scene, sess.Step)
	}
	if !f.sup.Pending(flowtest.Chat) {
		t.Fatalf("no idle timer while in a scene")
	}

	idleCalled := false
	if err := f.disp.Dispatch(ctx, flowtest.Text("Ada"), f.surface, func(*flow.Request) error {
		idleCalled = true
		return nil
	}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if idleCalled {
		t.Fatalf("idle handler ran while a scene was active")
	}
	if got := f.surface.Last().Text; got != "hello Ada" {
		t.Fatalf("last render = %q", got)
	}
	if sess := f.session(t); sess.InScene() || sess.Wizard.Data != nil {
		t.Fatalf("scene not left: %+v", sess)
	}
	if f.sup.Pending(flowtest.Chat) {
		t.Fatalf("idle timer survived leaving the scene")
	}
}

func TestDispatchRerendersOnInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.disp.Dispatch(ctx, flowtest.Press("ask"), f.surface, f.enter("ask"))

	if err := f.disp.Dispatch(ctx, flowtest.Press("stray-button"), f.surface, nil); err != nil {
		t.Fatalf("stray press: %v", err)
	}
	if sess := f.session(t); sess.Scene != "ask" || sess.Step != 1 {
		t.Fatalf("step moved on invalid input: %q#%d", sess.Scene, sess.Step)
	}
}

func TestDispatchCancelCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.disp.Dispatch(ctx, flowtest.Press("ask"), f.surface, f.enter("ask"))

	if err := f.disp.Dispatch(ctx, flowtest.Text("/cancel"), f.surface, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sess := f.session(t); sess.InScene() {
		t.Fatalf("scene still active after /cancel")
	}
	last := f.surface.Last()
	if last.Text != cancelledText {
		t.Fatalf("last render = %q", last.Text)
	}
	if last.Target == nil || last.Target.MessageID != 1 {
		t.Fatalf("cancel notice should replace the scene message, target %+v", last.Target)
	}
	if len(f.surface.Deleted) != 1 || f.surface.Deleted[0].MessageID != 2 {
		t.Fatalf("incoming /cancel not deleted: %v", f.surface.Deleted)
	}
}

func TestDispatchFailureLeavesScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.disp.Dispatch(ctx, flowtest.Press("broken"), f.surface, f.enter("broken"))

	err := f.disp.Dispatch(ctx, flowtest.Text("go"), f.surface, nil)
	var oob *scene.StepIndexOutOfRangeError
	if !errors.As(err, &oob) {
		t.Fatalf("err = %v, want StepIndexOutOfRangeError", err)
	}
	if code := ErrorCode(err); code != "STEP_OUT_OF_RANGE" {
		t.Fatalf("code = %q", code)
	}
	if sess := f.session(t); sess.InScene() {
		t.Fatalf("failed scene left active")
	}
	if got := f.surface.Last().Text; got != failureText {
		t.Fatalf("last render = %q", got)
	}
}

func TestDispatchUnknownActionIsQuiet(t *testing.T) {
	f := newFixture(t)
	r := NewActionRouter(nil)
	err := f.disp.Dispatch(context.Background(), flowtest.Press("nope"), f.surface, r.Handle)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v", err)
	}
	if f.surface.Count() != 0 {
		t.Fatalf("unknown action rendered %+v", f.surface.Last())
	}
}

func TestDispatcherNeedsCollaborators(t *testing.T) {
	if _, err := NewDispatcher(DispatcherOptions{}); err == nil {
		t.Fatalf("empty options accepted")
	}
}

type unreadableStore struct {
	*session.MemoryStore
	err error
}

func (s *unreadableStore) Read(context.Context, string) (*session.Session, bool, error) {
	return nil, false, s.err
}

func TestDispatchKeepsTimerWhenLoadFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.disp.Dispatch(ctx, flowtest.Press("ask"), f.surface, f.enter("ask")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if !f.sup.Pending(flowtest.Chat) {
		t.Fatal("no timer after entering a scene")
	}

	broken := &unreadableStore{MemoryStore: f.store, err: errors.New("store down")}
	disp, err := NewDispatcher(DispatcherOptions{Store: broken, Locker: session.NewLocker(), Engine: f.engine, Idle: f.sup})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if err := disp.Dispatch(ctx, flowtest.Text("bob"), f.surface, nil); !errors.Is(err, broken.err) {
		t.Fatalf("err = %v", err)
	}
	if !f.sup.Pending(flowtest.Chat) {
		t.Fatal("failed load dropped the idle timer")
	}
}
