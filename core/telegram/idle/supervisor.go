// Package idle abandons scenes that receive no updates for a fixed window and
// removes their stale interactive message.
package idle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

// DefaultTimeout is the inactivity window when none is configured.
const DefaultTimeout = 60 * time.Second

type pending struct {
	timer Timer
	msg   *session.MessageRef
}

// Supervisor keeps at most one live timer per chat.
type Supervisor struct {
	store   session.Store
	locker  *session.Locker
	deleter ui.Deleter
	clock   Clock
	timeout time.Duration

	mu     sync.Mutex
	timers map[int64]*pending

	// fired is called after each timeout handler run; used by tests.
	fired func(chatID int64)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

func WithTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Supervisor) {
		if c != nil {
			s.clock = c
		}
	}
}

// New builds a supervisor. locker must be the one the dispatcher uses so the
// timeout handler never interleaves with an update for the same chat.
func New(store session.Store, locker *session.Locker, deleter ui.Deleter, opts ...Option) *Supervisor {
	s := &Supervisor{
		store:   store,
		locker:  locker,
		deleter: deleter,
		clock:   realClock{},
		timeout: DefaultTimeout,
		timers:  make(map[int64]*pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeout returns the configured window.
func (s *Supervisor) Timeout() time.Duration { return s.timeout }

// Cancel stops and forgets the live timer of chatID, if any.
func (s *Supervisor) Cancel(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.timers[chatID]; ok {
		p.timer.Stop()
		delete(s.timers, chatID)
	}
}

// After runs once an update was dispatched. While sess is inside a scene it
// schedules a timeout, remembering the button's message first, else the
// scene's interactive message.
func (s *Supervisor) After(sess *session.Session, ev flow.Event) {
	if !sess.InScene() {
		s.Cancel(sess.ChatID)
		return
	}
	msg := ev.Message
	if msg == nil {
		msg = sess.Wizard.Message
	}
	s.Schedule(sess.ChatID, msg)
}

// Schedule replaces any live timer of chatID with a fresh one.
func (s *Supervisor) Schedule(chatID int64, msg *session.MessageRef) {
	p := &pending{msg: msg}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[chatID]; ok {
		old.timer.Stop()
	}
	p.timer = s.clock.AfterFunc(s.timeout, func() { s.expire(chatID, p) })
	s.timers[chatID] = p
}

// Pending reports whether chatID has a live timer.
func (s *Supervisor) Pending(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[chatID]
	return ok
}

// Stop cancels every live timer.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Supervisor) current(chatID int64, p *pending) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[chatID] == p
}

func (s *Supervisor) expire(chatID int64, p *pending) {
	unlock := s.locker.Lock(chatID)
	defer unlock()
	defer func() {
		s.mu.Lock()
		if s.timers[chatID] == p {
			delete(s.timers, chatID)
		}
		s.mu.Unlock()
		if s.fired != nil {
			s.fired(chatID)
		}
	}()

	// an update may have replaced this timer while we waited for the lock
	if !s.current(chatID, p) {
		return
	}

	ctx := logger.WithUpdateMeta(context.Background(), 0, 0, chatID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, logger.CompIdle, "idle.panic", slog.Any("panic", r))
		}
	}()

	sess, err := session.Load(ctx, s.store, chatID)
	if err != nil {
		logger.Error(ctx, logger.CompIdle, "idle.read", slog.Any("err", err))
		return
	}
	if !sess.InScene() {
		return
	}
	scene, step := sess.Scene, sess.Step

	if p.msg != nil && s.deleter != nil {
		if err := s.deleter.Delete(ctx, *p.msg); err != nil {
			logger.Warn(ctx, logger.CompIdle, "idle.delete",
				slog.String("status", "fail"),
				slog.Int("message_id", p.msg.MessageID),
				slog.Any("err", err),
			)
		}
	}

	sess.ResetScene()
	if err := session.Save(ctx, s.store, sess); err != nil {
		logger.Error(ctx, logger.CompIdle, "idle.write", slog.Any("err", err))
		return
	}
	logger.Info(ctx, logger.CompIdle, "idle.timeout",
		slog.String("status", "timeout"),
		slog.String("scene", scene),
		slog.Int("step", step),
		slog.Duration("after", s.timeout),
	)
}
