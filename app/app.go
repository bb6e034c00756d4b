// Package app wires the utility billing bot: storage, menus, scenes,
// commands and the Telegram runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/menus"
	"github.com/m3rciful/utilbot/app/scenes"
	"github.com/m3rciful/utilbot/app/storage"
	"github.com/m3rciful/utilbot/core/logger"
	tg "github.com/m3rciful/utilbot/core/telegram"
	"github.com/m3rciful/utilbot/core/telegram/helpers"
	"github.com/m3rciful/utilbot/core/telegram/idle"
	"github.com/m3rciful/utilbot/core/telegram/menu"
	"github.com/m3rciful/utilbot/core/telegram/router"
	"github.com/m3rciful/utilbot/core/telegram/scene"
	"github.com/m3rciful/utilbot/core/telegram/sender"
	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

const rateLimitedText = "Too many requests, slow down a little."

// App owns everything the bot needs between updates.
type App struct {
	cfg    *Config
	store  storage.Store
	closer io.Closer
	now    func() time.Time

	sessions *session.MemoryStore
	locker   *session.Locker

	scenes   *scene.Registry
	engine   *scene.Engine
	menus    *menu.Registry
	nav      *menu.Navigator
	actions  *router.ActionRouter
	commands *tg.Registry
}

// Option configures an App.
type Option func(*App)

// WithClock replaces time.Now for menus and scenes.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithCloser registers c to be closed when the bot stops.
func WithCloser(c io.Closer) Option {
	return func(a *App) { a.closer = c }
}

// New builds the app around store and registers menus, scenes and commands.
func New(cfg *Config, store storage.Store, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if store == nil {
		return nil, errors.New("app: nil store")
	}
	a := &App{
		cfg:      cfg,
		store:    store,
		now:      time.Now,
		sessions: session.NewMemoryStore(),
		locker:   session.NewLocker(),
		scenes:   scene.NewRegistry(),
		menus:    menu.NewRegistry(),
		commands: tg.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.engine = scene.NewEngine(a.scenes)
	resolver := menus.NewResolver(store, a.now)
	a.nav = menu.NewNavigator(a.menus, actions.RootMenu, resolver.Resolve)
	a.actions = router.NewActionRouter(a.nav)

	if err := a.menus.Register(menus.NewUtilities(store)); err != nil {
		return nil, fmt.Errorf("app: register menus: %w", err)
	}
	deps := scenes.Deps{Store: store, Nav: a.nav, Now: a.now}
	if err := scenes.Register(a.scenes, a.engine, a.actions, deps); err != nil {
		return nil, fmt.Errorf("app: register scenes: %w", err)
	}
	if err := a.registerCommands(); err != nil {
		return nil, fmt.Errorf("app: register commands: %w", err)
	}
	return a, nil
}

// Sessions returns the chat session store.
func (a *App) Sessions() *session.MemoryStore { return a.sessions }

// Dispatcher builds the per-chat update dispatcher. sup may be nil.
func (a *App) Dispatcher(sup *idle.Supervisor) (*router.Dispatcher, error) {
	return router.NewDispatcher(router.DispatcherOptions{
		Store:         a.sessions,
		Locker:        a.locker,
		Engine:        a.engine,
		Idle:          sup,
		MaxConcurrent: int64(a.cfg.Dispatch.MaxConcurrent),
	})
}

// Routes returns the update handlers feeding d.
func (a *App) Routes(d *router.Dispatcher, surface ui.Surface) []tg.Route {
	return router.Routes(router.UpdateOptions{
		Registry:      a.commands,
		Dispatcher:    d,
		Actions:       a.actions,
		Surface:       surface,
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: adminReject,
	})
}

// TelegramRunOptions wires the runtime for bot.
func (a *App) TelegramRunOptions(bot *tele.Bot) (tg.RunOptions, error) {
	outbox := sender.NewDispatcher(sender.Options{})
	surface := ui.NewTeleSurface(bot, outbox)
	sup := idle.New(a.sessions, a.locker, surface, idle.WithTimeout(a.cfg.Session.IdleTimeout()))

	d, err := a.Dispatcher(sup)
	if err != nil {
		return tg.RunOptions{}, err
	}
	sw, err := newSweeper(a.sessions, a.cfg.Session.SweepSchedule, a.cfg.Session.SweepAfter())
	if err != nil {
		return tg.RunOptions{}, err
	}

	onLimited := func(c tele.Context) error {
		return helpers.Notify(c, rateLimitedText)
	}
	return tg.RunOptions{
		Registry:    a.commands,
		Dispatcher:  outbox,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, onLimited),
		Routes:      a.Routes(d, surface),
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			sw.Start()
			logger.Info(ctx, logger.CompApp, "app.start",
				slog.Int("scenes", len(a.scenes.Names())),
				slog.Int("actions", len(a.actions.Prefixes())),
				slog.Duration("idle_timeout", sup.Timeout()),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			sw.Stop()
			sup.Stop()
			logger.Info(ctx, logger.CompApp, "app.stop", slog.Int("sessions", a.sessions.Len()))
			return a.Close()
		},
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
