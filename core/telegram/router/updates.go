package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/utilbot/core/logger"
	tg "github.com/m3rciful/utilbot/core/telegram"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	tghelpers "github.com/m3rciful/utilbot/core/telegram/helpers"
	"github.com/m3rciful/utilbot/core/telegram/middleware"
	"github.com/m3rciful/utilbot/core/telegram/session"
	"github.com/m3rciful/utilbot/core/telegram/ui"
)

// UnknownActionText answers callbacks nothing could route.
const UnknownActionText = "Unknown action"

// UpdateOptions wires the Telegram handlers.
type UpdateOptions struct {
	Registry   *tg.Registry
	Dispatcher *Dispatcher
	Actions    *ActionRouter
	Surface    ui.Surface

	AdminID       int64
	OnAdminReject flow.Handler
}

// Routes returns the OnCallback and OnText handlers. Both feed the Dispatcher;
// commands are resolved inside the text handler because telebot hands
// unregistered commands to OnText.
func Routes(opts UpdateOptions) []tg.Route {
	callback := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		start := time.Now()
		ev := EventFrom(c)
		surface := middleware.CountRenders(c, opts.Surface)
		err := handleWithSummary(c, "callback", start, func(ctx context.Context) error {
			return opts.Dispatcher.Dispatch(ctx, ev, surface, opts.Actions.Handle)
		}, slog.String("cb_key", logger.SanitizeLimit(ev.Data, 64)))

		if errors.Is(err, ErrUnknownAction) {
			_ = tghelpers.Notify(c, UnknownActionText)
			return nil
		}
		_ = tghelpers.Notify(c, "")
		return nil
	}

	text := func(c tele.Context) error {
		start := time.Now()
		ev := EventFrom(c)
		surface := middleware.CountRenders(c, opts.Surface)
		name := "text"
		if strings.HasPrefix(ev.Text, "/") {
			if key, _, ok := opts.Registry.LookupCommand(ev.Text); ok {
				name = normalizeHandlerName(key)
			}
		}
		_ = handleWithSummary(c, name, start, func(ctx context.Context) error {
			return opts.Dispatcher.Dispatch(ctx, ev, surface, opts.idleText)
		})
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnCallback, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(callback))},
		{Endpoint: tele.OnText, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(text))},
	}
}

// idleText runs a command, or the registry's text fallback.
func (opts UpdateOptions) idleText(req *flow.Request) error {
	if strings.HasPrefix(req.Event.Text, "/") {
		if _, cmd, ok := opts.Registry.LookupCommand(req.Event.Text); ok {
			h := cmd.Handler
			if cmd.AdminOnly {
				h = middleware.AdminOnly(middleware.AdminOptions{AdminID: opts.AdminID, OnReject: opts.OnAdminReject})(h)
			}
			return h(req)
		}
	}
	if fb := opts.Registry.TextFallback(); fb != nil {
		return fb(req)
	}
	return nil
}

// EventFrom converts a telebot context into a flow event.
func EventFrom(c tele.Context) flow.Event {
	ev := flow.Event{UpdateID: c.Update().ID}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		ev.UserID = user.ID
		ev.Username = user.Username
	}
	if cb := c.Callback(); cb != nil {
		ev.Data = callbacks.Data(cb)
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.Message = &session.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}
		}
		return ev
	}
	if m := c.Message(); m != nil {
		ev.Text = strings.TrimSpace(m.Text)
		ev.Incoming = &session.MessageRef{ChatID: ev.ChatID, MessageID: m.ID}
	}
	return ev
}
