// Package router turns updates into flow requests: the Action Router maps
// button payloads to handlers and the Dispatcher serialises work per chat.
package router

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/menu"
)

// ErrUnknownAction is returned for payloads no route or menu accepts.
var ErrUnknownAction = errors.New("router: unknown action")

// ActionHandler handles a routed payload. id is what followed "prefix-", or
// empty for an exact match.
type ActionHandler func(req *flow.Request, id string) error

type route struct {
	prefix  string
	handler ActionHandler
}

// ActionRouter matches payloads against routes in registration order; the
// first match wins, so a short prefix registered early shadows longer ones
// sharing it.
type ActionRouter struct {
	nav    *menu.Navigator
	routes []route
}

// NewActionRouter builds a router with the universal controls registered:
// menu-back goes back through the breadcrumbs and delete-msg removes the
// message carrying the button.
func NewActionRouter(nav *menu.Navigator) *ActionRouter {
	r := &ActionRouter{nav: nav}
	if nav != nil {
		r.routes = append(r.routes, route{prefix: keyboard.MenuBack, handler: func(req *flow.Request, _ string) error {
			return nav.GoBack(req)
		}})
	}
	r.routes = append(r.routes, route{prefix: keyboard.Close, handler: deleteMessage})
	return r
}

// Register appends a route. Registering a prefix twice fails.
func (r *ActionRouter) Register(prefix string, h ActionHandler) error {
	if prefix == "" || h == nil {
		return fmt.Errorf("router: invalid route %q", prefix)
	}
	for _, rt := range r.routes {
		if rt.prefix == prefix {
			return fmt.Errorf("router: route %q already registered", prefix)
		}
	}
	r.routes = append(r.routes, route{prefix: prefix, handler: h})
	return nil
}

// Prefixes lists route prefixes in matching order.
func (r *ActionRouter) Prefixes() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.prefix
	}
	return out
}

// Handle routes req.Event.Data. Payloads without a route are tried as menu
// ids; anything else is ErrUnknownAction.
func (r *ActionRouter) Handle(req *flow.Request) error {
	data := req.Event.Data
	for _, rt := range r.routes {
		id, ok := callbacks.Match(data, rt.prefix)
		if !ok {
			continue
		}
		logger.Debug(req.Context(), logger.CompRouter, "action.route",
			slog.String("action", rt.prefix),
			slog.String("id", id),
		)
		return rt.handler(req, id)
	}
	if r.nav != nil {
		shown, err := r.nav.TryShow(req, data)
		if shown || err != nil {
			return err
		}
	}
	logger.Warn(req.Context(), logger.CompRouter, "action.route",
		slog.String("status", "skip"),
		slog.String("cause", "unknown_action"),
		slog.String("action", logger.SanitizeLimit(data, 64)),
	)
	return ErrUnknownAction
}

func deleteMessage(req *flow.Request, _ string) error {
	if req.Event.Message == nil {
		return nil
	}
	return req.UI.Delete(req.Context(), *req.Event.Message)
}
