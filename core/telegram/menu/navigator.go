package menu

import (
	"fmt"
	"log/slog"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
)

// NotFoundText is shown for ids nothing can resolve.
const NotFoundText = "Menu not found."

// Navigator shows menus and maintains Session.MenuStack and Session.CurrentMenu.
type Navigator struct {
	registry *Registry
	root     string
	resolve  Resolver
}

func NewNavigator(registry *Registry, root string, resolver Resolver) *Navigator {
	return &Navigator{registry: registry, root: root, resolve: resolver}
}

// Root returns the root menu id.
func (n *Navigator) Root() string { return n.root }

// Registry returns the menu registry.
func (n *Navigator) Registry() *Registry { return n.registry }

// Show resolves id and shows it. Unknown ids render a not-found notice with a
// back button and leave the breadcrumbs alone.
func (n *Navigator) Show(req *flow.Request, id string, isBack bool) error {
	m, ok, err := n.lookup(req, id)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn(req.Context(), logger.CompMenu, "menu.show",
			slog.String("status", "skip"),
			slog.String("menu_id", id),
			slog.String("cause", "not_found"),
		)
		return req.Render(NotFoundText, keyboard.Back(keyboard.MenuBack))
	}
	return n.ShowMenu(req, m, isBack)
}

// TryShow shows id when it resolves to a menu and reports whether it did.
func (n *Navigator) TryShow(req *flow.Request, id string) (bool, error) {
	m, ok, err := n.lookup(req, id)
	if err != nil || !ok {
		return false, err
	}
	return true, n.ShowMenu(req, m, false)
}

// ShowMenu records the navigation to m and renders it.
func (n *Navigator) ShowMenu(req *flow.Request, m Menu, isBack bool) error {
	n.track(req, m.ID(), isBack)
	if r, ok := m.(Renderer); ok {
		return r.Render(req, n)
	}
	return req.Render(m.Title(), n.Decorate(req, m.Buttons()))
}

// Decorate appends the back button when there is somewhere to go back to.
func (n *Navigator) Decorate(req *flow.Request, kb keyboard.Keyboard) keyboard.Keyboard {
	if len(req.Session.MenuStack) == 0 {
		return kb
	}
	return kb.Append(keyboard.Row{keyboard.Btn("⬅️ Back", keyboard.MenuBack)})
}

// GoBack shows the most recent breadcrumb, or the root menu when there is none.
func (n *Navigator) GoBack(req *flow.Request) error {
	id, ok := req.Session.PopMenu()
	if !ok {
		id = n.root
	}
	return n.Show(req, id, true)
}

// CleanupForDeletion drops a static registration of the deleted entity's menu,
// if any, and makes parent the current menu. parent is popped when it is
// already the top breadcrumb so showing it next does not leave a duplicate.
func (n *Navigator) CleanupForDeletion(req *flow.Request, deleted, parent string) {
	n.registry.Remove(deleted)
	sess := req.Session
	sess.CurrentMenu = parent
	if top, ok := sess.TopMenu(); ok && top == parent {
		sess.PopMenu()
	}
	logger.Debug(req.Context(), logger.CompMenu, "menu.cleanup",
		slog.String("menu_id", deleted),
		slog.String("parent", parent),
		slog.Int("stack_depth", len(sess.MenuStack)),
	)
}

func (n *Navigator) track(req *flow.Request, target string, isBack bool) {
	sess := req.Session
	switch {
	case target == n.root:
		sess.MenuStack = nil
	case !isBack && sess.CurrentMenu != "" && sess.CurrentMenu != target:
		sess.PushMenu(sess.CurrentMenu)
	}
	sess.CurrentMenu = target
	logger.Debug(req.Context(), logger.CompMenu, "menu.show",
		slog.String("menu_id", target),
		slog.Bool("back", isBack),
		slog.Int("stack_depth", len(sess.MenuStack)),
	)
}

func (n *Navigator) lookup(req *flow.Request, id string) (Menu, bool, error) {
	if m, ok := n.registry.Lookup(id); ok {
		return m, true, nil
	}
	if n.resolve == nil {
		return nil, false, nil
	}
	m, ok, err := n.resolve(req, id)
	if err != nil {
		return nil, false, fmt.Errorf("menu: resolve %s: %w", id, err)
	}
	if !ok || m == nil {
		return nil, false, nil
	}
	return m, true, nil
}
