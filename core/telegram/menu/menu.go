// Package menu renders navigable menu screens and keeps the per-chat
// breadcrumb stack used for back navigation.
package menu

import (
	"errors"
	"sync"

	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
)

// Menu is a screen with a title and buttons.
type Menu interface {
	ID() string
	Title() string
	Buttons() keyboard.Keyboard
}

// Renderer is implemented by menus that draw themselves.
type Renderer interface {
	Render(req *flow.Request, nav *Navigator) error
}

// Resolver builds a menu for a patterned id. ok is false when id is not one
// the resolver understands or the entity behind it no longer exists.
type Resolver func(req *flow.Request, id string) (m Menu, ok bool, err error)

// Static is a fixed menu.
type Static struct {
	MenuID string
	Text   string
	Rows   keyboard.Keyboard
}

func (s Static) ID() string { return s.MenuID }
func (s Static) Title() string { return s.Text }
func (s Static) Buttons() keyboard.Keyboard { return s.Rows }

var ErrDuplicateMenu = errors.New("menu: already registered")

// Registry maps menu ids to statically registered menus. Resolved menus are
// built per request and never stored.
type Registry struct {
	mu    sync.RWMutex
	menus map[string]Menu
}

func NewRegistry() *Registry {
	return &Registry{menus: make(map[string]Menu)}
}

// Register adds a static menu.
func (r *Registry) Register(m Menu) error {
	if m == nil || m.ID() == "" {
		return errors.New("menu: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.menus[m.ID()]; ok {
		return ErrDuplicateMenu
	}
	r.menus[m.ID()] = m
	return nil
}

// Remove forgets a static menu. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.menus, id)
}

// Lookup returns a registered menu.
func (r *Registry) Lookup(id string) (Menu, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.menus[id]
	return m, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Len returns the number of registered menus.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.menus)
}
