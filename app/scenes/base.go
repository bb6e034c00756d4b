// Package scenes implements the billing dialogues: creating and deleting
// addresses, accounts, readings and tariffs, and calculating bills.
package scenes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/storage"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/menu"
	"github.com/m3rciful/utilbot/core/telegram/router"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

// Deps are shared by every scene.
type Deps struct {
	Store storage.Store
	Nav   *menu.Navigator
	// Now defaults to time.Now.
	Now func() time.Time
}

type base struct {
	store storage.Store
	nav   *menu.Navigator
	now   func() time.Time
}

func newBase(d Deps) base {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return base{store: d.Store, nav: d.Nav, now: now}
}

// All returns every scene.
func All(d Deps) []scene.Scene {
	b := newBase(d)
	return []scene.Scene{
		&createAddress{b},
		&createAccount{b},
		&createReading{b},
		&createTariff{b},
		&calculateBill{b},
		deleteAddress(b),
		deleteAccount(b),
		deleteReading(b),
		deleteTariff(b),
	}
}

// Register adds every scene to reg and an entry route for each to r.
func Register(reg *scene.Registry, eng *scene.Engine, r *router.ActionRouter, d Deps) error {
	for _, s := range All(d) {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := r.Register(e.scene, enter(eng, d.Store, e.scene, e.init, e.owned)); err != nil {
			return err
		}
	}
	return nil
}

// entries seed each scene's wizard state from the id in its payload.
// A nil init means the scene takes no id. owned, when set, rejects ids the
// user cannot reach before the scene starts; delete scenes check ownership
// on their first step instead so the user sees why nothing happened.
var entries = []struct {
	scene string
	init  func(id string) any
	owned func(ctx context.Context, s storage.Store, user int64, id string) error
}{
	{actions.CreateAddress, nil, nil},
	{actions.CreateAccount, func(id string) any { return &accountState{AddressID: id} }, linkedAddress},
	{actions.CreateReading, func(id string) any { return &readingState{AccountID: id} }, ownedAccount},
	{actions.CreateTariff, func(id string) any { return &tariffState{AccountID: id} }, ownedAccount},
	{actions.CalculateBill, func(id string) any { return &billState{AccountID: id} }, ownedAccount},
	{actions.DeleteAddress, byID, nil},
	{actions.DeleteAccount, byID, nil},
	{actions.DeleteReading, byID, nil},
	{actions.DeleteTariff, byID, nil},
}

func byID(id string) any { return &deleteState{ID: id} }

func linkedAddress(ctx context.Context, s storage.Store, user int64, id string) error {
	_, err := storage.LinkedAddress(ctx, s, user, id)
	return err
}

func ownedAccount(ctx context.Context, s storage.Store, user int64, id string) error {
	_, err := storage.OwnedAccount(ctx, s, user, id)
	return err
}

func enter(eng *scene.Engine, store storage.Store, name string, init func(string) any,
	owned func(context.Context, storage.Store, int64, string) error) router.ActionHandler {
	return func(req *flow.Request, id string) error {
		if init == nil {
			return eng.Enter(req, name, nil)
		}
		if id == "" {
			return router.ErrUnknownAction
		}
		if owned != nil {
			err := owned(req.Context(), store, req.Event.UserID, id)
			if errors.Is(err, models.ErrNotFound) {
				return router.ErrUnknownAction
			}
			if err != nil {
				return err
			}
		}
		return eng.Enter(req, name, init(id))
	}
}

func isCancel(c *scene.Context) bool {
	return c.Event.Data == keyboard.Cancel
}

// backToMenu shows text with a single back button to menuID and ends the scene.
func (b base) backToMenu(c *scene.Context, text, menuID string) error {
	if menuID == "" {
		menuID = actions.RootMenu
	}
	err := c.Render(text, keyboard.Back(menuID))
	c.Leave()
	return err
}

// abort shows menuID in place of the scene's message and ends the scene.
func (b base) abort(c *scene.Context, menuID string) error {
	err := b.nav.Show(c.Request, menuID, false)
	c.Leave()
	return err
}

// fail reports an expected problem to the user and leaves.
func (b base) fail(c *scene.Context, menuID, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	logger.Warn(c.Context(), logger.CompScene, "scene.fail",
		slog.String("scene", c.Session.Scene),
		slog.Int("step", c.Step()),
		slog.String("cause", logger.SanitizeLimit(msg, 128)),
	)
	return b.backToMenu(c, "❌ "+msg, menuID)
}

// text returns the user's trimmed message and removes it from the chat.
func text(c *scene.Context) (string, bool) {
	if c.Event.IsCallback() {
		return "", false
	}
	t := strings.TrimSpace(c.Event.Text)
	if t == "" {
		return "", false
	}
	c.DeleteIncoming()
	return t, true
}
