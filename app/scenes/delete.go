package scenes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/storage"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

type deleteState struct {
	ID string
	// Parent is the menu shown after the deletion.
	Parent string
}

// target describes one deletable entity.
type target struct {
	// ask loads the entity for user and returns the question and the parent
	// menu. Entities outside the user's addresses are models.ErrNotFound.
	ask func(ctx context.Context, user int64, id string) (question, parent string, err error)
	// remove deletes the entity.
	remove func(ctx context.Context, c *scene.Context, id string) error
	// menu is the entity's own menu, shown on cancel and forgotten on success.
	menu func(id string) string
}

// deleteScene asks for confirmation, deletes, then shows the parent menu.
type deleteScene struct {
	base
	name string
	what string
	t    target
}

func (s *deleteScene) Name() string { return s.name }

func (s *deleteScene) Steps() []scene.Step {
	return []scene.Step{s.confirm, s.handle}
}

func deleteKeyboard() keyboard.Keyboard {
	return keyboard.Keyboard{{keyboard.Btn("🗑️ Delete", keyboard.Confirm), keyboard.CancelButton()}}
}

func (s *deleteScene) confirm(c *scene.Context) error {
	st := scene.State[deleteState](c)
	question, parent, err := s.t.ask(c.Context(), c.Event.UserID, st.ID)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, actions.RootMenu, "%s not found.", s.what)
	}
	if err != nil {
		return err
	}
	st.Parent = parent
	if err := c.Render(question, deleteKeyboard()); err != nil {
		return err
	}
	return c.Next()
}

func (s *deleteScene) handle(c *scene.Context) error {
	st := scene.State[deleteState](c)
	switch c.Event.Data {
	case keyboard.Cancel:
		return s.abort(c, s.t.menu(st.ID))
	case keyboard.Confirm:
	default:
		return nil
	}
	err := s.t.remove(c.Context(), c, st.ID)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, st.Parent, "%s not found.", s.what)
	}
	if err != nil {
		return err
	}
	logger.Info(c.Context(), logger.CompScene, "entity.deleted",
		slog.String("scene", s.name),
		slog.String("id", st.ID),
	)
	s.nav.CleanupForDeletion(c.Request, s.t.menu(st.ID), st.Parent)
	return s.abort(c, st.Parent)
}

func deleteAddress(b base) *deleteScene {
	return &deleteScene{base: b, name: actions.DeleteAddress, what: "Address", t: target{
		ask: func(ctx context.Context, user int64, id string) (string, string, error) {
			addr, err := storage.LinkedAddress(ctx, b.store, user, id)
			if err != nil {
				return "", "", err
			}
			q := fmt.Sprintf("🗑️ Delete the address %q? Its accounts, readings and tariffs go with it unless someone else shares it.", addr.Name)
			return q, actions.RootMenu, nil
		},
		remove: func(ctx context.Context, c *scene.Context, id string) error {
			_, err := b.store.DeleteAddress(ctx, id, c.Event.UserID)
			return err
		},
		menu: actions.AddressMenu,
	}}
}

func deleteAccount(b base) *deleteScene {
	return &deleteScene{base: b, name: actions.DeleteAccount, what: "Account", t: target{
		ask: func(ctx context.Context, user int64, id string) (string, string, error) {
			acc, err := storage.OwnedAccount(ctx, b.store, user, id)
			if err != nil {
				return "", "", err
			}
			q := fmt.Sprintf("🗑️ Delete %s with all its readings and tariffs?", acc.Title())
			return q, actions.AddressMenu(acc.AddressID), nil
		},
		remove: func(ctx context.Context, _ *scene.Context, id string) error {
			return b.store.DeleteAccount(ctx, id)
		},
		menu: actions.AccountMenu,
	}}
}

func deleteReading(b base) *deleteScene {
	return &deleteScene{base: b, name: actions.DeleteReading, what: "Reading", t: target{
		ask: func(ctx context.Context, user int64, id string) (string, string, error) {
			r, err := storage.OwnedReading(ctx, b.store, user, id)
			if err != nil {
				return "", "", err
			}
			q := fmt.Sprintf("🗑️ Delete the reading for %02d.%d?", r.Month, r.Year)
			return q, actions.ReadingsMenu(r.AccountID), nil
		},
		remove: func(ctx context.Context, _ *scene.Context, id string) error {
			return b.store.DeleteReading(ctx, id)
		},
		menu: actions.ReadingMenu,
	}}
}

func deleteTariff(b base) *deleteScene {
	return &deleteScene{base: b, name: actions.DeleteTariff, what: "Tariff", t: target{
		ask: func(ctx context.Context, user int64, id string) (string, string, error) {
			t, err := storage.OwnedTariff(ctx, b.store, user, id)
			if err != nil {
				return "", "", err
			}
			q := fmt.Sprintf("🗑️ Delete the tariff from %s?", t.StartDate.Format("02.01.2006"))
			return q, actions.TariffsMenu(t.AccountID), nil
		},
		remove: func(ctx context.Context, _ *scene.Context, id string) error {
			return b.store.DeleteTariff(ctx, id)
		},
		menu: actions.TariffMenu,
	}}
}
