package scenes

import (
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

const maxAddressLen = 128

type createAddress struct{ base }

func (s *createAddress) Name() string { return actions.CreateAddress }

func (s *createAddress) Steps() []scene.Step {
	return []scene.Step{s.prompt, s.save}
}

func (s *createAddress) prompt(c *scene.Context) error {
	if err := c.Render("🏠 Enter the address:", keyboard.CancelOnly()); err != nil {
		return err
	}
	return c.Next()
}

func (s *createAddress) save(c *scene.Context) error {
	if isCancel(c) {
		return s.abort(c, actions.RootMenu)
	}
	name, ok := text(c)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(name) > maxAddressLen {
		return c.Render("⚠️ The address is too long. Enter a shorter one:", keyboard.CancelOnly())
	}

	ctx := c.Context()
	addr, err := s.store.FindOrCreateAddress(ctx, name)
	if err != nil {
		return err
	}
	err = s.store.LinkAddress(ctx, c.Event.UserID, addr.ID)
	if errors.Is(err, models.ErrDuplicate) {
		return s.backToMenu(c, "⚠️ This address is already in your list.", actions.RootMenu)
	}
	if err != nil {
		return err
	}
	logger.Info(ctx, logger.CompScene, "address.linked", slog.String("address_id", addr.ID))
	return s.abort(c, actions.RootMenu)
}
