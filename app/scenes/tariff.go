package scenes

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/billing"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

type tariffState struct {
	AccountID string
	Year      int
	Month     int
	Zones     []string
	Prices    models.Zones
}

// createTariff asks for the start year and month, then a price per zone.
type createTariff struct{ base }

func (s *createTariff) Name() string { return actions.CreateTariff }

func (s *createTariff) Steps() []scene.Step {
	return []scene.Step{s.askYear, s.pickYear, s.pickMonth, s.askPrice, s.save}
}

func (s *createTariff) askYear(c *scene.Context) error {
	now := s.now().Year()
	var row keyboard.Row
	for y := now - 1; y <= now+1; y++ {
		row = append(row, keyboard.Btn(strconv.Itoa(y), callbacks.Year(y)))
	}
	kb := keyboard.Keyboard{row, {keyboard.CancelButton()}}
	if err := c.Render("📅 The tariff applies from which year?", kb); err != nil {
		return err
	}
	return c.Next()
}

func (s *createTariff) pickYear(c *scene.Context) error {
	st := scene.State[tariffState](c)
	if isCancel(c) {
		return s.abort(c, actions.TariffsMenu(st.AccountID))
	}
	y, ok := callbacks.ParseYear(c.Event.Data)
	if !ok {
		return nil
	}
	st.Year = y
	months := make([]keyboard.Button, 0, len(keyboard.Months))
	for i, name := range keyboard.Months {
		months = append(months, keyboard.Btn(name, callbacks.Month(y, i+1)))
	}
	kb := keyboard.Grid(months, 3).Append(keyboard.Row{keyboard.CancelButton()})
	if err := c.Render(fmt.Sprintf("📅 From which month of %d?", y), kb); err != nil {
		return err
	}
	return c.Next()
}

func (s *createTariff) pickMonth(c *scene.Context) error {
	st := scene.State[tariffState](c)
	if isCancel(c) {
		return s.abort(c, actions.TariffsMenu(st.AccountID))
	}
	year, month, ok := callbacks.ParseMonth(c.Event.Data)
	if !ok {
		return nil
	}
	acc, err := s.store.Account(c.Context(), st.AccountID)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, actions.RootMenu, "Account not found.")
	}
	if err != nil {
		return err
	}
	st.Year, st.Month = year, month
	st.Zones = models.ZonesFor(acc.Meter())
	st.Prices = nil
	return c.SelectStep(3)
}

func (s *createTariff) promptPrice(c *scene.Context, notice string) error {
	st := scene.State[tariffState](c)
	msg := fmt.Sprintf("💰 Price for zone %q from 01.%02d.%d:", st.Zones[len(st.Prices)], st.Month, st.Year)
	if notice != "" {
		msg = notice + "\n" + msg
	}
	return c.Render(msg, keyboard.CancelOnly())
}

func (s *createTariff) askPrice(c *scene.Context) error {
	st := scene.State[tariffState](c)
	if isCancel(c) {
		return s.abort(c, actions.TariffsMenu(st.AccountID))
	}
	raw, ok := text(c)
	if !ok {
		return s.promptPrice(c, "")
	}
	price, ok := billing.ParseAmount(raw)
	if !ok {
		return s.promptPrice(c, "⚠️ Enter a price, 0 or more. Both 4.32 and 4,32 work.")
	}
	st.Prices = append(st.Prices, models.Zone{Name: st.Zones[len(st.Prices)], Value: price})
	if len(st.Prices) < len(st.Zones) {
		return s.promptPrice(c, "")
	}
	return c.SelectStep(4)
}

func (s *createTariff) save(c *scene.Context) error {
	st := scene.State[tariffState](c)
	if len(st.Zones) == 0 || len(st.Prices) != len(st.Zones) {
		return s.abort(c, actions.TariffsMenu(st.AccountID))
	}
	t := models.Tariff{
		AccountID: st.AccountID,
		Zones:     st.Prices,
		StartDate: time.Date(st.Year, time.Month(st.Month), 1, 0, 0, 0, 0, time.UTC),
	}
	if err := s.store.CreateTariff(c.Context(), &t); err != nil {
		return err
	}
	logger.Info(c.Context(), logger.CompScene, "tariff.created",
		slog.String("tariff_id", t.ID),
		slog.String("start", t.StartDate.Format(time.DateOnly)),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Tariff from %s saved.", t.StartDate.Format("02.01.2006"))
	for _, z := range t.Zones {
		fmt.Fprintf(&b, "\n%s: %s", z.Name, billing.Money(z.Value))
	}
	return s.backToMenu(c, b.String(), actions.TariffsMenu(st.AccountID))
}
