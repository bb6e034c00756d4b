package scenes

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/billing"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

type billState struct {
	AccountID string
	Year      int
}

type calculateBill struct{ base }

func (s *calculateBill) Name() string { return actions.CalculateBill }

func (s *calculateBill) Steps() []scene.Step {
	return []scene.Step{s.askMonth, s.calculate}
}

func (s *calculateBill) askMonth(c *scene.Context) error {
	st := scene.State[billState](c)
	st.Year = s.now().Year()
	if err := c.Render(monthPrompt("Choose the month to bill", st.Year), keyboard.YearMonth(st.Year)); err != nil {
		return err
	}
	return c.Next()
}

func (s *calculateBill) calculate(c *scene.Context) error {
	st := scene.State[billState](c)
	back := actions.AccountMenu(st.AccountID)
	if isCancel(c) {
		return s.abort(c, back)
	}
	if y, ok := callbacks.ParseYear(c.Event.Data); ok {
		st.Year = y
		return c.Render(monthPrompt("Choose the month to bill", y), keyboard.YearMonth(y))
	}
	year, month, ok := callbacks.ParseMonth(c.Event.Data)
	if !ok {
		return nil
	}

	ctx := c.Context()
	cur, err := s.store.ReadingFor(ctx, st.AccountID, year, month)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, back, "No reading for %02d.%d.", month, year)
	}
	if err != nil {
		return err
	}
	py, pm := billing.PreviousMonth(year, month)
	prev, err := s.store.ReadingFor(ctx, st.AccountID, py, pm)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, back, "No reading for the previous month (%02d.%d) to compare with.", pm, py)
	}
	if err != nil {
		return err
	}
	tariff, err := s.store.TariffAt(ctx, st.AccountID, cur.Date())
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, back, "No tariff in effect on %02d.%d.", month, year)
	}
	if err != nil {
		return err
	}

	stmt, err := billing.Compute(cur, prev, tariff)
	var neg *billing.NegativeConsumptionError
	if errors.As(err, &neg) {
		return s.fail(c, back, "Negative consumption for zone %q.", neg.Zone)
	}
	if err != nil {
		return err
	}
	if err := s.store.SaveBill(ctx, &models.Bill{AccountID: st.AccountID, Year: year, Month: month, TotalCost: stmt.Total}); err != nil {
		logger.Warn(ctx, logger.CompBilling, "bill.save", slog.Any("err", err))
	}
	logger.Info(ctx, logger.CompBilling, "bill.calculated",
		slog.String("account_id", st.AccountID),
		slog.Int("year", year),
		slog.Int("month", month),
		slog.Float64("total", stmt.Total),
	)

	err = c.RenderMarkdown(stmt.Markdown(), keyboard.Back(back))
	c.Leave()
	return err
}
