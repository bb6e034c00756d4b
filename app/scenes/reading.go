package scenes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/billing"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/scene"
)

type readingState struct {
	AccountID string
	Year      int
	Month     int
	Resource  models.Resource
	// Zones lists the zone names still to be asked, in order.
	Zones  []string
	Prev   models.Zones
	Values models.Zones
}

func (st *readingState) current() string {
	return st.Zones[len(st.Values)]
}

// createReading records one month of meter values, one zone at a time.
type createReading struct{ base }

func (s *createReading) Name() string { return actions.CreateReading }

func (s *createReading) Steps() []scene.Step {
	return []scene.Step{s.askMonth, s.pickMonth, s.askZone, s.finish}
}

func monthPrompt(title string, year int) string {
	return fmt.Sprintf("📅 %s (%d):", title, year)
}

func (s *createReading) askMonth(c *scene.Context) error {
	st := scene.State[readingState](c)
	*st = readingState{AccountID: st.AccountID, Year: s.now().Year()}
	if err := c.Render(monthPrompt("Choose the month of the reading", st.Year), keyboard.YearMonth(st.Year)); err != nil {
		return err
	}
	return c.Next()
}

func (s *createReading) pickMonth(c *scene.Context) error {
	st := scene.State[readingState](c)
	if isCancel(c) {
		return s.abort(c, actions.ReadingsMenu(st.AccountID))
	}
	if y, ok := callbacks.ParseYear(c.Event.Data); ok {
		st.Year = y
		return c.Render(monthPrompt("Choose the month of the reading", y), keyboard.YearMonth(y))
	}
	year, month, ok := callbacks.ParseMonth(c.Event.Data)
	if !ok {
		return nil
	}

	ctx := c.Context()
	_, err := s.store.ReadingFor(ctx, st.AccountID, year, month)
	switch {
	case err == nil:
		notice := fmt.Sprintf("⚠️ The reading for %02d.%d is already entered.", month, year)
		if err := c.Render(notice, s.doneKeyboard(st.AccountID)); err != nil {
			return err
		}
		return c.SelectStep(3)
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	acc, err := s.store.Account(ctx, st.AccountID)
	if errors.Is(err, models.ErrNotFound) {
		return s.fail(c, actions.RootMenu, "Account not found.")
	}
	if err != nil {
		return err
	}
	py, pm := billing.PreviousMonth(year, month)
	prev, err := s.store.ReadingFor(ctx, st.AccountID, py, pm)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	st.Year, st.Month = year, month
	st.Resource = acc.Resource
	st.Zones = models.ZonesFor(acc.Meter())
	st.Prev = prev.Zones
	st.Values = nil
	return c.SelectStep(2)
}

func (s *createReading) promptZone(c *scene.Context, notice string) error {
	st := scene.State[readingState](c)
	zone := st.current()
	var b strings.Builder
	if notice != "" {
		b.WriteString(notice + "\n")
	}
	fmt.Fprintf(&b, "%s %02d.%d, zone %q.\n", st.Resource.Emoji(), st.Month, st.Year, zone)
	if prev, ok := st.Prev.Get(zone); ok {
		fmt.Fprintf(&b, "Previous value: %s.\n", billing.Number(prev))
	}
	b.WriteString("Enter the meter value:")
	return c.Render(b.String(), keyboard.CancelOnly())
}

func (s *createReading) askZone(c *scene.Context) error {
	st := scene.State[readingState](c)
	if isCancel(c) {
		return s.abort(c, actions.ReadingsMenu(st.AccountID))
	}
	raw, ok := text(c)
	if !ok {
		return s.promptZone(c, "")
	}
	v, ok := billing.ParseAmount(raw)
	if !ok {
		return s.promptZone(c, "⚠️ Enter a number, 0 or more.")
	}
	zone := st.current()
	if prev, ok := st.Prev.Get(zone); ok && v < prev {
		return s.promptZone(c, fmt.Sprintf("⚠️ The value cannot be below the previous one (%s).", billing.Number(prev)))
	}
	st.Values = append(st.Values, models.Zone{Name: zone, Value: v})
	if len(st.Values) < len(st.Zones) {
		return s.promptZone(c, "")
	}
	return s.save(c, st)
}

func (s *createReading) save(c *scene.Context, st *readingState) error {
	r := models.Reading{AccountID: st.AccountID, Year: st.Year, Month: st.Month, Zones: st.Values}
	err := s.store.CreateReading(c.Context(), &r)
	if errors.Is(err, models.ErrDuplicate) {
		return s.fail(c, actions.ReadingsMenu(st.AccountID), "The reading for %02d.%d is already entered.", st.Month, st.Year)
	}
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Reading for %02d.%d saved.\n", st.Month, st.Year)
	for _, z := range st.Values {
		fmt.Fprintf(&b, "%s: %s\n", z.Name, billing.Number(z.Value))
	}
	if len(st.Prev) > 0 {
		fmt.Fprintf(&b, "Consumption: %s %s", billing.Number(billing.Consumption(st.Values, st.Prev)), st.Resource.Unit())
	}
	if err := c.Render(strings.TrimRight(b.String(), "\n"), s.doneKeyboard(st.AccountID)); err != nil {
		return err
	}
	return c.Next()
}

func (s *createReading) doneKeyboard(accountID string) keyboard.Keyboard {
	return keyboard.Keyboard{
		{keyboard.Btn("➕ Add another", actions.AddMore)},
		{keyboard.Btn("⬅️ Back", actions.ReadingsMenu(accountID))},
	}
}

func (s *createReading) finish(c *scene.Context) error {
	st := scene.State[readingState](c)
	switch c.Event.Data {
	case actions.AddMore:
		return c.SelectStep(0)
	case actions.ReadingsMenu(st.AccountID), keyboard.Cancel:
		return s.abort(c, actions.ReadingsMenu(st.AccountID))
	}
	return nil
}
