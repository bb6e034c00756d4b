// Package menus builds the billing menus: the static utilities root and the
// per-entity screens resolved from ids such as account-<uuid>.
package menus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/billing"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/storage"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/flow"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/menu"
)

const dateLayout = "02.01.2006"

// Utilities is the root menu: the user's addresses plus add and close buttons.
type Utilities struct {
	store storage.Store
}

var (
	_ menu.Menu     = (*Utilities)(nil)
	_ menu.Renderer = (*Utilities)(nil)
)

func NewUtilities(store storage.Store) *Utilities {
	return &Utilities{store: store}
}

func (u *Utilities) ID() string { return actions.RootMenu }
func (u *Utilities) Title() string { return "🏠 Your addresses" }

func (u *Utilities) Buttons() keyboard.Keyboard {
	return keyboard.Keyboard{
		{keyboard.Btn("➕ Add address", actions.CreateAddress)},
		{keyboard.Btn("❌ Close", keyboard.Close)},
	}
}

func (u *Utilities) Render(req *flow.Request, nav *menu.Navigator) error {
	addrs, err := u.store.AddressesFor(req.Context(), req.Event.UserID)
	if err != nil {
		return err
	}
	kb := keyboard.Keyboard{}
	for _, a := range addrs {
		kb = append(kb, keyboard.Row{keyboard.Btn("🏠 "+a.Name, actions.AddressMenu(a.ID))})
	}
	title := u.Title()
	if len(addrs) == 0 {
		title += "\nNo addresses yet."
	}
	return req.Render(title, nav.Decorate(req, kb.Append(u.Buttons()...)))
}

// Resolver builds dynamic menus from storage.
type Resolver struct {
	store storage.Store
	now   func() time.Time
}

func NewResolver(store storage.Store, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, now: now}
}

// Resolve implements menu.Resolver. Ids of missing entities, and of entities
// under addresses the user is not linked to, are not resolved.
func (r *Resolver) Resolve(req *flow.Request, id string) (menu.Menu, bool, error) {
	mid, ok := callbacks.ParseMenuID(id)
	if !ok {
		return nil, false, nil
	}
	ctx, user := req.Context(), req.Event.UserID
	var (
		m   menu.Menu
		err error
	)
	switch mid.Kind {
	case actions.KindAddress:
		m, err = r.address(ctx, user, mid)
	case actions.KindAccount:
		m, err = r.account(ctx, user, mid)
	case actions.KindReadings:
		m, err = r.readings(ctx, user, mid)
	case actions.KindReading:
		m, err = r.reading(ctx, user, mid)
	case actions.KindTariffs:
		m, err = r.tariffs(ctx, user, mid)
	case actions.KindTariff:
		m, err = r.tariff(ctx, user, mid)
	default:
		return nil, false, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *Resolver) address(ctx context.Context, userID int64, mid callbacks.MenuID) (menu.Menu, error) {
	addrs, err := r.store.AddressesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	var addr *models.Address
	for i := range addrs {
		if addrs[i].ID == mid.ID {
			addr = &addrs[i]
		}
	}
	if addr == nil {
		return nil, models.ErrNotFound
	}
	accounts, err := r.store.AccountsByAddress(ctx, addr.ID)
	if err != nil {
		return nil, err
	}
	kb := keyboard.Keyboard{}
	for _, a := range accounts {
		kb = append(kb, keyboard.Row{keyboard.Btn(a.Title(), actions.AccountMenu(a.ID))})
	}
	kb = append(kb, keyboard.Row{keyboard.Btn("➕ Add account", actions.Enter(actions.CreateAccount, addr.ID))})
	if len(accounts) == 0 {
		kb = append(kb, keyboard.Row{keyboard.Btn("🗑️ Delete address", actions.Enter(actions.DeleteAddress, addr.ID))})
	}
	return menu.Static{MenuID: mid.String(), Text: "📋 Accounts at " + addr.Name + ":", Rows: kb}, nil
}

func (r *Resolver) account(ctx context.Context, user int64, mid callbacks.MenuID) (menu.Menu, error) {
	acc, err := storage.OwnedAccount(ctx, r.store, user, mid.ID)
	if err != nil {
		return nil, err
	}
	kb := keyboard.Column(
		keyboard.Btn("💰 Tariffs", actions.TariffsMenu(acc.ID)),
		keyboard.Btn("🧾 Calculate bill", actions.Enter(actions.CalculateBill, acc.ID)),
		keyboard.Btn("📊 Readings", actions.ReadingsMenu(acc.ID)),
		keyboard.Btn("🗑️ Delete account", actions.Enter(actions.DeleteAccount, acc.ID)),
	)
	title := acc.Title()
	if acc.Resource == models.Electricity {
		title += " (" + acc.Meter().Label() + ")"
	}
	return menu.Static{MenuID: mid.String(), Text: title, Rows: kb}, nil
}

func zoneList(zones models.Zones, value func(float64) string, sep string) string {
	parts := make([]string, 0, len(zones))
	for _, z := range zones {
		parts = append(parts, z.Name+": "+value(z.Value))
	}
	return strings.Join(parts, sep)
}

func (r *Resolver) readings(ctx context.Context, user int64, mid callbacks.MenuID) (menu.Menu, error) {
	acc, err := storage.OwnedAccount(ctx, r.store, user, mid.ID)
	if err != nil {
		return nil, err
	}
	year := mid.Suffix
	if year == 0 {
		latest, ok, err := r.store.LatestReadingYear(ctx, acc.ID)
		if err != nil {
			return nil, err
		}
		year = r.now().Year()
		if ok {
			year = latest
		}
	}
	list, err := r.store.ReadingsByYear(ctx, acc.ID, year)
	if err != nil {
		return nil, err
	}

	kb := keyboard.Keyboard{}
	for _, rd := range list {
		label := fmt.Sprintf("%02d.%d → %s", rd.Month, rd.Year, zoneList(rd.Zones, billing.Number, ", "))
		kb = append(kb, keyboard.Row{keyboard.Btn(label, actions.ReadingMenu(rd.ID))})
	}
	kb = append(kb,
		keyboard.Row{
			keyboard.Btn(fmt.Sprintf("⬅️ %d", year-1), actions.ReadingsYear(acc.ID, year-1)),
			keyboard.Btn(fmt.Sprintf("📅 %d", year), actions.ReadingsYear(acc.ID, year)),
			keyboard.Btn(fmt.Sprintf("%d ➡️", year+1), actions.ReadingsYear(acc.ID, year+1)),
		},
		keyboard.Row{keyboard.Btn("➕ Add reading", actions.Enter(actions.CreateReading, acc.ID))},
	)

	title := fmt.Sprintf("📊 Readings for %d (%s №%s)", year, acc.Resource.Emoji(), acc.AccountNumber)
	total, ok, err := r.yearConsumption(ctx, acc.ID, year, list)
	if err != nil {
		return nil, err
	}
	if ok {
		title += fmt.Sprintf(" | Consumption: %s %s", billing.Number(total), acc.Resource.Unit())
	}
	return menu.Static{MenuID: mid.String(), Text: title, Rows: kb}, nil
}

// yearConsumption measures from the previous December to the latest reading of year.
func (r *Resolver) yearConsumption(ctx context.Context, accountID string, year int, list []models.Reading) (float64, bool, error) {
	if len(list) == 0 {
		return 0, false, nil
	}
	dec, err := r.store.ReadingFor(ctx, accountID, year-1, 12)
	if errors.Is(err, models.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	total := billing.Consumption(list[0].Zones, dec.Zones)
	return total, total > 0, nil
}

func (r *Resolver) reading(ctx context.Context, user int64, mid callbacks.MenuID) (menu.Menu, error) {
	rd, err := storage.OwnedReading(ctx, r.store, user, mid.ID)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("📊 Reading for %02d.%d:\n%s", rd.Month, rd.Year, zoneList(rd.Zones, billing.Number, "\n"))
	kb := keyboard.Column(keyboard.Btn("🗑️ Delete reading", actions.Enter(actions.DeleteReading, rd.ID)))
	return menu.Static{MenuID: mid.String(), Text: title, Rows: kb}, nil
}

func (r *Resolver) tariffs(ctx context.Context, user int64, mid callbacks.MenuID) (menu.Menu, error) {
	acc, err := storage.OwnedAccount(ctx, r.store, user, mid.ID)
	if err != nil {
		return nil, err
	}
	list, err := r.store.TariffsByAccount(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	kb := keyboard.Keyboard{}
	for _, t := range list {
		label := t.StartDate.Format("01.2006") + ": " + zoneList(t.Zones, billing.Money, ", ")
		kb = append(kb, keyboard.Row{keyboard.Btn(label, actions.TariffMenu(t.ID))})
	}
	kb = append(kb, keyboard.Row{keyboard.Btn("➕ Add tariff", actions.Enter(actions.CreateTariff, acc.ID))})
	return menu.Static{MenuID: mid.String(), Text: "💰 Tariffs for " + acc.Title() + ":", Rows: kb}, nil
}

func (r *Resolver) tariff(ctx context.Context, user int64, mid callbacks.MenuID) (menu.Menu, error) {
	t, err := storage.OwnedTariff(ctx, r.store, user, mid.ID)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("💰 Tariff from %s\n%s", t.StartDate.Format(dateLayout), zoneList(t.Zones, billing.Money, "\n"))
	kb := keyboard.Column(keyboard.Btn("🗑️ Delete tariff", actions.Enter(actions.DeleteTariff, t.ID)))
	return menu.Static{MenuID: mid.String(), Text: title, Rows: kb}, nil
}
