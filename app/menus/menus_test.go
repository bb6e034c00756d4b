package menus

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/storage/storagetest"
	"github.com/m3rciful/utilbot/core/telegram/flow/flowtest"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/menu"
	"github.com/m3rciful/utilbot/core/telegram/session"
)

var now = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func resolve(t *testing.T, r *Resolver, id string) (menu.Menu, bool) {
	t.Helper()
	req := flowtest.Request(session.New(flowtest.Chat), &flowtest.Surface{}, flowtest.Press(id))
	m, ok, err := r.Resolve(req, id)
	if err != nil {
		t.Fatalf("resolve %s: %v", id, err)
	}
	return m, ok
}

func data(kb keyboard.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestResolveIgnoresForeignIDs(t *testing.T) {
	r := NewResolver(storagetest.New(), func() time.Time { return now })
	for _, id := range []string{"settings", "address-not-a-uuid", "unknown-9b0f1b56-3c61-4a55-9f7b-0c8f2d6e9a11"} {
		if _, ok := resolve(t, r, id); ok {
			t.Fatalf("%s resolved", id)
		}
	}
}

func TestAddressRequiresLink(t *testing.T) {
	store := storagetest.New()
	mine := store.AddAddress(flowtest.Chat, "Mine")
	theirs := store.AddAddress(flowtest.Chat+1, "Theirs")
	r := NewResolver(store, nil)

	if _, ok := resolve(t, r, actions.AddressMenu(theirs.ID)); ok {
		t.Fatal("resolved another user's address")
	}
	m, ok := resolve(t, r, actions.AddressMenu(mine.ID))
	if !ok {
		t.Fatal("own address not resolved")
	}
	if m.ID() != actions.AddressMenu(mine.ID) || !strings.Contains(m.Title(), "Mine") {
		t.Fatalf("menu = %s %q", m.ID(), m.Title())
	}
}

func TestForeignEntitiesNotResolved(t *testing.T) {
	store := storagetest.New()
	addr := store.AddAddress(flowtest.Chat+1, "Theirs")
	acc := store.AddAccount(models.Account{AccountNumber: "1", Resource: models.Gas, AddressID: addr.ID})
	rd := store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 1, Zones: models.Zones{{Name: models.ZoneStandard, Value: 1}}})
	tf := store.AddTariff(models.Tariff{AccountID: acc.ID, StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Zones: models.Zones{{Name: models.ZoneStandard, Value: 1}}})
	r := NewResolver(store, nil)

	for _, id := range []string{
		actions.AccountMenu(acc.ID),
		actions.ReadingsMenu(acc.ID),
		actions.ReadingMenu(rd.ID),
		actions.TariffsMenu(acc.ID),
		actions.TariffMenu(tf.ID),
	} {
		if _, ok := resolve(t, r, id); ok {
			t.Fatalf("%s resolved for a user without the address", id)
		}
	}
}

func TestAddressDeleteOnlyWhenEmpty(t *testing.T) {
	store := storagetest.New()
	addr := store.AddAddress(flowtest.Chat, "Main")
	r := NewResolver(store, nil)
	del := actions.Enter(actions.DeleteAddress, addr.ID)

	m, _ := resolve(t, r, actions.AddressMenu(addr.ID))
	if !contains(data(m.Buttons()), del) {
		t.Fatalf("empty address: %v", data(m.Buttons()))
	}

	acc := store.AddAccount(models.Account{AccountNumber: "1", Resource: models.Water, AddressID: addr.ID})
	m, _ = resolve(t, r, actions.AddressMenu(addr.ID))
	got := data(m.Buttons())
	if contains(got, del) || !contains(got, actions.AccountMenu(acc.ID)) {
		t.Fatalf("address with account: %v", got)
	}
}

func TestAccountMenu(t *testing.T) {
	store := storagetest.New()
	addr := store.AddAddress(flowtest.Chat, "Main")
	mt := string(models.MultiZone)
	acc := store.AddAccount(models.Account{AccountNumber: "42", Resource: models.Electricity, MeterType: &mt, AddressID: addr.ID})
	r := NewResolver(store, nil)

	m, ok := resolve(t, r, actions.AccountMenu(acc.ID))
	if !ok {
		t.Fatal("not resolved")
	}
	if !strings.Contains(m.Title(), "№42") || !strings.Contains(m.Title(), models.MultiZone.Label()) {
		t.Fatalf("title = %q", m.Title())
	}
	want := []string{
		actions.TariffsMenu(acc.ID),
		actions.Enter(actions.CalculateBill, acc.ID),
		actions.ReadingsMenu(acc.ID),
		actions.Enter(actions.DeleteAccount, acc.ID),
	}
	got := data(m.Buttons())
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("buttons = %v", got)
	}
}

func TestReadingsMenuYear(t *testing.T) {
	store := storagetest.New()
	addr := store.AddAddress(flowtest.Chat, "Main")
	acc := store.AddAccount(models.Account{AccountNumber: "1", Resource: models.Gas, AddressID: addr.ID})
	zones := func(v float64) models.Zones { return models.Zones{{Name: models.ZoneStandard, Value: v}} }
	store.AddReading(models.Reading{AccountID: acc.ID, Year: 2024, Month: 12, Zones: zones(100)})
	jan := store.AddReading(models.Reading{AccountID: acc.ID, Year: 2025, Month: 1, Zones: zones(110)})
	store.AddReading(models.Reading{AccountID: acc.ID, Year: 2025, Month: 6, Zones: zones(160)})
	r := NewResolver(store, func() time.Time { return now })

	tests := []struct {
		name      string
		id        string
		wantTitle []string
	}{
		{"latest year by default", actions.ReadingsMenu(acc.ID), []string{"2025", "Consumption: 60 m³"}},
		{"explicit empty year", actions.ReadingsYear(acc.ID, 2023), []string{"2023"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := resolve(t, r, tt.id)
			if !ok {
				t.Fatal("not resolved")
			}
			for _, w := range tt.wantTitle {
				if !strings.Contains(m.Title(), w) {
					t.Fatalf("title %q lacks %q", m.Title(), w)
				}
			}
		})
	}

	m, _ := resolve(t, r, actions.ReadingsMenu(acc.ID))
	got := data(m.Buttons())
	if !contains(got, actions.ReadingMenu(jan.ID)) || !contains(got, actions.ReadingsYear(acc.ID, 2024)) {
		t.Fatalf("buttons = %v", got)
	}
}

func TestMissingEntitiesAreNotResolved(t *testing.T) {
	r := NewResolver(storagetest.New(), nil)
	const id = "9b0f1b56-3c61-4a55-9f7b-0c8f2d6e9a11"
	for _, mid := range []string{
		actions.AccountMenu(id),
		actions.ReadingsMenu(id),
		actions.ReadingMenu(id),
		actions.TariffsMenu(id),
		actions.TariffMenu(id),
	} {
		if _, ok := resolve(t, r, mid); ok {
			t.Fatalf("%s resolved", mid)
		}
	}
}

func TestResolveStoreError(t *testing.T) {
	store := storagetest.New()
	store.Err = errors.New("db down")
	r := NewResolver(store, nil)
	req := flowtest.Request(session.New(flowtest.Chat), &flowtest.Surface{}, flowtest.Press("x"))
	if _, _, err := r.Resolve(req, actions.AccountMenu("9b0f1b56-3c61-4a55-9f7b-0c8f2d6e9a11")); err == nil {
		t.Fatal("expected error")
	}
}

func TestUtilitiesRender(t *testing.T) {
	store := storagetest.New()
	addr := store.AddAddress(flowtest.Chat, "Main")
	nav := menu.NewNavigator(menu.NewRegistry(), actions.RootMenu, nil)
	surface := &flowtest.Surface{}
	sess := session.New(flowtest.Chat)
	req := flowtest.Request(sess, surface, flowtest.Press(actions.RootMenu))

	if err := NewUtilities(store).Render(req, nav); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := data(surface.Last().Keyboard)
	want := []string{actions.AddressMenu(addr.ID), actions.CreateAddress, keyboard.Close}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("buttons = %v", got)
	}

	sess.PushMenu("elsewhere")
	if err := NewUtilities(store).Render(req, nav); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := data(surface.Last().Keyboard); got[len(got)-1] != keyboard.MenuBack {
		t.Fatalf("no back button: %v", got)
	}
}
