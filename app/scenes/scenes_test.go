package scenes_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/utilbot/app/actions"
	"github.com/m3rciful/utilbot/app/menus"
	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/scenes"
	"github.com/m3rciful/utilbot/app/storage/storagetest"
	"github.com/m3rciful/utilbot/core/telegram/callbacks"
	"github.com/m3rciful/utilbot/core/telegram/flow/flowtest"
	"github.com/m3rciful/utilbot/core/telegram/keyboard"
	"github.com/m3rciful/utilbot/core/telegram/menu"
	"github.com/m3rciful/utilbot/core/telegram/router"
	"github.com/m3rciful/utilbot/core/telegram/scene"
	"github.com/m3rciful/utilbot/core/telegram/session"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	t        *testing.T
	store    *storagetest.Memory
	sessions *session.MemoryStore
	surface  *flowtest.Surface
	disp     *router.Dispatcher
	actions  *router.ActionRouter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := storagetest.New()
	now := func() time.Time { return testNow }

	reg := scene.NewRegistry()
	eng := scene.NewEngine(reg)
	menuReg := menu.NewRegistry()
	if err := menuReg.Register(menus.NewUtilities(store)); err != nil {
		t.Fatalf("register root: %v", err)
	}
	nav := menu.NewNavigator(menuReg, actions.RootMenu, menus.NewResolver(store, now).Resolve)
	ar := router.NewActionRouter(nav)
	if err := scenes.Register(reg, eng, ar, scenes.Deps{Store: store, Nav: nav, Now: now}); err != nil {
		t.Fatalf("register scenes: %v", err)
	}

	sessions := session.NewMemoryStore()
	d, err := router.NewDispatcher(router.DispatcherOptions{Store: sessions, Locker: session.NewLocker(), Engine: eng})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return &harness{t: t, store: store, sessions: sessions, surface: &flowtest.Surface{}, disp: d, actions: ar}
}

func (h *harness) press(data string) error {
	return h.pressAs(flowtest.Chat, data)
}

// pressAs presses data in the private chat of user.
func (h *harness) pressAs(user int64, data string) error {
	ev := flowtest.Press(data)
	ev.ChatID, ev.UserID = user, user
	ev.Message = &session.MessageRef{ChatID: user, MessageID: 1}
	return h.disp.Dispatch(context.Background(), ev, h.surface, h.actions.Handle)
}

func (h *harness) mustPress(data string) {
	h.t.Helper()
	if err := h.press(data); err != nil {
		h.t.Fatalf("press %s: %v", data, err)
	}
}

func (h *harness) send(text string) {
	h.t.Helper()
	ev := flowtest.Text(text)
	ev.UserID = flowtest.Chat
	if err := h.disp.Dispatch(context.Background(), ev, h.surface, nil); err != nil {
		h.t.Fatalf("send %q: %v", text, err)
	}
}

func (h *harness) session() *session.Session {
	h.t.Helper()
	s, err := session.Load(context.Background(), h.sessions, flowtest.Chat)
	if err != nil {
		h.t.Fatalf("load session: %v", err)
	}
	return s
}

func (h *harness) lastText() string {
	return h.surface.Last().Text
}

func (h *harness) assertIdle() {
	h.t.Helper()
	if s := h.session(); s.InScene() {
		h.t.Fatalf("still in scene %s step %d", s.Scene, s.Step)
	}
}

func buttonData(kb keyboard.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

func hasButton(kb keyboard.Keyboard, data string) bool {
	for _, d := range buttonData(kb) {
		if d == data {
			return true
		}
	}
	return false
}

func TestCreateAddress(t *testing.T) {
	h := newHarness(t)
	h.mustPress(actions.CreateAddress)
	if s := h.session(); s.Scene != actions.CreateAddress || s.Step != 1 {
		t.Fatalf("session = %s/%d", s.Scene, s.Step)
	}

	h.send(strings.Repeat("x", 129))
	if !strings.Contains(h.lastText(), "too long") {
		t.Fatalf("last = %q", h.lastText())
	}

	h.send("  Main St 1  ")
	h.assertIdle()
	addrs, _ := h.store.AddressesFor(context.Background(), flowtest.Chat)
	if len(addrs) != 1 || addrs[0].Name != "Main St 1" {
		t.Fatalf("addresses = %+v", addrs)
	}
	if !hasButton(h.surface.Last().Keyboard, actions.AddressMenu(addrs[0].ID)) {
		t.Fatalf("root menu misses the new address: %v", buttonData(h.surface.Last().Keyboard))
	}
	if h.session().CurrentMenu != actions.RootMenu {
		t.Fatalf("current menu = %q", h.session().CurrentMenu)
	}
}

func TestCreateAddressAlreadyLinked(t *testing.T) {
	h := newHarness(t)
	h.store.AddAddress(flowtest.Chat, "Main St 1")

	h.mustPress(actions.CreateAddress)
	h.send("Main St 1")
	h.assertIdle()
	if !strings.Contains(h.lastText(), "already in your list") {
		t.Fatalf("last = %q", h.lastText())
	}
}

func TestCreateAccountElectricity(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")

	h.mustPress(actions.Enter(actions.CreateAccount, addr.ID))
	h.mustPress(callbacks.Join(actions.Resource, string(models.Electricity)))
	if s := h.session(); s.Step != 2 {
		t.Fatalf("step after resource = %d", s.Step)
	}
	h.mustPress(callbacks.Join(actions.Meter, string(models.DayNight)))
	h.send("12345")

	if len(h.store.CreatedAccounts) != 1 {
		t.Fatalf("created %d accounts", len(h.store.CreatedAccounts))
	}
	got := h.store.CreatedAccounts[0]
	if got.AccountNumber != "12345" || got.Resource != models.Electricity || got.AddressID != addr.ID {
		t.Fatalf("account = %+v", got)
	}
	if got.MeterType == nil || *got.MeterType != string(models.DayNight) {
		t.Fatalf("meter type = %v", got.MeterType)
	}
	h.assertIdle()
	if !hasButton(h.surface.Last().Keyboard, actions.AddressMenu(addr.ID)) {
		t.Fatalf("keyboard = %v", buttonData(h.surface.Last().Keyboard))
	}
}

func TestCreateAccountWaterSkipsMeter(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")

	h.mustPress(actions.Enter(actions.CreateAccount, addr.ID))
	h.mustPress(callbacks.Join(actions.Resource, string(models.Water)))
	if s := h.session(); s.Step != 3 {
		t.Fatalf("step = %d, want the number step", s.Step)
	}
	if !strings.Contains(h.lastText(), "account number") {
		t.Fatalf("last = %q", h.lastText())
	}

	h.send("bad number!")
	if len(h.store.CreatedAccounts) != 0 {
		t.Fatal("invalid number was saved")
	}
	h.send("W-1")
	if len(h.store.CreatedAccounts) != 1 || h.store.CreatedAccounts[0].MeterType != nil {
		t.Fatalf("created = %+v", h.store.CreatedAccounts)
	}
	h.assertIdle()
}

func TestCreateAccountDuplicateNumber(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")
	h.store.AddAccount(models.Account{AccountNumber: "777", Resource: models.Gas, AddressID: addr.ID})

	h.mustPress(actions.Enter(actions.CreateAccount, addr.ID))
	h.mustPress(callbacks.Join(actions.Resource, string(models.Gas)))
	h.send("777")
	if !strings.Contains(h.lastText(), "already exists") {
		t.Fatalf("last = %q", h.lastText())
	}
	if s := h.session(); s.Scene != actions.CreateAccount || s.Step != 3 {
		t.Fatalf("session = %s/%d", s.Scene, s.Step)
	}
}

func TestCreateAccountCancel(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")

	h.mustPress(actions.Enter(actions.CreateAccount, addr.ID))
	h.mustPress(keyboard.Cancel)
	h.assertIdle()
	if h.session().CurrentMenu != actions.AddressMenu(addr.ID) {
		t.Fatalf("current menu = %q", h.session().CurrentMenu)
	}
}

func TestEnterWithoutIDIsUnknown(t *testing.T) {
	h := newHarness(t)
	err := h.press(actions.CreateAccount)
	if !errors.Is(err, router.ErrUnknownAction) {
		t.Fatalf("err = %v", err)
	}
	h.assertIdle()
}

func seedAccount(h *harness, meter models.MeterType) models.Account {
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")
	acc := models.Account{AccountNumber: "1", Resource: models.Electricity, AddressID: addr.ID}
	if meter != "" {
		m := string(meter)
		acc.MeterType = &m
	}
	return h.store.AddAccount(acc)
}

func TestCreateReadingDayNight(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, models.DayNight)
	h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 2, Zones: models.Zones{
		{Name: models.ZoneDay, Value: 10},
		{Name: models.ZoneNight, Value: 5},
	}})

	h.mustPress(actions.Enter(actions.CreateReading, acc.ID))
	h.mustPress(callbacks.Month(2026, 3))
	if s := h.session(); s.Step != 2 {
		t.Fatalf("step = %d", s.Step)
	}
	if !strings.Contains(h.lastText(), `"day"`) {
		t.Fatalf("last = %q", h.lastText())
	}

	h.send("8")
	if !strings.Contains(h.lastText(), "below the previous") {
		t.Fatalf("last = %q", h.lastText())
	}
	h.send("12")
	if !strings.Contains(h.lastText(), `"night"`) {
		t.Fatalf("last = %q", h.lastText())
	}
	h.send("7")
	if !strings.Contains(h.lastText(), "Consumption") {
		t.Fatalf("last = %q", h.lastText())
	}

	r, err := h.store.ReadingFor(context.Background(), acc.ID, 2026, 3)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if day, _ := r.Zones.Get(models.ZoneDay); day != 12 {
		t.Fatalf("day = %v", day)
	}
	if night, _ := r.Zones.Get(models.ZoneNight); night != 7 {
		t.Fatalf("night = %v", night)
	}

	h.mustPress(actions.AddMore)
	if s := h.session(); s.Scene != actions.CreateReading || s.Step != 1 {
		t.Fatalf("after add-more = %s/%d", s.Scene, s.Step)
	}
	h.send("/cancel")
	h.assertIdle()
}

func TestCreateReadingExistingMonth(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")
	h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 3, Zones: models.Zones{{Name: models.ZoneStandard, Value: 1}}})

	h.mustPress(actions.Enter(actions.CreateReading, acc.ID))
	h.mustPress(callbacks.Month(2026, 3))
	if !strings.Contains(h.lastText(), "already entered") {
		t.Fatalf("last = %q", h.lastText())
	}
	h.mustPress(actions.ReadingsMenu(acc.ID))
	h.assertIdle()
	if h.session().CurrentMenu != actions.ReadingsMenu(acc.ID) {
		t.Fatalf("current menu = %q", h.session().CurrentMenu)
	}
}

func TestCreateTariff(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")

	h.mustPress(actions.Enter(actions.CreateTariff, acc.ID))
	h.mustPress(callbacks.Year(2026))
	h.mustPress(callbacks.Month(2026, 4))
	h.send("abc")
	if !strings.Contains(h.lastText(), "Enter a price") {
		t.Fatalf("last = %q", h.lastText())
	}
	h.send("4,32")
	h.assertIdle()

	list, _ := h.store.TariffsByAccount(context.Background(), acc.ID)
	if len(list) != 1 {
		t.Fatalf("tariffs = %+v", list)
	}
	want := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !list[0].StartDate.Equal(want) {
		t.Fatalf("start = %v", list[0].StartDate)
	}
	if p, _ := list[0].Zones.Get(models.ZoneStandard); p != 4.32 {
		t.Fatalf("price = %v", p)
	}
}

func TestCalculateBill(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")
	h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 2, Zones: models.Zones{{Name: models.ZoneStandard, Value: 100}}})
	h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 3, Zones: models.Zones{{Name: models.ZoneStandard, Value: 150}}})
	h.store.AddTariff(models.Tariff{AccountID: acc.ID, StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Zones: models.Zones{{Name: models.ZoneStandard, Value: 2}}})

	h.mustPress(actions.Enter(actions.CalculateBill, acc.ID))
	h.mustPress(callbacks.Month(2026, 3))
	h.assertIdle()

	last := h.surface.Last()
	if !last.Markdown || !strings.Contains(last.Text, "100.00") {
		t.Fatalf("statement = %+v", last)
	}
	bills := h.store.Bills()
	if len(bills) != 1 || bills[0].TotalCost != 100 {
		t.Fatalf("bills = %+v", bills)
	}
}

func TestCalculateBillWithoutPreviousReading(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")
	h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 3, Zones: models.Zones{{Name: models.ZoneStandard, Value: 150}}})

	h.mustPress(actions.Enter(actions.CalculateBill, acc.ID))
	h.mustPress(callbacks.Month(2026, 3))
	h.assertIdle()
	if !strings.Contains(h.lastText(), "previous month") {
		t.Fatalf("last = %q", h.lastText())
	}
	if !hasButton(h.surface.Last().Keyboard, actions.AccountMenu(acc.ID)) {
		t.Fatalf("keyboard = %v", buttonData(h.surface.Last().Keyboard))
	}
}

func TestDeleteAccountReturnsToAddress(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")

	h.mustPress(actions.RootMenu)
	h.mustPress(actions.AddressMenu(acc.AddressID))
	h.mustPress(actions.AccountMenu(acc.ID))
	h.mustPress(actions.Enter(actions.DeleteAccount, acc.ID))

	h.mustPress("something-else")
	if s := h.session(); s.Scene != actions.DeleteAccount || s.Step != 1 {
		t.Fatalf("stray press moved the scene: %s/%d", s.Scene, s.Step)
	}

	h.mustPress(keyboard.Confirm)
	h.assertIdle()
	if _, err := h.store.Account(context.Background(), acc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("account still there: %v", err)
	}

	s := h.session()
	if s.CurrentMenu != actions.AddressMenu(acc.AddressID) {
		t.Fatalf("current menu = %q", s.CurrentMenu)
	}
	if len(s.MenuStack) != 1 || s.MenuStack[0] != actions.RootMenu {
		t.Fatalf("stack = %v", s.MenuStack)
	}
	if !hasButton(h.surface.Last().Keyboard, actions.Enter(actions.DeleteAddress, acc.AddressID)) {
		t.Fatalf("empty address should offer deletion: %v", buttonData(h.surface.Last().Keyboard))
	}
}

func TestDeleteReadingCancelShowsReading(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")
	r := h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 1, Zones: models.Zones{{Name: models.ZoneStandard, Value: 3}}})

	h.mustPress(actions.Enter(actions.DeleteReading, r.ID))
	h.mustPress(keyboard.Cancel)
	h.assertIdle()
	if h.session().CurrentMenu != actions.ReadingMenu(r.ID) {
		t.Fatalf("current menu = %q", h.session().CurrentMenu)
	}
	if _, err := h.store.Reading(context.Background(), r.ID); err != nil {
		t.Fatalf("reading removed on cancel: %v", err)
	}
}

func TestDeleteMissingTariff(t *testing.T) {
	h := newHarness(t)
	h.mustPress(actions.Enter(actions.DeleteTariff, "9b0f1b56-3c61-4a55-9f7b-0c8f2d6e9a11"))
	h.assertIdle()
	if !strings.Contains(h.lastText(), "Tariff not found") {
		t.Fatalf("last = %q", h.lastText())
	}
}

func TestDeleteAddress(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")

	h.mustPress(actions.Enter(actions.DeleteAddress, addr.ID))
	h.mustPress(keyboard.Confirm)
	h.assertIdle()
	addrs, _ := h.store.AddressesFor(context.Background(), flowtest.Chat)
	if len(addrs) != 0 {
		t.Fatalf("addresses = %+v", addrs)
	}
	if h.session().CurrentMenu != actions.RootMenu {
		t.Fatalf("current menu = %q", h.session().CurrentMenu)
	}
}

func TestStoreFailureLeavesScene(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")

	h.mustPress(actions.Enter(actions.CreateAccount, addr.ID))
	h.mustPress(callbacks.Join(actions.Resource, string(models.Gas)))
	h.store.Err = errors.New("db down")

	ev := flowtest.Text("42")
	ev.UserID = flowtest.Chat
	if err := h.disp.Dispatch(context.Background(), ev, h.surface, nil); err == nil {
		t.Fatal("expected the store error")
	}
	h.assertIdle()
}

const stranger int64 = 999

func TestDeleteForeignAddress(t *testing.T) {
	h := newHarness(t)
	addr := h.store.AddAddress(flowtest.Chat, "Main St 1")

	if err := h.pressAs(stranger, actions.Enter(actions.DeleteAddress, addr.ID)); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if !strings.Contains(h.lastText(), "Address not found") {
		t.Fatalf("last = %q", h.lastText())
	}
	if err := h.pressAs(stranger, keyboard.Confirm); err != nil && !errors.Is(err, router.ErrUnknownAction) {
		t.Fatalf("confirm: %v", err)
	}

	addrs, _ := h.store.AddressesFor(context.Background(), flowtest.Chat)
	if len(addrs) != 1 || addrs[0].ID != addr.ID {
		t.Fatalf("owner lost the address: %+v", addrs)
	}
	s, err := session.Load(context.Background(), h.sessions, stranger)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if s.InScene() {
		t.Fatalf("stranger still in scene %s", s.Scene)
	}
}

func TestDeleteForeignEntities(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")
	r := h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 1, Zones: models.Zones{{Name: models.ZoneStandard, Value: 3}}})
	tf := h.store.AddTariff(models.Tariff{AccountID: acc.ID, StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Zones: models.Zones{{Name: models.ZoneStandard, Value: 2}}})

	tests := []struct {
		scene string
		id    string
		want  string
	}{
		{actions.DeleteAccount, acc.ID, "Account not found"},
		{actions.DeleteReading, r.ID, "Reading not found"},
		{actions.DeleteTariff, tf.ID, "Tariff not found"},
	}
	for _, tt := range tests {
		t.Run(tt.scene, func(t *testing.T) {
			if err := h.pressAs(stranger, actions.Enter(tt.scene, tt.id)); err != nil {
				t.Fatalf("enter: %v", err)
			}
			if !strings.Contains(h.lastText(), tt.want) {
				t.Fatalf("last = %q", h.lastText())
			}
		})
	}

	ctx := context.Background()
	if _, err := h.store.Account(ctx, acc.ID); err != nil {
		t.Fatalf("account: %v", err)
	}
	if _, err := h.store.Reading(ctx, r.ID); err != nil {
		t.Fatalf("reading: %v", err)
	}
	if _, err := h.store.Tariff(ctx, tf.ID); err != nil {
		t.Fatalf("tariff: %v", err)
	}
}

func TestEnterForeignIDIsUnknown(t *testing.T) {
	h := newHarness(t)
	acc := seedAccount(h, "")

	for _, data := range []string{
		actions.Enter(actions.CreateAccount, acc.AddressID),
		actions.Enter(actions.CreateReading, acc.ID),
		actions.Enter(actions.CreateTariff, acc.ID),
		actions.Enter(actions.CalculateBill, acc.ID),
	} {
		if err := h.pressAs(stranger, data); !errors.Is(err, router.ErrUnknownAction) {
			t.Fatalf("%s: err = %v", data, err)
		}
	}
	s, err := session.Load(context.Background(), h.sessions, stranger)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if s.InScene() {
		t.Fatalf("stranger entered %s", s.Scene)
	}
}

func TestEverySceneEndsIdle(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	std := func(v float64) models.Zones { return models.Zones{{Name: models.ZoneStandard, Value: v}} }

	tests := []struct {
		scene string
		run   func(t *testing.T, h *harness)
	}{
		{actions.CreateAddress, func(t *testing.T, h *harness) {
			h.mustPress(actions.CreateAddress)
			h.send("Main St 2")
		}},
		{actions.CreateAccount, func(t *testing.T, h *harness) {
			addr := h.store.AddAddress(flowtest.Chat, "Main St 1")
			h.mustPress(actions.Enter(actions.CreateAccount, addr.ID))
			h.mustPress(callbacks.Join(actions.Resource, string(models.Water)))
			h.send("W-1")
		}},
		{actions.CreateReading, func(t *testing.T, h *harness) {
			acc := seedAccount(h, "")
			h.mustPress(actions.Enter(actions.CreateReading, acc.ID))
			h.mustPress(callbacks.Month(2026, 3))
			h.send("5")
			h.mustPress(actions.ReadingsMenu(acc.ID))
		}},
		{actions.CreateTariff, func(t *testing.T, h *harness) {
			acc := seedAccount(h, "")
			h.mustPress(actions.Enter(actions.CreateTariff, acc.ID))
			h.mustPress(callbacks.Year(2026))
			h.mustPress(callbacks.Month(2026, 4))
			h.send("1.5")
		}},
		{actions.CalculateBill, func(t *testing.T, h *harness) {
			acc := seedAccount(h, "")
			h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 2, Zones: std(1)})
			h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 3, Zones: std(4)})
			h.store.AddTariff(models.Tariff{AccountID: acc.ID, StartDate: jan, Zones: std(2)})
			h.mustPress(actions.Enter(actions.CalculateBill, acc.ID))
			h.mustPress(callbacks.Month(2026, 3))
		}},
		{actions.DeleteAddress, func(t *testing.T, h *harness) {
			addr := h.store.AddAddress(flowtest.Chat, "Main St 1")
			h.mustPress(actions.Enter(actions.DeleteAddress, addr.ID))
			h.mustPress(keyboard.Confirm)
			if _, err := h.store.Address(context.Background(), addr.ID); !errors.Is(err, models.ErrNotFound) {
				t.Fatalf("address still there: %v", err)
			}
		}},
		{actions.DeleteAccount, func(t *testing.T, h *harness) {
			acc := seedAccount(h, "")
			h.mustPress(actions.Enter(actions.DeleteAccount, acc.ID))
			h.mustPress(keyboard.Confirm)
			if _, err := h.store.Account(context.Background(), acc.ID); !errors.Is(err, models.ErrNotFound) {
				t.Fatalf("account still there: %v", err)
			}
		}},
		{actions.DeleteReading, func(t *testing.T, h *harness) {
			acc := seedAccount(h, "")
			r := h.store.AddReading(models.Reading{AccountID: acc.ID, Year: 2026, Month: 1, Zones: std(3)})
			h.mustPress(actions.Enter(actions.DeleteReading, r.ID))
			h.mustPress(keyboard.Confirm)
			if _, err := h.store.Reading(context.Background(), r.ID); !errors.Is(err, models.ErrNotFound) {
				t.Fatalf("reading still there: %v", err)
			}
			if h.session().CurrentMenu != actions.ReadingsMenu(acc.ID) {
				t.Fatalf("current menu = %q", h.session().CurrentMenu)
			}
		}},
		{actions.DeleteTariff, func(t *testing.T, h *harness) {
			acc := seedAccount(h, "")
			tf := h.store.AddTariff(models.Tariff{AccountID: acc.ID, StartDate: jan, Zones: std(2)})
			h.mustPress(actions.Enter(actions.DeleteTariff, tf.ID))
			h.mustPress(keyboard.Confirm)
			if _, err := h.store.Tariff(context.Background(), tf.ID); !errors.Is(err, models.ErrNotFound) {
				t.Fatalf("tariff still there: %v", err)
			}
			if h.session().CurrentMenu != actions.TariffsMenu(acc.ID) {
				t.Fatalf("current menu = %q", h.session().CurrentMenu)
			}
		}},
	}

	covered := make(map[string]bool, len(tests))
	for _, tt := range tests {
		covered[tt.scene] = true
		t.Run(tt.scene, func(t *testing.T) {
			h := newHarness(t)
			tt.run(t, h)
			h.assertIdle()
			if strings.Contains(h.lastText(), "❌") {
				t.Fatalf("ended with a failure: %q", h.lastText())
			}
		})
	}
	for _, s := range scenes.All(scenes.Deps{}) {
		if !covered[s.Name()] {
			t.Errorf("scene %s is not driven to its end", s.Name())
		}
	}
}
