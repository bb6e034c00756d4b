// Package storagetest provides an in-memory storage.Store for tests.
package storagetest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/storage"
)

// Memory keeps everything in maps. Created rows get random UUIDs.
type Memory struct {
	mu        sync.Mutex
	users     map[int64]models.User
	addresses map[string]models.Address
	links     map[models.UserAddress]bool
	accounts  map[string]models.Account
	readings  map[string]models.Reading
	tariffs   map[string]models.Tariff
	bills     map[string]models.Bill

	// CreatedAccounts records every CreateAccount call in order.
	CreatedAccounts []models.Account
	// Err, when set, is returned by every call.
	Err error
}

var _ storage.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:     make(map[int64]models.User),
		addresses: make(map[string]models.Address),
		links:     make(map[models.UserAddress]bool),
		accounts:  make(map[string]models.Account),
		readings:  make(map[string]models.Reading),
		tariffs:   make(map[string]models.Tariff),
		bills:     make(map[string]models.Bill),
	}
}

// AddAddress seeds an address linked to telegramID.
func (m *Memory) AddAddress(telegramID int64, name string) models.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := models.Address{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	m.addresses[a.ID] = a
	m.links[models.UserAddress{TelegramID: telegramID, AddressID: a.ID}] = true
	return a
}

// AddAccount seeds an account.
func (m *Memory) AddAccount(a models.Account) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.accounts[a.ID] = a
	return a
}

// AddReading seeds a reading.
func (m *Memory) AddReading(r models.Reading) models.Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.readings[r.ID] = r
	return r
}

// AddTariff seeds a tariff.
func (m *Memory) AddTariff(t models.Tariff) models.Tariff {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.tariffs[t.ID] = t
	return t
}

// Bills returns the saved bills.
func (m *Memory) Bills() []models.Bill {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Bill, 0, len(m.bills))
	for _, b := range m.bills {
		out = append(out, b)
	}
	return out
}

func notFound(what, id string) error {
	return fmt.Errorf("storagetest: %s %s: %w", what, id, models.ErrNotFound)
}

func (m *Memory) UpsertUser(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if prev, ok := m.users[u.TelegramID]; ok {
		prev.Username = u.Username
		m.users[u.TelegramID] = prev
		return nil
	}
	if u.Language == "" {
		u.Language = "en"
	}
	u.CreatedAt = time.Now()
	m.users[u.TelegramID] = u
	return nil
}

func (m *Memory) GetUserByTelegramID(_ context.Context, telegramID int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.User{}, m.Err
	}
	u, ok := m.users[telegramID]
	if !ok {
		return models.User{}, notFound("user", fmt.Sprint(telegramID))
	}
	return u, nil
}

func (m *Memory) Stats(context.Context) (models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Stats{}, m.Err
	}
	return models.Stats{
		Users:     len(m.users),
		Addresses: len(m.addresses),
		Accounts:  len(m.accounts),
		Readings:  len(m.readings),
	}, nil
}

func (m *Memory) AddressesFor(_ context.Context, telegramID int64) ([]models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Address
	for link := range m.links {
		if link.TelegramID == telegramID {
			out = append(out, m.addresses[link.AddressID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Address(_ context.Context, id string) (models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Address{}, m.Err
	}
	a, ok := m.addresses[id]
	if !ok {
		return models.Address{}, notFound("address", id)
	}
	return a, nil
}

func (m *Memory) FindOrCreateAddress(_ context.Context, name string) (models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Address{}, m.Err
	}
	for _, a := range m.addresses {
		if a.Name == name {
			return a, nil
		}
	}
	a := models.Address{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	m.addresses[a.ID] = a
	return a, nil
}

func (m *Memory) IsLinked(_ context.Context, telegramID int64, addressID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.links[models.UserAddress{TelegramID: telegramID, AddressID: addressID}], nil
}

func (m *Memory) LinkAddress(_ context.Context, telegramID int64, addressID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	key := models.UserAddress{TelegramID: telegramID, AddressID: addressID}
	if m.links[key] {
		return fmt.Errorf("storagetest: link: %w", models.ErrDuplicate)
	}
	m.links[key] = true
	return nil
}

func (m *Memory) DeleteAddress(_ context.Context, addressID string, telegramID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if !m.links[models.UserAddress{TelegramID: telegramID, AddressID: addressID}] {
		return false, notFound("address", addressID)
	}
	users := 0
	for link := range m.links {
		if link.AddressID == addressID {
			users++
		}
	}
	if users > 1 {
		delete(m.links, models.UserAddress{TelegramID: telegramID, AddressID: addressID})
		return false, nil
	}
	for link := range m.links {
		if link.AddressID == addressID {
			delete(m.links, link)
		}
	}
	delete(m.addresses, addressID)
	for id, a := range m.accounts {
		if a.AddressID == addressID {
			m.deleteAccountLocked(id)
		}
	}
	return true, nil
}

func (m *Memory) AccountsByAddress(_ context.Context, addressID string) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Account
	for _, a := range m.accounts {
		if a.AddressID == addressID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].AccountNumber < out[j].AccountNumber
	})
	return out, nil
}

func (m *Memory) Account(_ context.Context, id string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Account{}, m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, notFound("account", id)
	}
	return a, nil
}

func (m *Memory) CreateAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.CreatedAccounts = append(m.CreatedAccounts, *a)
	for _, existing := range m.accounts {
		if existing.AccountNumber == a.AccountNumber {
			return fmt.Errorf("storagetest: account %s: %w", a.AccountNumber, models.ErrDuplicate)
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	m.accounts[a.ID] = *a
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.accounts[id]; !ok {
		return notFound("account", id)
	}
	m.deleteAccountLocked(id)
	return nil
}

func (m *Memory) deleteAccountLocked(id string) {
	delete(m.accounts, id)
	for rid, r := range m.readings {
		if r.AccountID == id {
			delete(m.readings, rid)
		}
	}
	for tid, t := range m.tariffs {
		if t.AccountID == id {
			delete(m.tariffs, tid)
		}
	}
	for bid, b := range m.bills {
		if b.AccountID == id {
			delete(m.bills, bid)
		}
	}
}

func (m *Memory) ReadingsByYear(_ context.Context, accountID string, year int) ([]models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Reading
	for _, r := range m.readings {
		if r.AccountID == accountID && r.Year == year {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

func (m *Memory) LatestReadingYear(_ context.Context, accountID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, false, m.Err
	}
	year, ok := 0, false
	for _, r := range m.readings {
		if r.AccountID == accountID && (!ok || r.Year > year) {
			year, ok = r.Year, true
		}
	}
	return year, ok, nil
}

func (m *Memory) Reading(_ context.Context, id string) (models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Reading{}, m.Err
	}
	r, ok := m.readings[id]
	if !ok {
		return models.Reading{}, notFound("reading", id)
	}
	return r, nil
}

func (m *Memory) ReadingFor(_ context.Context, accountID string, year, month int) (models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Reading{}, m.Err
	}
	for _, r := range m.readings {
		if r.AccountID == accountID && r.Year == year && r.Month == month {
			return r, nil
		}
	}
	return models.Reading{}, notFound("reading", fmt.Sprintf("%s/%d-%02d", accountID, year, month))
}

func (m *Memory) CreateReading(_ context.Context, r *models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.readings {
		if existing.AccountID == r.AccountID && existing.Year == r.Year && existing.Month == r.Month {
			return fmt.Errorf("storagetest: reading: %w", models.ErrDuplicate)
		}
	}
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	r.Zones = slices.Clone(r.Zones)
	m.readings[r.ID] = *r
	return nil
}

func (m *Memory) DeleteReading(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.readings[id]; !ok {
		return notFound("reading", id)
	}
	delete(m.readings, id)
	return nil
}

func (m *Memory) TariffsByAccount(_ context.Context, accountID string) ([]models.Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Tariff
	for _, t := range m.tariffs {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *Memory) Tariff(_ context.Context, id string) (models.Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Tariff{}, m.Err
	}
	t, ok := m.tariffs[id]
	if !ok {
		return models.Tariff{}, notFound("tariff", id)
	}
	return t, nil
}

func (m *Memory) TariffAt(_ context.Context, accountID string, at time.Time) (models.Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Tariff{}, m.Err
	}
	var best models.Tariff
	found := false
	for _, t := range m.tariffs {
		if t.AccountID != accountID || t.StartDate.After(at) {
			continue
		}
		if !found || t.StartDate.After(best.StartDate) {
			best, found = t, true
		}
	}
	if !found {
		return models.Tariff{}, notFound("tariff", accountID+"@"+at.Format(time.DateOnly))
	}
	return best, nil
}

func (m *Memory) CreateTariff(_ context.Context, t *models.Tariff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.Zones = slices.Clone(t.Zones)
	m.tariffs[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTariff(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.tariffs[id]; !ok {
		return notFound("tariff", id)
	}
	delete(m.tariffs, id)
	return nil
}

func (m *Memory) SaveBill(_ context.Context, b *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	key := strings.Join([]string{b.AccountID, fmt.Sprint(b.Year), fmt.Sprint(b.Month)}, "/")
	if prev, ok := m.bills[key]; ok {
		b.ID = prev.ID
	} else if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now()
	m.bills[key] = *b
	return nil
}
