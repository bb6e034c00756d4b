// Package models holds the billing entities persisted by app/storage.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Resource is the utility an account meters.
type Resource string

const (
	Electricity Resource = "electricity"
	Water       Resource = "water"
	Gas         Resource = "gas"
)

// Resources lists every resource in picker order.
var Resources = []Resource{Electricity, Water, Gas}

// Valid reports whether r is a known resource.
func (r Resource) Valid() bool {
	switch r {
	case Electricity, Water, Gas:
		return true
	}
	return false
}

func (r Resource) Emoji() string {
	switch r {
	case Electricity:
		return "⚡️"
	case Water:
		return "💧"
	case Gas:
		return "🔥"
	}
	return ""
}

func (r Resource) Label() string {
	switch r {
	case Electricity:
		return "Electricity"
	case Water:
		return "Water"
	case Gas:
		return "Gas"
	}
	return string(r)
}

// Unit is the consumption unit shown next to totals.
func (r Resource) Unit() string {
	if r == Electricity {
		return "kWh"
	}
	return "m³"
}

// MeterType decides how many zones a meter reports.
type MeterType string

const (
	Single    MeterType = "single"
	DayNight  MeterType = "day-night"
	MultiZone MeterType = "multi-zone"
)

// MeterTypes lists meter types in picker order.
var MeterTypes = []MeterType{Single, DayNight, MultiZone}

func (m MeterType) Valid() bool {
	switch m {
	case Single, DayNight, MultiZone:
		return true
	}
	return false
}

func (m MeterType) Label() string {
	switch m {
	case DayNight:
		return "Day / night"
	case MultiZone:
		return "Multi-zone"
	}
	return "Single-rate"
}

// Zone names.
const (
	ZoneStandard = "standard"
	ZoneDay      = "day"
	ZoneNight    = "night"
	ZonePeak     = "peak"
	ZoneHalfPeak = "half-peak"
)

// ZonesFor returns the zone names of m. Unknown or empty types count as single.
func ZonesFor(m MeterType) []string {
	switch m {
	case DayNight:
		return []string{ZoneDay, ZoneNight}
	case MultiZone:
		return []string{ZonePeak, ZoneHalfPeak, ZoneNight}
	}
	return []string{ZoneStandard}
}

// Zone is one named value: a meter reading or a price, depending on the owner.
type Zone struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Zones is stored as a JSONB array.
type Zones []Zone

// Get returns the value of the zone called name.
func (z Zones) Get(name string) (float64, bool) {
	for _, zone := range z {
		if zone.Name == name {
			return zone.Value, true
		}
	}
	return 0, false
}

func (z Zones) Value() (driver.Value, error) {
	if z == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(z)
}

func (z *Zones) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*z = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Zones", src)
	}
	return json.Unmarshal(raw, z)
}

type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	Language   string    `db:"language"`
	CreatedAt  time.Time `db:"created_at"`
}

type Address struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// UserAddress links a Telegram user to an address; addresses may be shared.
type UserAddress struct {
	TelegramID int64  `db:"telegram_id"`
	AddressID  string `db:"address_id"`
}

type Account struct {
	ID            string    `db:"id"`
	AccountNumber string    `db:"account_number"`
	Resource      Resource  `db:"resource"`
	MeterType     *string   `db:"meter_type"`
	AddressID     string    `db:"address_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Meter returns the account's meter type, single when unset.
func (a Account) Meter() MeterType {
	if a.MeterType == nil || !MeterType(*a.MeterType).Valid() {
		return Single
	}
	return MeterType(*a.MeterType)
}

// Title is the account heading used by menus and bills.
func (a Account) Title() string {
	return fmt.Sprintf("%s Account №%s", a.Resource.Emoji(), a.AccountNumber)
}

// Tariff prices each zone from StartDate onwards. Zone values are prices.
type Tariff struct {
	ID        string     `db:"id"`
	AccountID string     `db:"account_id"`
	Zones     Zones      `db:"zones"`
	StartDate time.Time  `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	CreatedAt time.Time  `db:"created_at"`
}

// Reading is the meter state for one month. Zone values are cumulative.
type Reading struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Year      int       `db:"year"`
	Month     int       `db:"month"`
	Zones     Zones     `db:"zones"`
	CreatedAt time.Time `db:"created_at"`
}

// Date is the first day of the reading's month.
func (r Reading) Date() time.Time {
	return time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
}

type Bill struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	Year      int       `db:"year"`
	Month     int       `db:"month"`
	TotalCost float64   `db:"total_cost"`
	CreatedAt time.Time `db:"created_at"`
}

// Stats are the counters behind /stats.
type Stats struct {
	Users     int `db:"users"`
	Addresses int `db:"addresses"`
	Accounts  int `db:"accounts"`
	Readings  int `db:"readings"`
}

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("already exists")
)
