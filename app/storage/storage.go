// Package storage persists users, addresses, accounts, readings, tariffs and
// bills. Store is implemented by Postgres and, for tests, storagetest.Memory.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/m3rciful/utilbot/app/models"
)

type Users interface {
	UpsertUser(ctx context.Context, u models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	Stats(ctx context.Context) (models.Stats, error)
}

type Addresses interface {
	AddressesFor(ctx context.Context, telegramID int64) ([]models.Address, error)
	Address(ctx context.Context, id string) (models.Address, error)
	// FindOrCreateAddress returns the address called name, creating it when missing.
	FindOrCreateAddress(ctx context.Context, name string) (models.Address, error)
	IsLinked(ctx context.Context, telegramID int64, addressID string) (bool, error)
	// LinkAddress fails with models.ErrDuplicate when the link exists.
	LinkAddress(ctx context.Context, telegramID int64, addressID string) error
	// DeleteAddress removes the address with everything under it when telegramID
	// is its only user, and otherwise only unlinks telegramID. deletedAll
	// reports which happened. A telegramID not linked to the address gets
	// models.ErrNotFound.
	DeleteAddress(ctx context.Context, addressID string, telegramID int64) (deletedAll bool, err error)
}

type Accounts interface {
	AccountsByAddress(ctx context.Context, addressID string) ([]models.Account, error)
	Account(ctx context.Context, id string) (models.Account, error)
	// CreateAccount assigns the id. A taken number is models.ErrDuplicate.
	CreateAccount(ctx context.Context, a *models.Account) error
	// DeleteAccount removes the account with its readings, tariffs and bills.
	DeleteAccount(ctx context.Context, id string) error
}

type Readings interface {
	ReadingsByYear(ctx context.Context, accountID string, year int) ([]models.Reading, error)
	// LatestReadingYear returns the most recent year with readings.
	LatestReadingYear(ctx context.Context, accountID string) (year int, ok bool, err error)
	Reading(ctx context.Context, id string) (models.Reading, error)
	ReadingFor(ctx context.Context, accountID string, year, month int) (models.Reading, error)
	// CreateReading assigns the id. A second reading for the month is models.ErrDuplicate.
	CreateReading(ctx context.Context, r *models.Reading) error
	DeleteReading(ctx context.Context, id string) error
}

type Tariffs interface {
	TariffsByAccount(ctx context.Context, accountID string) ([]models.Tariff, error)
	Tariff(ctx context.Context, id string) (models.Tariff, error)
	// TariffAt returns the latest tariff starting on or before at.
	TariffAt(ctx context.Context, accountID string, at time.Time) (models.Tariff, error)
	CreateTariff(ctx context.Context, t *models.Tariff) error
	DeleteTariff(ctx context.Context, id string) error
}

type Bills interface {
	// SaveBill stores the bill for its month, replacing an earlier one.
	SaveBill(ctx context.Context, b *models.Bill) error
}

// Store is everything the bot persists.
type Store interface {
	Users
	Addresses
	Accounts
	Readings
	Tariffs
	Bills
}

const uniqueViolation = "23505"

// mapErr converts driver errors into model sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return models.ErrDuplicate
	}
	return err
}
