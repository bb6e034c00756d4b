package storage

import (
	"context"
	"fmt"

	"github.com/m3rciful/utilbot/app/models"
)

// A user reaches an entity only through an address they are linked to. The
// helpers below load an entity for telegramID and report models.ErrNotFound
// both for missing rows and for rows under someone else's address.

// LinkedAddress returns the address when telegramID is linked to it.
func LinkedAddress(ctx context.Context, s Store, telegramID int64, addressID string) (models.Address, error) {
	ok, err := s.IsLinked(ctx, telegramID, addressID)
	if err != nil {
		return models.Address{}, err
	}
	if !ok {
		return models.Address{}, fmt.Errorf("storage: address %s: %w", addressID, models.ErrNotFound)
	}
	return s.Address(ctx, addressID)
}

// OwnedAccount returns the account when telegramID is linked to its address.
func OwnedAccount(ctx context.Context, s Store, telegramID int64, accountID string) (models.Account, error) {
	acc, err := s.Account(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}
	if _, err := LinkedAddress(ctx, s, telegramID, acc.AddressID); err != nil {
		return models.Account{}, err
	}
	return acc, nil
}

// OwnedReading returns the reading when telegramID owns its account.
func OwnedReading(ctx context.Context, s Store, telegramID int64, readingID string) (models.Reading, error) {
	r, err := s.Reading(ctx, readingID)
	if err != nil {
		return models.Reading{}, err
	}
	if _, err := OwnedAccount(ctx, s, telegramID, r.AccountID); err != nil {
		return models.Reading{}, err
	}
	return r, nil
}

// OwnedTariff returns the tariff when telegramID owns its account.
func OwnedTariff(ctx context.Context, s Store, telegramID int64, tariffID string) (models.Tariff, error) {
	t, err := s.Tariff(ctx, tariffID)
	if err != nil {
		return models.Tariff{}, err
	}
	if _, err := OwnedAccount(ctx, s, telegramID, t.AccountID); err != nil {
		return models.Tariff{}, err
	}
	return t, nil
}
