package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/app/storage"
	"github.com/m3rciful/utilbot/core/bootstrap"
)

// postgresStore builds the production store on the bootstrapped connection.
var postgresStore bootstrap.ServiceProvider[storage.Store] = bootstrap.ServiceProviderFunc[storage.Store](
	func(_ context.Context, db *sqlx.DB) (storage.Store, error) {
		return storage.NewPostgres(db), nil
	},
)

// Bootstrap brings up logging and the database, then builds the app.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Seeders:  []bootstrap.Seeder{adminSeeder(cfg.Telegram.AdminID)},
	})
	if err != nil {
		return nil, err
	}
	store, err := postgresStore.Provide(ctx, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: build store: %w", err)
	}
	a, err := New(cfg, store, WithCloser(res.DB))
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

// adminSeeder makes sure the configured admin has a user row.
func adminSeeder(adminID int64) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if adminID == 0 {
			return nil
		}
		return seedAdmin(ctx, storage.NewPostgres(db), adminID)
	})
}

func seedAdmin(ctx context.Context, users storage.Users, adminID int64) error {
	_, err := users.GetUserByTelegramID(ctx, adminID)
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return users.UpsertUser(ctx, models.User{TelegramID: adminID})
}
