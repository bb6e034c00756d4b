package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/m3rciful/utilbot/core/config"
	coredatabase "github.com/m3rciful/utilbot/core/database"
)

// lazyDB never dials: sql.Open only validates the driver name.
func lazyDB(t *testing.T) func(coredatabase.Config) (*sqlx.DB, error) {
	return func(coredatabase.Config) (*sqlx.DB, error) {
		db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 dbname=none sslmode=disable")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		return db, nil
	}
}

func noLogger(*coreconfig.Config) error { return nil }

func TestRunSeedsInOrder(t *testing.T) {
	var order []int
	seed := func(n int) Seeder {
		return SeederFunc(func(context.Context, *sqlx.DB) error {
			order = append(order, n)
			return nil
		})
	}
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect:    lazyDB(t),
		Migrate:    func(coredatabase.Config) error { return nil },
		Seeders:    []Seeder{seed(1), seed(2)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.DB.Close()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v", order)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	seeded := false
	seeder := SeederFunc(func(context.Context, *sqlx.DB) error {
		seeded = true
		return nil
	})

	cases := []struct {
		name string
		opts Options
	}{
		{"nil config", Options{}},
		{"logger", Options{Config: &coreconfig.Config{}, LoggerInit: func(*coreconfig.Config) error { return boom }}},
		{"connect", Options{Config: &coreconfig.Config{}, LoggerInit: noLogger,
			Connect: func(coredatabase.Config) (*sqlx.DB, error) { return nil, boom }}},
		{"migrate", Options{Config: &coreconfig.Config{}, LoggerInit: noLogger, Connect: lazyDB(t),
			Migrate: func(coredatabase.Config) error { return boom }, Seeders: []Seeder{seeder}}},
		{"seeder", Options{Config: &coreconfig.Config{}, LoggerInit: noLogger, Connect: lazyDB(t),
			Migrate: func(coredatabase.Config) error { return nil },
			Seeders: []Seeder{SeederFunc(func(context.Context, *sqlx.DB) error { return boom })}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Run(context.Background(), tc.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if seeded {
		t.Fatal("seeder ran after a failed migration")
	}
}

func TestServiceProviderFunc(t *testing.T) {
	var p ServiceProvider[string] = ServiceProviderFunc[string](func(context.Context, *sqlx.DB) (string, error) {
		return "store", nil
	})
	got, err := p.Provide(context.Background(), nil)
	if err != nil || got != "store" {
		t.Fatalf("provide = %q, %v", got, err)
	}
}
