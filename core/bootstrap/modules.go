package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Seeder loads reference data once the schema is up to date.
type Seeder interface {
	Seed(ctx context.Context, db *sqlx.DB) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, db *sqlx.DB) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) error {
	return f(ctx, db)
}

// ServiceProvider builds an application service on top of the database.
type ServiceProvider[T any] interface {
	Provide(ctx context.Context, db *sqlx.DB) (T, error)
}

// ServiceProviderFunc adapts a function to ServiceProvider.
type ServiceProviderFunc[T any] func(ctx context.Context, db *sqlx.DB) (T, error)

// Provide executes the underlying function.
func (f ServiceProviderFunc[T]) Provide(ctx context.Context, db *sqlx.DB) (T, error) {
	return f(ctx, db)
}
