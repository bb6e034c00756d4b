package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/logger"
)

// Postgres implements Store on top of sqlx. Child rows go away through
// ON DELETE CASCADE.
type Postgres struct {
	db *sqlx.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// observe logs slow or failed queries.
func observe(ctx context.Context, op string, start time.Time, err error) {
	took := logger.Took(start)
	switch {
	case err != nil && !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrDuplicate):
		logger.LogEvent(ctx, logger.Store, slog.LevelError, "db.query",
			slog.String("op", op),
			slog.Duration("duration", took),
			slog.Any("err", err),
		)
	case took > 200*time.Millisecond:
		logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "db.query",
			slog.String("op", op),
			slog.String("status", "slow"),
			slog.Duration("duration", took),
		)
	}
}

func (p *Postgres) get(ctx context.Context, op string, dest any, query string, args ...any) error {
	start := time.Now()
	err := mapErr(p.db.GetContext(ctx, dest, query, args...))
	observe(ctx, op, start, err)
	if err != nil {
		return fmt.Errorf("storage: %s: %w", op, err)
	}
	return nil
}

func (p *Postgres) sel(ctx context.Context, op string, dest any, query string, args ...any) error {
	start := time.Now()
	err := mapErr(p.db.SelectContext(ctx, dest, query, args...))
	observe(ctx, op, start, err)
	if err != nil {
		return fmt.Errorf("storage: %s: %w", op, err)
	}
	return nil
}

func (p *Postgres) exec(ctx context.Context, op string, query string, args ...any) error {
	start := time.Now()
	_, err := p.db.ExecContext(ctx, query, args...)
	err = mapErr(err)
	observe(ctx, op, start, err)
	if err != nil {
		return fmt.Errorf("storage: %s: %w", op, err)
	}
	return nil
}

// execOne is exec that reports models.ErrNotFound when no row changed.
func (p *Postgres) execOne(ctx context.Context, op string, query string, args ...any) error {
	start := time.Now()
	res, err := p.db.ExecContext(ctx, query, args...)
	err = mapErr(err)
	if err == nil {
		if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
			err = models.ErrNotFound
		}
	}
	observe(ctx, op, start, err)
	if err != nil {
		return fmt.Errorf("storage: %s: %w", op, err)
	}
	return nil
}

func (p *Postgres) UpsertUser(ctx context.Context, u models.User) error {
	if u.Language == "" {
		u.Language = "en"
	}
	return p.exec(ctx, "upsert_user", `
		INSERT INTO users (telegram_id, username, language)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username`,
		u.TelegramID, u.Username, u.Language)
}

func (p *Postgres) GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	var u models.User
	err := p.get(ctx, "get_user", &u, `SELECT * FROM users WHERE telegram_id = $1`, telegramID)
	return u, err
}

func (p *Postgres) Stats(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	err := p.get(ctx, "stats", &s, `
		SELECT
			(SELECT count(*) FROM users)     AS users,
			(SELECT count(*) FROM addresses) AS addresses,
			(SELECT count(*) FROM accounts)  AS accounts,
			(SELECT count(*) FROM readings)  AS readings`)
	return s, err
}

func (p *Postgres) AddressesFor(ctx context.Context, telegramID int64) ([]models.Address, error) {
	var out []models.Address
	err := p.sel(ctx, "list_addresses", &out, `
		SELECT a.* FROM addresses a
		JOIN user_addresses ua ON ua.address_id = a.id
		WHERE ua.telegram_id = $1
		ORDER BY a.name`, telegramID)
	return out, err
}

func (p *Postgres) Address(ctx context.Context, id string) (models.Address, error) {
	var a models.Address
	err := p.get(ctx, "get_address", &a, `SELECT * FROM addresses WHERE id = $1`, id)
	return a, err
}

func (p *Postgres) FindOrCreateAddress(ctx context.Context, name string) (models.Address, error) {
	create := func() (models.Address, error) {
		var a models.Address
		err := p.get(ctx, "find_or_create_address", &a, `
			WITH ins AS (
				INSERT INTO addresses (id, name) VALUES ($1, $2)
				ON CONFLICT (name) DO NOTHING
				RETURNING *
			)
			SELECT * FROM ins
			UNION ALL
			SELECT * FROM addresses WHERE name = $2
			LIMIT 1`, uuid.NewString(), name)
		return a, err
	}
	find := func() (models.Address, error) {
		var a models.Address
		err := p.get(ctx, "find_address", &a, `SELECT * FROM addresses WHERE name = $1`, name)
		return a, err
	}
	return findOrCreate(create, find)
}

// findOrCreate runs create and falls back to one find when create saw no row.
// Under READ COMMITTED an insert that loses ON CONFLICT to a concurrent
// transaction returns nothing, and the statement snapshot predates that
// transaction's row.
func findOrCreate[T any](create, find func() (T, error)) (T, error) {
	v, err := create()
	if errors.Is(err, models.ErrNotFound) {
		return find()
	}
	return v, err
}

func (p *Postgres) IsLinked(ctx context.Context, telegramID int64, addressID string) (bool, error) {
	var ok bool
	err := p.get(ctx, "is_linked", &ok, `
		SELECT EXISTS (
			SELECT 1 FROM user_addresses WHERE telegram_id = $1 AND address_id = $2
		)`, telegramID, addressID)
	return ok, err
}

func (p *Postgres) LinkAddress(ctx context.Context, telegramID int64, addressID string) error {
	return p.exec(ctx, "link_address",
		`INSERT INTO user_addresses (telegram_id, address_id) VALUES ($1, $2)`,
		telegramID, addressID)
}

func (p *Postgres) DeleteAddress(ctx context.Context, addressID string, telegramID int64) (bool, error) {
	start := time.Now()
	deletedAll, err := p.deleteAddressTx(ctx, addressID, telegramID)
	err = mapErr(err)
	observe(ctx, "delete_address", start, err)
	if err != nil {
		return false, fmt.Errorf("storage: delete_address: %w", err)
	}
	return deletedAll, nil
}

func (p *Postgres) deleteAddressTx(ctx context.Context, addressID string, telegramID int64) (bool, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var linked bool
	if err := tx.GetContext(ctx, &linked, `
		SELECT EXISTS (
			SELECT 1 FROM user_addresses WHERE telegram_id = $1 AND address_id = $2
		)`, telegramID, addressID); err != nil {
		return false, err
	}
	if !linked {
		return false, models.ErrNotFound
	}
	var users int
	if err := tx.GetContext(ctx, &users,
		`SELECT count(*) FROM user_addresses WHERE address_id = $1`, addressID); err != nil {
		return false, err
	}
	deletedAll := users == 1
	if deletedAll {
		_, err = tx.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, addressID)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM user_addresses WHERE telegram_id = $1 AND address_id = $2`, telegramID, addressID)
	}
	if err != nil {
		return false, err
	}
	return deletedAll, tx.Commit()
}

func (p *Postgres) AccountsByAddress(ctx context.Context, addressID string) ([]models.Account, error) {
	var out []models.Account
	err := p.sel(ctx, "list_accounts", &out,
		`SELECT * FROM accounts WHERE address_id = $1 ORDER BY resource, account_number`, addressID)
	return out, err
}

func (p *Postgres) Account(ctx context.Context, id string) (models.Account, error) {
	var a models.Account
	err := p.get(ctx, "get_account", &a, `SELECT * FROM accounts WHERE id = $1`, id)
	return a, err
}

func (p *Postgres) CreateAccount(ctx context.Context, a *models.Account) error {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO accounts (id, account_number, resource, meter_type, address_id, created_at)
		VALUES (:id, :account_number, :resource, :meter_type, :address_id, :created_at)`, a)
	if err = mapErr(err); err != nil {
		return fmt.Errorf("storage: create_account: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteAccount(ctx context.Context, id string) error {
	return p.execOne(ctx, "delete_account", `DELETE FROM accounts WHERE id = $1`, id)
}

func (p *Postgres) ReadingsByYear(ctx context.Context, accountID string, year int) ([]models.Reading, error) {
	var out []models.Reading
	err := p.sel(ctx, "list_readings", &out,
		`SELECT * FROM readings WHERE account_id = $1 AND year = $2 ORDER BY month DESC`, accountID, year)
	return out, err
}

func (p *Postgres) LatestReadingYear(ctx context.Context, accountID string) (int, bool, error) {
	var year sql.NullInt64
	if err := p.get(ctx, "latest_reading_year", &year,
		`SELECT max(year) FROM readings WHERE account_id = $1`, accountID); err != nil {
		return 0, false, err
	}
	if !year.Valid {
		return 0, false, nil
	}
	return int(year.Int64), true, nil
}

func (p *Postgres) Reading(ctx context.Context, id string) (models.Reading, error) {
	var r models.Reading
	err := p.get(ctx, "get_reading", &r, `SELECT * FROM readings WHERE id = $1`, id)
	return r, err
}

func (p *Postgres) ReadingFor(ctx context.Context, accountID string, year, month int) (models.Reading, error) {
	var r models.Reading
	err := p.get(ctx, "get_reading_for", &r,
		`SELECT * FROM readings WHERE account_id = $1 AND year = $2 AND month = $3`, accountID, year, month)
	return r, err
}

func (p *Postgres) CreateReading(ctx context.Context, r *models.Reading) error {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO readings (id, account_id, year, month, zones, created_at)
		VALUES (:id, :account_id, :year, :month, :zones, :created_at)`, r)
	if err = mapErr(err); err != nil {
		return fmt.Errorf("storage: create_reading: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteReading(ctx context.Context, id string) error {
	return p.execOne(ctx, "delete_reading", `DELETE FROM readings WHERE id = $1`, id)
}

func (p *Postgres) TariffsByAccount(ctx context.Context, accountID string) ([]models.Tariff, error) {
	var out []models.Tariff
	err := p.sel(ctx, "list_tariffs", &out,
		`SELECT * FROM tariffs WHERE account_id = $1 ORDER BY start_date DESC`, accountID)
	return out, err
}

func (p *Postgres) Tariff(ctx context.Context, id string) (models.Tariff, error) {
	var t models.Tariff
	err := p.get(ctx, "get_tariff", &t, `SELECT * FROM tariffs WHERE id = $1`, id)
	return t, err
}

func (p *Postgres) TariffAt(ctx context.Context, accountID string, at time.Time) (models.Tariff, error) {
	var t models.Tariff
	err := p.get(ctx, "tariff_at", &t, `
		SELECT * FROM tariffs
		WHERE account_id = $1 AND start_date <= $2
		ORDER BY start_date DESC
		LIMIT 1`, accountID, at)
	return t, err
}

func (p *Postgres) CreateTariff(ctx context.Context, t *models.Tariff) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO tariffs (id, account_id, zones, start_date, end_date, created_at)
		VALUES (:id, :account_id, :zones, :start_date, :end_date, :created_at)`, t)
	if err = mapErr(err); err != nil {
		return fmt.Errorf("storage: create_tariff: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteTariff(ctx context.Context, id string) error {
	return p.execOne(ctx, "delete_tariff", `DELETE FROM tariffs WHERE id = $1`, id)
}

func (p *Postgres) SaveBill(ctx context.Context, b *models.Bill) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO bills (id, account_id, year, month, total_cost, created_at)
		VALUES (:id, :account_id, :year, :month, :total_cost, :created_at)
		ON CONFLICT (account_id, year, month)
		DO UPDATE SET total_cost = EXCLUDED.total_cost, created_at = EXCLUDED.created_at`, b)
	if err = mapErr(err); err != nil {
		return fmt.Errorf("storage: save_bill: %w", err)
	}
	return nil
}
