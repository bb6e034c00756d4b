package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/utilbot/core/logger"
)

// Direction selects which way RunMigrations moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// RunMigrations applies all up migrations from cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	return Migrate(cfg, Up)
}

// Migrate moves the schema fully up, or one step down.
func Migrate(cfg Config, dir Direction) error {
	ctx := context.Background()
	if err := WaitForPostgres(cfg.DSN(), 30*time.Second); err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate", slog.Any("err", err))
		return err
	}

	path, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("database: resolve migrations dir: %w", err)
	}
	files := upFiles(path)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "resolve",
		slog.String("path", path),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	m, err := migrate.New("file://"+path, cfg.URL())
	if err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate", slog.Any("err", err))
		return fmt.Errorf("database: init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	switch dir {
	case Down:
		err = m.Steps(-1)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "apply",
			slog.String("mode", string(dir)),
			slog.Duration("duration", logger.Took(start)),
			slog.Any("err", err),
		)
		return fmt.Errorf("database: migrate %s: %w", dir, err)
	}
	to, _, _ := m.Version()

	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
		slog.String("mode", string(dir)),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", countBetween(files, uint64(from), uint64(to))),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func upFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func fileVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

// countBetween counts files whose version lies in (lo, hi], in either direction.
func countBetween(files []string, a, b uint64) int {
	lo, hi := min(a, b), max(a, b)
	n := 0
	for _, f := range files {
		if v := fileVersion(f); v > lo && v <= hi {
			n++
		}
	}
	return n
}
