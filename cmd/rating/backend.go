package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/seminar-rating/config"
	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/seminar-rating/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/seminar-rating/internal/infrastructure/persistence/sqlite"
	"github.com/alem-hub/seminar-rating/pkg/retry"
)

// backend - выбранное хранилище: источник баллов, хранилище оценок и состав.
type backend struct {
	driver   string
	source   rating.ScoreSource
	store    rating.RatingStore
	roster   rating.Roster
	migrator *postgres.Migrator

	ping    func(ctx context.Context) error
	closeFn func()
}

// Ping проверяет доступность хранилища.
func (b *backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close освобождает соединения.
func (b *backend) Close() {
	if b.closeFn != nil {
		b.closeFn()
	}
}

// openBackend открывает хранилище согласно cfg.Database.Driver.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warn("storage not ready, retrying",
			"driver", cfg.Database.Driver,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log, onRetry)

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &backend{
			driver:  config.DriverSQLite,
			source:  store,
			store:   store,
			roster:  store,
			ping:    store.Ping,
			closeFn: func() { _ = store.Close() },
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		return &backend{
			driver: config.DriverMemory,
			source: store,
			store:  store,
			roster: store,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openPostgres(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	onRetry func(int, error, time.Duration),
) (*backend, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = cfg.Database.MaxConns
	pgCfg.MinConns = cfg.Database.MinConns
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	var conn *postgres.Connection
	err := retry.DatabaseRetrier(onRetry).Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := postgres.NewMigrator(conn)
	applied, err := migrator.Migrate(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		log.Info("database migrations applied", "count", applied)
	}

	repo := postgres.NewParticipantRepository(conn)
	return &backend{
		driver:   config.DriverPostgres,
		source:   repo,
		store:    repo,
		roster:   repo,
		migrator: migrator,
		ping:     conn.Ping,
		closeFn:  conn.Close,
	}, nil
}
