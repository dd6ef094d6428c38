// Package store implements the durable, partitioned document store (C1):
// Sessions, Plans, Steps, and Agent Messages, backed by PostgreSQL through
// pgx, with schema managed by golang-migrate against embedded SQL files —
// the same operational shape as the teacher's pkg/database package, minus
// the Ent ORM layer (see DESIGN.md for why Ent could not be reproduced).
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// Store wraps a pgx connection pool and implements the §4.1 Store contract.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, runs pending migrations, and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open pool: %v", ErrTransport, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrTransport, err)
	}

	if err := runMigrations(cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

// NewFromPool wraps an existing pool directly — used by integration tests
// that already hold a testcontainers-backed pool.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// runMigrations applies embedded SQL migrations via golang-migrate, using
// the database/sql pgx stdlib driver purely for migration bookkeeping (the
// pool itself is pgxpool-native).
func runMigrations(cfg Config) error {
	db := stdlib.OpenDB(*mustParseConfig(cfg))
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, cfg.Database, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// withRetry retries a Store operation with bounded exponential backoff on
// ErrTransport, per §7's TransportRetryable policy.
func withRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransport) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
}
