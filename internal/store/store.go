// Package store provides focused, single-concern data access stores
// for the family graph in PostgreSQL.
//
// Each store owns one table (people, trees, posts, a tag join table, owners,
// sync failures) and embeds shared helpers (Pool, logger) via the Base
// struct. Stores never import each other; shared logic lives in this file.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/dbpool"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// PostgreSQL error codes mapped to model errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgRLSViolation        = "42501"
)

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// setOwner sets the owner context for RLS policies within a transaction.
func setOwner(ctx context.Context, tx pgx.Tx, ownerID string) error {
	if _, err := uuid.Parse(ownerID); err != nil {
		return fmt.Errorf("invalid owner ID format: %w", err)
	}

	_, err := tx.Exec(ctx, "SELECT set_config('app.owner_id', $1, true)", ownerID)
	if err != nil {
		return fmt.Errorf("setting owner context: %w", err)
	}

	return nil
}

// beginTx starts a read-write transaction and sets the owner context.
func (b *Base) beginTx(ctx context.Context, ownerID string) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if err := setOwner(ctx, tx, ownerID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction and sets the owner context.
func (b *Base) beginReadTx(ctx context.Context, ownerID string) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	if err := setOwner(ctx, tx, ownerID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// mapError translates constraint violations into model errors. notFound is
// used for foreign key violations, which only occur when a referenced row is
// missing.
func mapError(err error, notFound error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", models.ErrDuplicateKey, pgErr.ConstraintName)
	case pgCheckViolation:
		if pgErr.ConstraintName == "trees_home_is_member" {
			return models.ErrHomeNotMember
		}
		return fmt.Errorf("check %s: %w", pgErr.ConstraintName, err)
	case pgRLSViolation:
		return errOwnedElsewhere
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", notFound, pgErr.Detail)
	}

	return err
}

// nullTime returns nil for the zero time so the column default applies.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
