package store

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// maxBulkBatchSize limits the number of rows per INSERT statement to stay
// well inside PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// assignment is one column set by a partial update.
type assignment struct {
	column string
	value  any
}

// tableSpec describes how one entity maps onto its table.
type tableSpec[T any] struct {
	name string
	// columns are written by Create and BulkUpsert, in values order.
	columns []string
	// selectColumns are read back, in scan order.
	selectColumns string
	// keep lists columns a bulk upsert must not overwrite.
	keep     []string
	orderBy  string
	notFound error
	// touch is appended to every UPDATE and upsert SET list.
	touch string

	values  func(ownerID string, item *T) ([]any, error)
	scan    func(scan func(dest ...any) error) (*T, error)
	setters func(fields map[string]any) ([]assignment, error)
}

// table implements domain.Collection for one entity on top of a tableSpec.
type table[T any] struct {
	Base
	spec tableSpec[T]
}

func (t *table[T]) placeholder(column string, n int) string {
	p := "$" + strconv.Itoa(n)
	if column == "created_at" {
		return "COALESCE(" + p + "::timestamptz, NOW())"
	}
	return p
}

func (t *table[T]) valuesClause(rows int, startArg int) string {
	parts := make([]string, 0, rows)
	n := startArg
	for range rows {
		ph := make([]string, 0, len(t.spec.columns))
		for _, col := range t.spec.columns {
			ph = append(ph, t.placeholder(col, n))
			n++
		}
		parts = append(parts, "("+strings.Join(ph, ", ")+")")
	}
	return strings.Join(parts, ", ")
}

// Create inserts item and returns the stored row.
func (t *table[T]) Create(ctx context.Context, ownerID string, item T) (*T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	args, err := t.spec.values(ownerID, &item)
	if err != nil {
		return nil, fmt.Errorf("preparing %s row: %w", t.spec.name, err)
	}

	tx, err := t.beginTx(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("creating %s row: %w", t.spec.name, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `INSERT INTO ` + t.spec.name + ` (` + strings.Join(t.spec.columns, ", ") + `)
		VALUES ` + t.valuesClause(1, 1) + `
		RETURNING ` + t.spec.selectColumns

	out, err := t.spec.scan(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		return nil, mapError(fmt.Errorf("inserting %s row: %w", t.spec.name, err), t.spec.notFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing %s create: %w", t.spec.name, err)
	}

	return out, nil
}

// BulkUpsert inserts or replaces items by id in a single transaction using
// multi-row INSERT ... ON CONFLICT.
func (t *table[T]) BulkUpsert(ctx context.Context, ownerID string, items []T) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Build every row's arguments before opening the transaction to minimize lock time.
	rowArgs := make([][]any, len(items))
	for i := range items {
		args, err := t.spec.values(ownerID, &items[i])
		if err != nil {
			return nil, fmt.Errorf("preparing %s row %d: %w", t.spec.name, i, err)
		}
		rowArgs[i] = args
	}

	tx, err := t.beginTx(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("bulk upsert %s: %w", t.spec.name, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var sets []string
	for _, col := range t.spec.columns {
		if col == "id" || col == "owner_id" || slices.Contains(t.spec.keep, col) {
			continue
		}
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	if t.spec.touch != "" {
		sets = append(sets, t.spec.touch)
	}

	out := make([]T, 0, len(items))

	// Process in batches to stay within parameter limits.
	for i := 0; i < len(items); i += maxBulkBatchSize {
		end := min(i+maxBulkBatchSize, len(items))

		args := make([]any, 0, (end-i)*len(t.spec.columns))
		for _, ra := range rowArgs[i:end] {
			args = append(args, ra...)
		}

		query := `INSERT INTO ` + t.spec.name + ` (` + strings.Join(t.spec.columns, ", ") + `)
			VALUES ` + t.valuesClause(end-i, 1) + `
			ON CONFLICT (id) DO UPDATE
			SET ` + strings.Join(sets, ", ") + `
			WHERE ` + t.spec.name + `.owner_id = EXCLUDED.owner_id
			RETURNING ` + t.spec.selectColumns

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return nil, mapError(fmt.Errorf("bulk upserting %s batch: %w", t.spec.name, err), t.spec.notFound)
		}

		batch, err := t.collect(rows)
		if err != nil {
			return nil, mapError(fmt.Errorf("bulk upserting %s batch: %w", t.spec.name, err), t.spec.notFound)
		}

		// A row owned by someone else is skipped by the WHERE clause.
		if len(batch) != end-i {
			return nil, fmt.Errorf("bulk upserting %s: %d of %d rows written: %w",
				t.spec.name, len(batch), end-i, errOwnedElsewhere)
		}

		out = append(out, batch...)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing %s bulk upsert: %w", t.spec.name, err)
	}

	return out, nil
}

// List returns every row of the owner in the table's order.
func (t *table[T]) List(ctx context.Context, ownerID string) ([]T, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := t.beginReadTx(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.spec.name, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx.

	query := `SELECT ` + t.spec.selectColumns + ` FROM ` + t.spec.name + `
		WHERE owner_id = $1
		ORDER BY ` + t.spec.orderBy

	rows, err := tx.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.spec.name, err)
	}

	out, err := t.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", t.spec.name, err)
	}

	return out, nil
}

// Update applies the changed fields to one row. Unknown fields are rejected.
func (t *table[T]) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	assignments, err := t.spec.setters(fields)
	if err != nil {
		return fmt.Errorf("updating %s %s: %w", t.spec.name, id, err)
	}
	if len(assignments) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := t.beginTx(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("updating %s: %w", t.spec.name, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sets := make([]string, 0, len(assignments)+1)
	args := []any{id, ownerID}
	for _, a := range assignments {
		args = append(args, a.value)
		sets = append(sets, a.column+" = $"+strconv.Itoa(len(args)))
	}
	if t.spec.touch != "" {
		sets = append(sets, t.spec.touch)
	}

	query := `UPDATE ` + t.spec.name + ` SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND owner_id = $2`

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return mapError(fmt.Errorf("updating %s %s: %w", t.spec.name, id, err), t.spec.notFound)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", t.spec.notFound, id)
	}

	return tx.Commit(ctx)
}

// Delete removes one row; join rows go with it through ON DELETE CASCADE.
func (t *table[T]) Delete(ctx context.Context, ownerID, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := t.beginTx(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", t.spec.name, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx, `DELETE FROM `+t.spec.name+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", t.spec.name, id, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", t.spec.notFound, id)
	}

	return tx.Commit(ctx)
}

func (t *table[T]) collect(rows pgx.Rows) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := t.spec.scan(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}

	return out, rows.Err()
}

// errOwnedElsewhere reports a bulk upsert that hit an id owned by another owner.
var errOwnedElsewhere = fmt.Errorf("%w: id belongs to another owner", models.ErrDuplicateKey)
