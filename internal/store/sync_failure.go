package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// FailureStore provides data access for the sync_failures table.
type FailureStore struct {
	Base
}

// NewFailureStore creates a FailureStore.
func NewFailureStore(base Base) *FailureStore {
	return &FailureStore{Base: base}
}

// RecordFailure inserts a sync failure.
func (s *FailureStore) RecordFailure(ctx context.Context, ownerID string, f models.SyncFailure) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, ownerID)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	_, err = tx.Exec(ctx, `
		INSERT INTO sync_failures (owner_id, kind, op, entity_ids, chunk, message, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::timestamptz, NOW()))`,
		ownerID, f.Kind, f.Op, nonNil(f.EntityIDs), f.Chunk, f.Message, nullTime(f.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("inserting sync failure: %w", err)
	}

	return tx.Commit(ctx)
}

// buildFailureFilter builds WHERE clause and args from a SyncFailureQuery.
func buildFailureFilter(ownerID string, q models.SyncFailureQuery) (where string, args []any, nextArg int) {
	conditions := []string{"owner_id = $1"}
	args = []any{ownerID}
	argIdx := 2

	if q.Kind != "" {
		conditions = append(conditions, "kind = $"+strconv.Itoa(argIdx))
		args = append(args, q.Kind)
		argIdx++
	}
	if q.Since != nil {
		conditions = append(conditions, "occurred_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *q.Since)
		argIdx++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, argIdx
}

// ListFailures returns sync failures newest first. The bool reports whether
// more rows exist past the page.
func (s *FailureStore) ListFailures(ctx context.Context, ownerID string, q models.SyncFailureQuery) ([]models.SyncFailure, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if q.Limit <= 0 || q.Limit > maxListLimit {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	tx, err := s.beginReadTx(ctx, ownerID)
	if err != nil {
		return nil, false, err
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx.

	where, args, argIdx := buildFailureFilter(ownerID, q)
	args = append(args, q.Limit+1, q.Offset)

	rows, err := tx.Query(ctx, `
		SELECT id, kind, op, entity_ids, chunk, message, occurred_at
		FROM sync_failures `+where+`
		ORDER BY occurred_at DESC, id DESC
		LIMIT $`+strconv.Itoa(argIdx)+` OFFSET $`+strconv.Itoa(argIdx+1),
		args...,
	)
	if err != nil {
		return nil, false, fmt.Errorf("querying sync failures: %w", err)
	}
	defer rows.Close()

	var out []models.SyncFailure
	for rows.Next() {
		f := models.SyncFailure{OwnerID: ownerID}
		if err := rows.Scan(&f.ID, &f.Kind, &f.Op, &f.EntityIDs, &f.Chunk, &f.Message, &f.OccurredAt); err != nil {
			return nil, false, fmt.Errorf("scanning sync failure: %w", err)
		}
		f.EntityIDs = emptyToNil(f.EntityIDs)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating sync failures: %w", err)
	}

	hasMore := len(out) > q.Limit
	if hasMore {
		out = out[:q.Limit]
	}

	return out, hasMore, nil
}

// PurgeFailures deletes failures older than the retention window across all
// owners. It runs outside any owner context and returns the number removed.
func (s *FailureStore) PurgeFailures(ctx context.Context, retention time.Duration) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		"DELETE FROM sync_failures WHERE occurred_at < NOW() - make_interval(secs => $1)",
		retention.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging sync failures: %w", err)
	}

	return tag.RowsAffected(), nil
}
