package store

import (
	"context"
	"fmt"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// TagStore handles one person join table (post_tags or media_tags).
type TagStore struct {
	Base
	table     string
	entityCol string
}

// NewPostTagStore creates a TagStore for post_tags.
func NewPostTagStore(base Base) *TagStore {
	return &TagStore{Base: base, table: "post_tags", entityCol: "post_id"}
}

// NewMediaTagStore creates a TagStore for media_tags.
func NewMediaTagStore(base Base) *TagStore {
	return &TagStore{Base: base, table: "media_tags", entityCol: "media_id"}
}

// Tag links personIDs to entityID. Existing links are left alone.
func (s *TagStore) Tag(ctx context.Context, ownerID, entityID string, personIDs []string) error {
	if len(personIDs) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("tagging %s: %w", s.table, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx, `
		INSERT INTO `+s.table+` (`+s.entityCol+`, person_id, owner_id)
		SELECT $1, p, $2 FROM unnest($3::text[]) AS p
		ON CONFLICT DO NOTHING`,
		entityID, ownerID, models.NormalizeIDs(personIDs),
	)
	if err != nil {
		return mapError(fmt.Errorf("inserting %s: %w", s.table, err), models.ErrPersonNotFound)
	}

	return tx.Commit(ctx)
}

// Untag removes one link. Removing a missing link is not an error.
func (s *TagStore) Untag(ctx context.Context, ownerID, entityID, personID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("untagging %s: %w", s.table, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx,
		`DELETE FROM `+s.table+` WHERE `+s.entityCol+` = $1 AND person_id = $2 AND owner_id = $3`,
		entityID, personID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", s.table, err)
	}

	return tx.Commit(ctx)
}

// TaggedPersons returns the persons linked to entityID.
func (s *TagStore) TaggedPersons(ctx context.Context, ownerID, entityID string) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.table, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx.

	rows, err := tx.Query(ctx,
		`SELECT person_id FROM `+s.table+` WHERE `+s.entityCol+` = $1 AND owner_id = $2 ORDER BY person_id`,
		entityID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.table, err)
		}
		out = append(out, id)
	}

	return out, rows.Err()
}
