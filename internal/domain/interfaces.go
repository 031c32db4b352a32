// Package domain defines the remote store contract shared by the
// reconciliation cache, the REST API and every store backend (PostgreSQL,
// HTTP client, Supabase). Consumers should depend on these interfaces rather
// than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// BulkChunkSize is the number of rows callers send per BulkUpsert call.
const BulkChunkSize = 200

// Collection is the CRUD surface of one remote collection. Every call is
// scoped to ownerID; a backend never returns or touches another owner's rows.
type Collection[T any] interface {
	// Create inserts item and returns the stored row.
	Create(ctx context.Context, ownerID string, item T) (*T, error)
	// BulkUpsert inserts or replaces items keyed by id. Callers send at most
	// BulkChunkSize items per call.
	BulkUpsert(ctx context.Context, ownerID string, items []T) ([]T, error)
	// List returns all of the owner's rows: persons ordered by name, trees
	// and posts newest first.
	List(ctx context.Context, ownerID string) ([]T, error)
	// Update applies the changed fields, keyed by wire name, to one row.
	Update(ctx context.Context, ownerID, id string, fields map[string]any) error
	// Delete removes one row. Join relations referencing it are removed by
	// the backend.
	Delete(ctx context.Context, ownerID, id string) error
}

// TagRelation is a person join table (person↔post, person↔media).
type TagRelation interface {
	Tag(ctx context.Context, ownerID, entityID string, personIDs []string) error
	Untag(ctx context.Context, ownerID, entityID, personID string) error
}

// RemoteStore is the durable store behind the reconciliation cache.
type RemoteStore interface {
	People() Collection[models.Person]
	Trees() Collection[models.Tree]
	Posts() Collection[models.Post]
	PostTags() TagRelation
	MediaTags() TagRelation
}
