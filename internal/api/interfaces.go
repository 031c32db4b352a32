package api

import (
	"context"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/gedcom"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
)

// TagRepository defines join table operations used by TagHandler.
type TagRepository interface {
	Tag(ctx context.Context, ownerID, entityID string, personIDs []string) error
	Untag(ctx context.Context, ownerID, entityID, personID string) error
	TaggedPersons(ctx context.Context, ownerID, entityID string) ([]string, error)
}

// ImportService defines the server-side GEDCOM import used by ImportHandler.
type ImportService interface {
	Import(ctx context.Context, ownerID, text string, maxGenerations int, opts ...gedcom.Option) (*service.ImportOutcome, error)
}

// FailureRepository defines sync failure operations used by FailureHandler.
type FailureRepository interface {
	RecordFailure(ctx context.Context, ownerID string, f models.SyncFailure) error
	ListFailures(ctx context.Context, ownerID string, q models.SyncFailureQuery) ([]models.SyncFailure, bool, error)
}
