package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/dbpool"
)

// ErrUnknownAPIKey is returned when no owner holds the presented key.
var ErrUnknownAPIKey = errors.New("unknown API key")

// OwnerStore handles owner lookups (API key → owner ID). The owners table
// has no RLS; it is read before any owner context exists.
type OwnerStore struct {
	Pool *dbpool.Pool
}

// NewOwnerStore creates a new OwnerStore.
func NewOwnerStore(pool *dbpool.Pool) *OwnerStore {
	return &OwnerStore{Pool: pool}
}

func hashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// GetOwnerByAPIKey looks up an owner ID by API key hash.
func (s *OwnerStore) GetOwnerByAPIKey(ctx context.Context, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ownerID string

	err := s.Pool.QueryRow(ctx, "SELECT id::text FROM owners WHERE api_key_hash = $1", hashAPIKey(apiKey)).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnknownAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("looking up owner by API key: %w", err)
	}

	return ownerID, nil
}

// CreateOwner registers a new owner and returns its id and a freshly
// generated API key. Only the key's hash is stored.
func (s *OwnerStore) CreateOwner(ctx context.Context, name string) (ownerID, apiKey string, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generating API key: %w", err)
	}
	apiKey = "et_" + hex.EncodeToString(raw)
	ownerID = uuid.New().String()

	_, err = s.Pool.Exec(ctx,
		"INSERT INTO owners (id, name, api_key_hash) VALUES ($1, $2, $3)",
		ownerID, name, hashAPIKey(apiKey),
	)
	if err != nil {
		return "", "", mapError(fmt.Errorf("inserting owner: %w", err), ErrUnknownAPIKey)
	}

	return ownerID, apiKey, nil
}
