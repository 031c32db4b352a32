package api_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/gedcom"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
)

// mockPersonRepo implements domain.Collection[models.Person] for testing.
type mockPersonRepo struct {
	listFn   func(ctx context.Context, ownerID string) ([]models.Person, error)
	createFn func(ctx context.Context, ownerID string, p models.Person) (*models.Person, error)
	bulkFn   func(ctx context.Context, ownerID string, items []models.Person) ([]models.Person, error)
	updateFn func(ctx context.Context, ownerID, id string, fields map[string]any) error
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (m *mockPersonRepo) List(ctx context.Context, ownerID string) ([]models.Person, error) {
	return m.listFn(ctx, ownerID)
}

func (m *mockPersonRepo) Create(ctx context.Context, ownerID string, p models.Person) (*models.Person, error) {
	return m.createFn(ctx, ownerID, p)
}

func (m *mockPersonRepo) BulkUpsert(ctx context.Context, ownerID string, items []models.Person) ([]models.Person, error) {
	return m.bulkFn(ctx, ownerID, items)
}

func (m *mockPersonRepo) Update(ctx context.Context, ownerID, id string, fields map[string]any) error {
	return m.updateFn(ctx, ownerID, id, fields)
}

func (m *mockPersonRepo) Delete(ctx context.Context, ownerID, id string) error {
	return m.deleteFn(ctx, ownerID, id)
}

// mockImporter implements api.ImportService for testing.
type mockImporter struct {
	mu    sync.Mutex
	calls []int
	fn    func(ctx context.Context, ownerID, text string, maxGenerations int) (*service.ImportOutcome, error)
}

func (m *mockImporter) Import(ctx context.Context, ownerID, text string, maxGenerations int, _ ...gedcom.Option) (*service.ImportOutcome, error) {
	m.mu.Lock()
	m.calls = append(m.calls, maxGenerations)
	m.mu.Unlock()

	return m.fn(ctx, ownerID, text, maxGenerations)
}

func (m *mockImporter) getCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]int(nil), m.calls...)
}

// mockFailureRepo implements api.FailureRepository for testing.
type mockFailureRepo struct {
	mu       sync.Mutex
	recorded []models.SyncFailure
	lastQ    models.SyncFailureQuery
	listed   []models.SyncFailure
	hasMore  bool
	err      error
}

func (m *mockFailureRepo) RecordFailure(_ context.Context, _ string, f models.SyncFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, f)

	return nil
}

func (m *mockFailureRepo) ListFailures(_ context.Context, _ string, q models.SyncFailureQuery) ([]models.SyncFailure, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQ = q

	return m.listed, m.hasMore, m.err
}

// mockOwnerLookup implements middleware.OwnerLookup for testing.
type mockOwnerLookup struct {
	keys map[string]string
}

func (m *mockOwnerLookup) GetOwnerByAPIKey(_ context.Context, apiKey string) (string, error) {
	if id, ok := m.keys[apiKey]; ok {
		return id, nil
	}

	return "", errors.New("unknown api key")
}
