package service

import (
	"context"
	"sync"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// mockFailureRecorder records every failure it receives.
type mockFailureRecorder struct {
	mu    sync.Mutex
	calls []models.SyncFailure
	err   error
}

func (m *mockFailureRecorder) RecordFailure(_ context.Context, _ string, f models.SyncFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, f)
	return m.err
}

func (m *mockFailureRecorder) getCalls() []models.SyncFailure {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SyncFailure, len(m.calls))
	copy(out, m.calls)
	return out
}
