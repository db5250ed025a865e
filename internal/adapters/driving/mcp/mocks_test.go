package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer   *domain.Answer
	status   domain.IndexStatus
	err      error
	question string
}

func (m *mockQueryService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

func (m *mockQueryService) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

// mockSyncRunner is a mock implementation of driving.SyncRunner.
type mockSyncRunner struct {
	mu      sync.Mutex
	summary *domain.SyncSummary
	err     error
	reqs    []driving.SyncRequest
}

func (m *mockSyncRunner) RunSync(_ context.Context, req driving.SyncRequest) (*domain.SyncSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.summary, m.err
}

func (m *mockSyncRunner) StartSync(_ context.Context, req driving.SyncRequest) error {
	_, err := m.RunSync(context.Background(), req)
	return err
}

func (m *mockSyncRunner) Wait() {}

// mockSyncService is a mock implementation of driving.SyncService.
type mockSyncService struct {
	status *driving.SyncStatus
	err    error
	dest   domain.Destination
}

func (m *mockSyncService) Sync(_ context.Context, _ driving.SyncRequest) (*domain.SyncSummary, error) {
	return nil, m.err
}

func (m *mockSyncService) Begin(_ context.Context, _ driving.SyncRequest) (driving.SyncRun, error) {
	return nil, m.err
}

func (m *mockSyncService) Status(_ context.Context, dest domain.Destination) (*driving.SyncStatus, error) {
	m.dest = dest
	return m.status, m.err
}
