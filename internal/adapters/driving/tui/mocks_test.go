package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

type mockQueryService struct {
	answer    *domain.Answer
	status    domain.IndexStatus
	askErr    error
	statusErr error
	questions []string
}

func (m *mockQueryService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	return m.answer, m.askErr
}

func (m *mockQueryService) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.statusErr
}

type mockSyncRunner struct {
	summary *domain.SyncSummary
	err     error
	reqs    []driving.SyncRequest
}

func (m *mockSyncRunner) RunSync(_ context.Context, req driving.SyncRequest) (*domain.SyncSummary, error) {
	m.reqs = append(m.reqs, req)
	return m.summary, m.err
}

func (m *mockSyncRunner) StartSync(ctx context.Context, req driving.SyncRequest) error {
	_, err := m.RunSync(ctx, req)
	return err
}

func (m *mockSyncRunner) Wait() {}

func newTestPorts(t *testing.T) (*Ports, *mockQueryService, *mockSyncRunner) {
	t.Helper()
	src, err := domain.UserSource("tui")
	require.NoError(t, err)

	query := &mockQueryService{
		answer: &domain.Answer{
			Text: "Laptops are repaired by IT [1].",
			Sources: []domain.Passage{
				{DocumentID: "it/laptops.md", Title: "Laptops", SourceURL: "file:///docs/it/laptops.md", Score: 3},
				{DocumentID: "onboarding.md", Title: "Onboarding", Content: "New hires get a laptop.", Score: 1},
			},
			Generated: true,
		},
		status: domain.IndexStatus{Available: true, Documents: 12, Entries: 40},
	}
	runner := &mockSyncRunner{}
	return &Ports{Query: query, Runner: runner, Requester: src}, query, runner
}
