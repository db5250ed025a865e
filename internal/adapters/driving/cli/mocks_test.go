package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

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

type mockSyncRunner struct {
	mu      sync.Mutex
	summary *domain.SyncSummary
	err     error
	reqs    []driving.SyncRequest
	waited  bool
}

func (m *mockSyncRunner) RunSync(_ context.Context, req driving.SyncRequest) (*domain.SyncSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	return m.summary, m.err
}

func (m *mockSyncRunner) StartSync(ctx context.Context, req driving.SyncRequest) error {
	_, err := m.RunSync(ctx, req)
	return err
}

func (m *mockSyncRunner) Wait() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waited = true
}

type mockSyncService struct {
	status *driving.SyncStatus
	err    error
}

func (m *mockSyncService) Sync(_ context.Context, _ driving.SyncRequest) (*domain.SyncSummary, error) {
	return nil, m.err
}

func (m *mockSyncService) Begin(_ context.Context, _ driving.SyncRequest) (driving.SyncRun, error) {
	return nil, m.err
}

func (m *mockSyncService) Status(_ context.Context, _ domain.Destination) (*driving.SyncStatus, error) {
	return m.status, m.err
}

// mockChatService echoes each message to out.
type mockChatService struct {
	out    io.Writer
	events []driving.MessageEvent
	err    error
}

func (m *mockChatService) HandleText(_ context.Context, event driving.MessageEvent) error {
	m.events = append(m.events, event)
	if m.err != nil {
		return m.err
	}
	_, err := fmt.Fprintf(m.out, "echo: %s\n", event.Text)
	return err
}

func testRequester(t *testing.T) domain.EventSource {
	t.Helper()
	src, err := domain.UserSource("cli")
	require.NoError(t, err)
	return src
}

// useServices installs a factory returning svc and records the options
// commands ask for.
func useServices(t *testing.T, svc *Services) *[]ServiceOptions {
	t.Helper()
	var seen []ServiceOptions
	old := newServices
	newServices = func(opts ServiceOptions) (*Services, error) {
		seen = append(seen, opts)
		if chat, ok := svc.Chat.(*mockChatService); ok && chat.out == nil {
			chat.out = opts.Out
		}
		return svc, nil
	}
	t.Cleanup(func() { newServices = old })
	return &seen
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	askJSON, syncJSON, watchInitial, verbose = false, false, true, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(in))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
