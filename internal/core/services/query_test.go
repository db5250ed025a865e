package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// queryMockIndex implements driven.IndexBackend for testing.
type queryMockIndex struct {
	status    domain.IndexStatus
	statusErr error
}

func (m *queryMockIndex) Clear(_ context.Context) error { return nil }

func (m *queryMockIndex) AddDocuments(_ context.Context, _ []domain.Document) (domain.IndexBuildResult, error) {
	return domain.IndexBuildResult{}, nil
}

func (m *queryMockIndex) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.statusErr
}

// queryMockRetriever implements driven.Retriever for testing.
type queryMockRetriever struct {
	passages []domain.Passage
	err      error
	queries  []string
	limits   []int
}

func (m *queryMockRetriever) Retrieve(_ context.Context, query string, limit int) ([]domain.Passage, error) {
	m.queries = append(m.queries, query)
	m.limits = append(m.limits, limit)
	return m.passages, m.err
}

// queryMockLLM implements driven.LLMService for testing.
type queryMockLLM struct {
	answer  string
	err     error
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *queryMockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	return m.answer, m.err
}

func (m *queryMockLLM) ModelName() string { return "mock-model" }

func availableIndex() *queryMockIndex {
	return &queryMockIndex{status: domain.IndexStatus{Available: true, Documents: 2, Entries: 4}}
}

func testPassages() []domain.Passage {
	return []domain.Passage{
		{DocumentID: "a", Title: "Onboarding", Content: "New hires get a laptop on day one.", Score: 2.5},
		{DocumentID: "b", Title: "Holidays", Content: "The office closes between Christmas and New Year.", Score: 1.2},
	}
}

func TestQueryService_AskEmptyIndex(t *testing.T) {
	retriever := &queryMockRetriever{}
	svc := NewQueryService(&queryMockIndex{}, retriever, nil)

	answer, err := svc.Ask(context.Background(), "when do I get a laptop?")
	require.ErrorIs(t, err, domain.ErrIndexEmpty)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, answer)
	assert.Empty(t, retriever.queries)
}

func TestQueryService_AskEmptyQuestion(t *testing.T) {
	svc := NewQueryService(availableIndex(), &queryMockRetriever{}, nil)

	_, err := svc.Ask(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_AskExtractive(t *testing.T) {
	retriever := &queryMockRetriever{passages: testPassages()}
	svc := NewQueryService(availableIndex(), retriever, nil)
	assert.False(t, svc.HasLLM())

	answer, err := svc.Ask(context.Background(), "  laptop  ")
	require.NoError(t, err)

	assert.False(t, answer.Generated)
	assert.Contains(t, answer.Text, "Onboarding")
	assert.Contains(t, answer.Text, "New hires get a laptop on day one.")
	assert.Len(t, answer.Sources, 2)
	assert.Equal(t, []string{"laptop"}, retriever.queries)
	assert.Equal(t, []int{DefaultPassageLimit}, retriever.limits)
}

func TestQueryService_AskGenerated(t *testing.T) {
	llm := &queryMockLLM{answer: "  On your first day.  "}
	svc := NewQueryService(availableIndex(), &queryMockRetriever{passages: testPassages()}, llm)
	assert.True(t, svc.HasLLM())

	answer, err := svc.Ask(context.Background(), "When do I get a laptop?")
	require.NoError(t, err)

	assert.True(t, answer.Generated)
	assert.Equal(t, "On your first day.", answer.Text)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "[1] Onboarding")
	assert.Contains(t, llm.prompts[0], "[2] Holidays")
	assert.Contains(t, llm.prompts[0], "Question: When do I get a laptop?")
	assert.Equal(t, driven.DefaultAnswerSystemPrompt, llm.opts[0].System)
}

type queryMockPrompts struct {
	prompt string
	err    error
}

func (m *queryMockPrompts) Load(string) (string, error) { return m.prompt, m.err }
func (m *queryMockPrompts) Reload()                     {}

func TestQueryService_SystemPromptFromStore(t *testing.T) {
	tests := []struct {
		name    string
		prompts *queryMockPrompts
		want    string
	}{
		{"custom prompt", &queryMockPrompts{prompt: "Answer like a pirate."}, "Answer like a pirate."},
		{"load error", &queryMockPrompts{err: errors.New("unreadable")}, driven.DefaultAnswerSystemPrompt},
		{"blank file", &queryMockPrompts{prompt: "  \n"}, driven.DefaultAnswerSystemPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &queryMockLLM{answer: "ok"}
			svc := NewQueryService(availableIndex(), &queryMockRetriever{passages: testPassages()}, llm)
			svc.SetPromptStore(tt.prompts)

			_, err := svc.Ask(context.Background(), "laptop")
			require.NoError(t, err)
			assert.Equal(t, tt.want, llm.opts[0].System)
		})
	}
}

func TestQueryService_AskLLMFailureFallsBack(t *testing.T) {
	llm := &queryMockLLM{err: errors.New("overloaded")}
	svc := NewQueryService(availableIndex(), &queryMockRetriever{passages: testPassages()}, llm)

	answer, err := svc.Ask(context.Background(), "laptop")
	require.NoError(t, err)
	assert.False(t, answer.Generated)
	assert.Contains(t, answer.Text, "Onboarding")
}

func TestQueryService_AskNoPassages(t *testing.T) {
	llm := &queryMockLLM{answer: "unused"}
	svc := NewQueryService(availableIndex(), &queryMockRetriever{}, llm)

	answer, err := svc.Ask(context.Background(), "unrelated")
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, llm.prompts)
}

func TestQueryService_AskRetrieveError(t *testing.T) {
	retrieveErr := errors.New("fts: malformed")
	svc := NewQueryService(availableIndex(), &queryMockRetriever{err: retrieveErr}, nil)

	_, err := svc.Ask(context.Background(), "laptop")
	require.ErrorIs(t, err, retrieveErr)
}

func TestQueryService_Status(t *testing.T) {
	statusErr := errors.New("db closed")
	svc := NewQueryService(&queryMockIndex{statusErr: statusErr}, &queryMockRetriever{}, nil)

	_, err := svc.Status(context.Background())
	require.ErrorIs(t, err, statusErr)

	svc = NewQueryService(availableIndex(), &queryMockRetriever{}, nil)
	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, status.Documents)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short text", snippet("short\n  text", 100))

	long := strings.Repeat("word ", 100)
	got := snippet(long, 50)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), 51)
}
