package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultPassageLimit is how many passages ground an answer.
const DefaultPassageLimit = 5

// extractiveSnippetLen caps each passage quoted in an extractive answer.
const extractiveSnippetLen = 300

// QueryService answers questions from the index.
type QueryService struct {
	index     driven.IndexBackend
	retriever driven.Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	limit     int
}

// NewQueryService creates a new query service.
// The llm parameter is optional (can be nil); without it answers are
// extractive.
func NewQueryService(index driven.IndexBackend, retriever driven.Retriever, llm driven.LLMService) *QueryService {
	return &QueryService{
		index:     index,
		retriever: retriever,
		llm:       llm,
		limit:     DefaultPassageLimit,
	}
}

// SetPromptStore sets the store the answer system prompt is loaded from.
// Without one the built-in prompt is used.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// HasLLM reports whether answers are generated rather than extracted.
func (s *QueryService) HasLLM() bool {
	return s.llm != nil
}

// Status reports the index status.
func (s *QueryService) Status(ctx context.Context) (domain.IndexStatus, error) {
	status, err := s.index.Status(ctx)
	if err != nil {
		return domain.IndexStatus{}, fmt.Errorf("index status: %w", err)
	}
	return status, nil
}

// Ask answers a question from the indexed documents.
func (s *QueryService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Available {
		return nil, domain.ErrIndexEmpty
	}

	passages, err := s.retriever.Retrieve(ctx, question, s.limit)
	if err != nil {
		return nil, fmt.Errorf("retrieve passages: %w", err)
	}
	logger.Debug("Retrieved %d passages for %q", len(passages), question)

	if len(passages) == 0 {
		return &domain.Answer{Text: "I couldn't find anything about that in the indexed documents."}, nil
	}

	if s.llm == nil {
		return extractiveAnswer(passages), nil
	}

	text, err := s.llm.Generate(ctx, buildPrompt(question, passages), driven.GenerateOptions{
		System:      s.systemPrompt(),
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		// Answer from the passages rather than failing the question
		logger.Warn("LLM %s failed, answering extractively: %v", s.llm.ModelName(), err)
		return extractiveAnswer(passages), nil
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(text),
		Sources:   passages,
		Generated: true,
	}, nil
}

// systemPrompt loads the answer instruction, falling back to the default.
func (s *QueryService) systemPrompt() string {
	if s.prompts == nil {
		return driven.DefaultAnswerSystemPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return driven.DefaultAnswerSystemPrompt
	}
	return prompt
}

// buildPrompt grounds the question on numbered passages.
func buildPrompt(question string, passages []domain.Passage) string {
	var b strings.Builder
	b.WriteString("Documents:\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, p.Title, strings.TrimSpace(p.Content))
	}
	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", question)
	return b.String()
}

func extractiveAnswer(passages []domain.Passage) *domain.Answer {
	var b strings.Builder
	b.WriteString("Here is what I found:")
	for i, p := range passages {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "\n\n%s\n%s", p.Title, snippet(p.Content, extractiveSnippetLen))
	}
	return &domain.Answer{Text: b.String(), Sources: passages}
}

// snippet truncates s to at most n runes on a word boundary where possible.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
