// Package anthropic provides an LLM service adapter using the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/retry"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API base URL.
	BaseURL string

	// Model is the model to use (default: claude-3-5-haiku-latest).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// Retry governs retries of failed requests. The SDK's own retries are off.
	Retry domain.RetryPolicy
}

// LLMService generates text with the Anthropic Messages API.
type LLMService struct {
	client anthropic.Client
	model  string
	policy domain.RetryPolicy
	sleep  retry.SleepFunc
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", domain.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry == (domain.RetryPolicy{}) {
		cfg.Retry = domain.DefaultRetryPolicy()
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &LLMService{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		policy: cfg.Retry,
		sleep:  retry.Sleep,
	}, nil
}

// Generate produces a text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	// Anthropic requires max_tokens to be set
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	return retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		resp, err := s.client.Messages.New(ctx, params)
		if err != nil {
			return "", wrapError(err)
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		if text.Len() == 0 {
			return "", fmt.Errorf("%w: anthropic returned no text", domain.ErrLLMUnavailable)
		}
		return text.String(), nil
	},
		retry.WithSleep(s.sleep),
		retry.WithObserver(func(a retry.Attempt) {
			logger.Warn("Retrying anthropic request (attempt %d) in %s: %v", a.Number+1, a.Delay, a.Err)
		}),
		retry.WithClassifier(func(err error) bool {
			return !errors.Is(err, domain.ErrLLMUnavailable) && retry.IsRetryable(err)
		}),
	)
}

// ModelName returns the model in use.
func (s *LLMService) ModelName() string {
	return s.model
}

// wrapError converts SDK errors to domain.RemoteError.
func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &domain.RemoteError{
			Op:         "anthropic messages",
			StatusCode: apiErr.StatusCode,
			Message:    strings.TrimSpace(apiErr.RawJSON()),
			Err:        err,
		}
	}
	return &domain.RemoteError{Op: "anthropic messages", Err: err}
}
