// Package line delivers chat messages through the LINE Messaging API.
//
// Replies answer an incoming event by its reply token; pushes address a
// user, group or room id. Every request is throttled, authenticated with the
// channel access token and retried under the configured RetryPolicy. Pushes
// carry an X-Line-Retry-Key so a retried push is never delivered twice.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-chat/internal/chattext"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/retry"
)

// Ensure Sender implements the interface.
var _ driven.MessageSender = (*Sender)(nil)

const (
	// DefaultBaseURL is the Messaging API endpoint.
	DefaultBaseURL = "https://api.line.me"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRate is the proactive request rate per second.
	DefaultRate = 10

	// MaxMessagesPerRequest is the API's limit on messages in one call.
	MaxMessagesPerRequest = 5

	// MaxTextLength is the API's limit on one text message, in UTF-16
	// code units.
	MaxTextLength = chattext.MessageLimit

	// HeaderRetryKey makes push requests idempotent.
	HeaderRetryKey = "X-Line-Retry-Key"

	replyPath = "/v2/bot/message/reply"
	pushPath  = "/v2/bot/message/push"
)

// Config holds configuration for the LINE sender.
type Config struct {
	// ChannelToken is the channel access token (required).
	ChannelToken string

	// BaseURL is the API base URL (default: https://api.line.me).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RatePerSecond throttles outgoing requests (default: 10).
	RatePerSecond float64

	// Retry is the retry policy for every request.
	Retry domain.RetryPolicy
}

// Sender implements driven.MessageSender over the Messaging API.
type Sender struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	policy  domain.RetryPolicy
	sleep   retry.SleepFunc
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type errorResponse struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}

// NewSender creates a new LINE sender.
func NewSender(cfg Config) (*Sender, error) {
	if strings.TrimSpace(cfg.ChannelToken) == "" {
		return nil, fmt.Errorf("%w: line: channel token is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRate
	}
	if cfg.Retry == (domain.RetryPolicy{}) {
		cfg.Retry = domain.DefaultRetryPolicy()
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("line: retry policy: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.ChannelToken})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = cfg.Timeout

	return &Sender{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		policy:  cfg.Retry,
		sleep:   retry.Sleep,
	}, nil
}

// Reply answers an event. Only one reply per token is accepted by the
// API, so more than MaxMessagesPerRequest texts are rejected.
func (s *Sender) Reply(ctx context.Context, replyToken string, texts []string) error {
	if replyToken == "" {
		return fmt.Errorf("%w: line: reply token is required", domain.ErrInvalidInput)
	}
	if len(texts) > MaxMessagesPerRequest {
		return fmt.Errorf("%w: line: %d messages exceed the reply limit of %d",
			domain.ErrInvalidInput, len(texts), MaxMessagesPerRequest)
	}
	if len(texts) == 0 {
		return nil
	}
	if err := checkLengths(texts); err != nil {
		return err
	}
	body := replyRequest{ReplyToken: replyToken, Messages: toMessages(texts)}
	return s.post(ctx, "line reply", replyPath, body, "")
}

// Push sends texts to a destination, in requests of at most
// MaxMessagesPerRequest messages.
func (s *Sender) Push(ctx context.Context, dest domain.Destination, texts []string) error {
	if dest == "" {
		return fmt.Errorf("%w: line: destination is required", domain.ErrInvalidInput)
	}
	if err := checkLengths(texts); err != nil {
		return err
	}
	for start := 0; start < len(texts); start += MaxMessagesPerRequest {
		end := min(start+MaxMessagesPerRequest, len(texts))
		body := pushRequest{To: dest.String(), Messages: toMessages(texts[start:end])}
		if err := s.post(ctx, "line push", pushPath, body, uuid.NewString()); err != nil {
			return err
		}
	}
	return nil
}

// post sends one request under the retry policy.
// retryKey, when set, is reused by every attempt.
func (s *Sender) post(ctx context.Context, op, path string, body any, retryKey string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	return retry.Run(ctx, s.policy, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return s.send(ctx, op, path, payload, retryKey)
	},
		retry.WithSleep(s.sleep),
		retry.WithObserver(func(a retry.Attempt) {
			logger.Warn("Retrying %s (attempt %d) in %s: %v", op, a.Number+1, a.Delay, a.Err)
		}),
	)
}

func (s *Sender) send(ctx context.Context, op, path string, payload []byte, retryKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if retryKey != "" {
		req.Header.Set(HeaderRetryKey, retryKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict && retryKey != "":
		// An earlier attempt with this retry key was already accepted
		logger.Debug("%s: retry key %s already accepted", op, retryKey)
		return nil
	}

	return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
}

func errorMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Message == "" {
		return strings.TrimSpace(string(body))
	}
	msg := er.Message
	for _, d := range er.Details {
		msg += fmt.Sprintf("; %s: %s", d.Property, d.Message)
	}
	return msg
}

// checkLengths rejects texts the API would refuse, before any request is sent.
func checkLengths(texts []string) error {
	for i, t := range texts {
		if n := chattext.Length(t); n > MaxTextLength {
			return fmt.Errorf("%w: line: message %d is %d UTF-16 units, limit %d",
				domain.ErrInvalidInput, i, n, MaxTextLength)
		}
	}
	return nil
}

func toMessages(texts []string) []textMessage {
	msgs := make([]textMessage, len(texts))
	for i, t := range texts {
		msgs[i] = textMessage{Type: "text", Text: t}
	}
	return msgs
}
