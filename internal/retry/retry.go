// Package retry runs unreliable remote calls under a RetryPolicy.
//
// Failures are classified before every retry: errors without a status code
// (network, timeouts), 5xx and 429 are retried with capped exponential
// backoff; any other 4xx fails at once. When the retries run out the last
// error is wrapped in an ExhaustedError, which matches domain.ErrSystem.
//
// The executor never logs. Callers that want diagnostics pass an observer.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// Classifier decides whether a failed attempt may be retried.
type Classifier func(err error) bool

// Attempt describes a retry that is about to happen.
type Attempt struct {
	// Number is the 0-indexed attempt about to run (always >= 1).
	Number int

	// Delay is the wait before the attempt.
	Delay time.Duration

	// Err is the failure of the previous attempt.
	Err error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type settings struct {
	classify Classifier
	observe  func(Attempt)
	sleep    SleepFunc
}

// Option customises a single Do call.
type Option func(*settings)

// WithClassifier replaces IsRetryable.
func WithClassifier(c Classifier) Option {
	return func(s *settings) {
		if c != nil {
			s.classify = c
		}
	}
}

// WithObserver registers a callback invoked before every retry.
func WithObserver(fn func(Attempt)) Option {
	return func(s *settings) {
		s.observe = fn
	}
}

// WithSleep replaces the wait between attempts. Used by tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *settings) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// ExhaustedError is returned when every allowed attempt failed with a
// retryable error. It matches domain.ErrSystem and unwraps to the last error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{domain.ErrSystem, e.Err}
}

// IsExhausted reports whether err came from running out of retries.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// Do runs op until it succeeds, fails with a non-retryable error,
// or the policy's retries are used up.
func Do[T any](
	ctx context.Context, policy domain.RetryPolicy, op func(context.Context) (T, error), opts ...Option,
) (T, error) {
	s := settings{
		classify: IsRetryable,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(&s)
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.Delay(attempt)
			if s.observe != nil {
				s.observe(Attempt{Number: attempt, Delay: delay, Err: lastErr})
			}
			if err := s.sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !s.classify(err) {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: policy.MaxRetries + 1, Err: lastErr}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, policy domain.RetryPolicy, op func(context.Context) error, opts ...Option) error {
	_, err := Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StatusCode extracts the status code carried by err, if any.
func StatusCode(err error) (int, bool) {
	var coder interface{ HTTPStatusCode() int }
	if errors.As(err, &coder) {
		if code := coder.HTTPStatusCode(); code > 0 {
			return code, true
		}
	}
	return 0, false
}

// IsRetryable is the default classifier.
// No status code, any 5xx, and 429 are retryable; other 4xx are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	code, ok := StatusCode(err)
	if !ok {
		return true
	}
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	case code >= 400:
		return false
	default:
		return true
	}
}
