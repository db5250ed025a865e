package domain

import (
	"fmt"
	"math"
	"time"
)

// RetryPolicy configures retries of an unreliable remote call.
// It is supplied once when an adapter is constructed.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps every wait.
	MaxDelay time.Duration

	// Multiplier grows the delay between consecutive retries.
	Multiplier float64
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Validate checks that the policy is usable.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidInput)
	case p.InitialDelay <= 0:
		return fmt.Errorf("%w: initial delay must be positive", ErrInvalidInput)
	case p.MaxDelay < p.InitialDelay:
		return fmt.Errorf("%w: max delay must be at least the initial delay", ErrInvalidInput)
	case p.Multiplier < 1:
		return fmt.Errorf("%w: multiplier must be at least 1", ErrInvalidInput)
	}
	return nil
}

// Delay returns the wait before attempt n (0-indexed).
// Attempt 0 never waits; attempt n waits min(initial*multiplier^(n-1), max).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) || math.IsInf(d, 0) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
