package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.NoError(t, p.Validate())
	assert.Equal(t, 3, p.MaxRetries)
}

func TestRetryPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		policy RetryPolicy
	}{
		{"negative retries", RetryPolicy{MaxRetries: -1, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 2}},
		{"zero delay", RetryPolicy{MaxRetries: 1, InitialDelay: 0, MaxDelay: time.Second, Multiplier: 2}},
		{"max below initial", RetryPolicy{MaxRetries: 1, InitialDelay: 2 * time.Second, MaxDelay: time.Second, Multiplier: 2}},
		{"shrinking multiplier", RetryPolicy{MaxRetries: 1, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.policy.Validate(), ErrInvalidInput))
		})
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}

	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, 800*time.Millisecond, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(5), "capped at MaxDelay")
	assert.Equal(t, time.Second, p.Delay(500))
}
