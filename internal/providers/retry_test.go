package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return NewError(CodeNetwork, "connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return NewError(CodeNotFound, "no such coin")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsNotFound(err))
}

func TestRetryPolicyExhaustsBudget(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return NewError(CodeTimeout, "deadline exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicyUntypedErrorsAreNotRetried(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain failure")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, func(ctx context.Context) error {
		return NewError(CodeNetwork, "flaky")
	})

	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeTimeout, pe.Code)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NewError(CodeTimeout, "slow")))
	assert.True(t, Retryable(NewError(CodeRateLimited, "429")))
	assert.False(t, Retryable(NewError(CodeDecode, "bad json")))
	assert.False(t, Retryable(errors.New("untyped")))

	assert.True(t, Retryable(StatusError(503, "https://x")))
	assert.False(t, Retryable(StatusError(400, "https://x")))
}

func TestStatusErrorMapping(t *testing.T) {
	notFound := StatusError(404, "https://x")
	assert.Equal(t, CodeNotFound, notFound.Code)

	limited := StatusError(429, "https://x")
	assert.Equal(t, CodeRateLimited, limited.Code)

	server := StatusError(500, "https://x")
	assert.Equal(t, CodeHTTP, server.Code)
	assert.Equal(t, 500, server.Details["status"])
}
