package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policy(attempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: delay}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	v, err := Retry(context.Background(), policy(3, 10*time.Millisecond), nil, func(context.Context) (string, error) {
		attempts++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetry_EventualSuccess(t *testing.T) {
	attempts := 0
	v, err := Retry(context.Background(), policy(5, time.Millisecond), nil, func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("temporary error")
		}
		return attempts, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	v, err := Retry(context.Background(), policy(3, time.Millisecond), nil, func(context.Context) ([]float32, error) {
		attempts++
		return []float32{1}, expectedErr
	})
	assert.Equal(t, expectedErr, err, "should return the last error")
	assert.Nil(t, v, "should return the zero value on failure")
	assert.Equal(t, 3, attempts, "should attempt exactly MaxAttempts times")
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Retry(ctx, policy(10, time.Millisecond), nil, func(context.Context) (struct{}, error) {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return struct{}{}, errors.New("error")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts, "should stop when context is canceled")
}

func TestRetry_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	_, err := Retry(context.Background(), policy(5, 10*time.Millisecond), nil, func(context.Context) (bool, error) {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return false, errors.New("error")
		}
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, delays, 3)

	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(70))

	uncapped := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second}
	assert.Equal(t, 8*time.Second, uncapped.Delay(4))
}

func TestRetry_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		attempts := 0
		_, err := Retry(context.Background(), policy(n, time.Millisecond), nil, func(context.Context) (int, error) {
			attempts++
			return 0, nil
		})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Equal(t, 0, attempts)
	}
}
