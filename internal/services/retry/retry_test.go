// File: internal/services/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), &Config{MaxAttempts: 3, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	lastErr := errors.New("still broken")
	calls := 0
	err := Do(context.Background(), &Config{MaxAttempts: 2, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return lastErr
	})

	require.Equal(t, lastErr, err)
	require.Equal(t, 2, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	cause := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), &Config{MaxAttempts: 5, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return &Permanent{Err: cause}
	})

	require.Equal(t, cause, err)
	require.Equal(t, 1, calls)
}

func TestDoRespectsBudget(t *testing.T) {
	cfg := &Config{MaxAttempts: 100, Delay: 20 * time.Millisecond, Budget: 30 * time.Millisecond}
	start := time.Now()
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		return errors.New("never succeeds")
	})

	require.Error(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBackoffDoublesUpToMax(t *testing.T) {
	cfg := &Config{MaxAttempts: 5, Delay: time.Second, MaxDelay: 4 * time.Second}

	require.Equal(t, time.Second, Backoff(cfg, 1))
	require.Equal(t, 2*time.Second, Backoff(cfg, 2))
	require.Equal(t, 4*time.Second, Backoff(cfg, 3))
	require.Equal(t, 4*time.Second, Backoff(cfg, 4))
}
