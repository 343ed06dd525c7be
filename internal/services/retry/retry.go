// File: internal/services/retry/retry.go

// Package retry provides the one bounded retry/backoff helper shared by
// every polling point in the bot: source paging, download waiting and
// webhook delivery.
package retry

import (
	"context"
	"time"
)

// Config defines bounded retry behavior.
type Config struct {
	MaxAttempts int
	// Delay is the wait before the first retry; each subsequent retry
	// doubles it up to MaxDelay (no doubling when MaxDelay is zero).
	Delay    time.Duration
	MaxDelay time.Duration
	// Budget bounds the total time across all attempts. Zero means the
	// caller's context is the only deadline.
	Budget time.Duration
}

// DefaultConfig provides sensible defaults for transient UI failures.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// Permanent wraps an error to tell Do that retrying cannot help.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Do executes fn with bounded retries. The last error is returned once
// attempts or the budget are exhausted. A *Permanent error aborts
// immediately, unwrapped.
func Do(ctx context.Context, config *Config, fn func(ctx context.Context) error) error {
	if config.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Budget)
		defer cancel()
	}

	delay := config.Delay
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if perm, ok := err.(*Permanent); ok {
			return perm.Err
		}

		lastErr = err

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if config.MaxDelay > 0 {
				delay *= 2
				if delay > config.MaxDelay {
					delay = config.MaxDelay
				}
			}
		}
	}

	return lastErr
}

// Backoff returns the wait before attempt n (1-based) for the schedule
// defined by config, used by the webhook queue which persists its own
// attempt counter between process restarts.
func Backoff(config *Config, attempt int) time.Duration {
	delay := config.Delay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if config.MaxDelay > 0 && delay >= config.MaxDelay {
			return config.MaxDelay
		}
	}
	return delay
}
