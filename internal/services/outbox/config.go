// File: internal/services/outbox/config.go
package outbox

import (
	"fmt"
	"time"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/retry"
)

type Config struct {
	// QueueSize bounds the reply-intent queue; bursts past it are
	// rejected instead of spawning unbounded work.
	QueueSize int

	// PollInterval is the delivery worker's cadence for picking up due
	// webhook rows.
	PollInterval time.Duration

	// MaxAttempts is the per-delivery ceiling; once reached the row is
	// marked failed and never retried.
	MaxAttempts int

	// Backoff shapes the delay between delivery attempts.
	Backoff *retry.Config
}

func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.Backoff == nil {
		return fmt.Errorf("backoff config is required")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		QueueSize:    32,
		PollInterval: 15 * time.Second,
		MaxAttempts:  5,
		Backoff: &retry.Config{
			MaxAttempts: 5,
			Delay:       30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
	}
}
