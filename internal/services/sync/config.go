// File: internal/services/sync/config.go
package sync

import (
	"fmt"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/retry"
)

type Config struct {
	// MaxPages is the scroll budget per sync; exhausting it returns a
	// partial result flagged as possibly incomplete.
	MaxPages int

	// StopAfterEmptyPages is how many consecutive pages may contribute
	// zero new messages before the conversation head is assumed reached.
	StopAfterEmptyPages int

	// Retry bounds transient page-lookup failures. A page that still
	// fails after retries is treated as empty, not as a hard error.
	Retry *retry.Config
}

func (c *Config) Validate() error {
	if c.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive")
	}
	if c.StopAfterEmptyPages <= 0 {
		return fmt.Errorf("stop_after_empty_pages must be positive")
	}
	if c.Retry == nil {
		return fmt.Errorf("retry config is required")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		MaxPages:            50,
		StopAfterEmptyPages: 2,
		Retry:               retry.DefaultConfig(),
	}
}
