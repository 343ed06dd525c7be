// File: internal/services/attachment/config.go
package attachment

import (
	"fmt"
	"time"
)

type Config struct {
	// Dir is the destination directory the browser downloads into.
	Dir string

	// Timeout bounds one correlation window: trigger to settled file.
	Timeout time.Duration

	// PollInterval is the directory re-scan cadence used as a fallback
	// when filesystem events are delayed or coalesced.
	PollInterval time.Duration

	// PartialSuffixes mark in-progress downloads that must settle before
	// a result can be picked.
	PartialSuffixes []string
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("download dir is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:             dir,
		Timeout:         60 * time.Second,
		PollInterval:    500 * time.Millisecond,
		PartialSuffixes: []string{".crdownload", ".part", ".tmp"},
	}
}
