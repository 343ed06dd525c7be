// File: internal/services/session/config.go
package session

import (
	"fmt"
	"time"
)

type Config struct {
	// LoginTimeout bounds one interactive login attempt.
	LoginTimeout time.Duration

	// CloseTimeout bounds session cleanup, which runs even when the
	// caller's context has already expired.
	CloseTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.LoginTimeout <= 0 {
		return fmt.Errorf("login_timeout must be positive")
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("close_timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		LoginTimeout: 3 * time.Minute,
		CloseTimeout: 15 * time.Second,
	}
}
