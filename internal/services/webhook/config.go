// File: internal/services/webhook/config.go
package webhook

import (
	"fmt"
	"time"
)

type Config struct {
	// Secret is sent with every delivery so receivers can authenticate
	// the origin.
	Secret string

	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("webhook secret is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func DefaultConfig(secret string) *Config {
	return &Config{
		Secret:  secret,
		Timeout: 10 * time.Second,
	}
}
