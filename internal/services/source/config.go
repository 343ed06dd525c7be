// File: internal/services/source/config.go
package source

import (
	"fmt"
	"time"
)

type Config struct {
	// BridgeURL is the base URL of the browser-automation sidecar.
	BridgeURL string

	// Timeout applies to individual bridge requests. OpenTimeout covers
	// session opening, which may involve restoring a browser profile.
	Timeout     time.Duration
	OpenTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.BridgeURL == "" {
		return fmt.Errorf("bridge_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OpenTimeout <= 0 {
		return fmt.Errorf("open_timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		OpenTimeout: 2 * time.Minute,
	}
}
