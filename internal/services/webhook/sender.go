// File: internal/services/webhook/sender.go

// Package webhook delivers event notifications to subscribed URLs.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const secretHeader = "X-Webhook-Secret"

// Logger defines the logging interface used by the sender.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type Sender struct {
	config *Config
	client *http.Client
	logger Logger
}

func NewSender(config *Config, logger Logger) (*Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("webhook config: %w", err)
	}
	return &Sender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// Deliver POSTs one JSON payload to the subscriber. Any non-2xx status
// is a delivery failure; the outbox decides whether to retry.
func (s *Sender) Deliver(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, s.config.Secret)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery to %s: %w", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery to %s: received status %d", url, resp.StatusCode)
	}

	s.logger.Debug("webhook delivered", "url", url)
	return nil
}
