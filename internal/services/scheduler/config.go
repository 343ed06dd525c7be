// File: internal/services/scheduler/config.go
package scheduler

import (
	"fmt"
	"time"
)

type Config struct {
	// SyncInterval is the cadence of the unread-chat sync cycle.
	SyncInterval time.Duration

	// ReplyInterval is the cadence of the auto-reply scan.
	ReplyInterval time.Duration

	// ReplyMaxAge bounds how stale an unanswered message may be and
	// still receive a generated reply.
	ReplyMaxAge time.Duration

	// ReplySuppress is how long one conversation stays exempt after a
	// reply was queued for it, so consecutive scans do not double-queue
	// while the send is still waiting on the session.
	ReplySuppress time.Duration

	// Blacklist names conversations that never get generated replies.
	Blacklist []string

	// HistoryWindow is how many archived messages feed reply prompts.
	HistoryWindow int
}

func (c *Config) Validate() error {
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive")
	}
	if c.ReplyInterval <= 0 {
		return fmt.Errorf("reply_interval must be positive")
	}
	if c.ReplyMaxAge <= 0 {
		return fmt.Errorf("reply_max_age must be positive")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("history_window must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		SyncInterval:  60 * time.Second,
		ReplyInterval: 3 * time.Minute,
		ReplyMaxAge:   72 * time.Hour,
		ReplySuppress: 10 * time.Minute,
		HistoryWindow: 20,
	}
}
