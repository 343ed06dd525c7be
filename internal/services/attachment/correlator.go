// File: internal/services/attachment/correlator.go

// Package attachment correlates triggered media downloads with the files
// they eventually produce in the shared download directory. The browser
// saves files under names the archiver does not control, so correlation
// is by time: the newest file that settled after the trigger wins.
package attachment

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FailedPlaceholder is archived in place of a filename when a download
// could not be correlated. Failed downloads are never retried.
const FailedPlaceholder = "[DOWNLOAD_FAILED]"

// Logger defines the logging interface used by the correlator.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type Correlator struct {
	config *Config
	logger Logger
}

func NewCorrelator(config *Config, logger Logger) (*Correlator, error) {
	if err := config.Validate(); err != nil {
		return nil, &AttachmentError{Type: ErrTypeConfig, Operation: "config", Message: err.Error()}
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, &AttachmentError{Type: ErrTypeDir, Operation: "config", Message: "could not create download dir", Cause: err}
	}
	return &Correlator{config: config, logger: logger}, nil
}

// Resolve returns the filename belonging to one attachment. When the
// name hint is already archived the download is skipped entirely.
// Otherwise trigger starts the download and Resolve waits for the
// directory to settle. On failure the returned name is the failure
// placeholder, so callers can persist it directly.
func (c *Correlator) Resolve(ctx context.Context, nameHint string, trigger func(ctx context.Context) error, known map[string]struct{}) (string, error) {
	if nameHint != "" {
		if _, ok := known[nameHint]; ok {
			c.logger.Debug("attachment already archived, skipping download", "filename", nameHint)
			return nameHint, nil
		}
	}

	startedAt := time.Now()
	if err := trigger(ctx); err != nil {
		return FailedPlaceholder, &AttachmentError{Type: ErrTypeTrigger, Operation: "resolve", Message: "download trigger failed", Cause: err}
	}

	filename, err := c.awaitSettled(ctx, startedAt)
	if err != nil {
		return FailedPlaceholder, err
	}
	c.logger.Info("attachment download correlated", "filename", filename)
	return filename, nil
}

// awaitSettled waits until the directory holds no in-progress downloads
// and at least one file newer than startedAt, then returns the newest
// such file. Filesystem events only wake the scan early; the poll
// ticker guarantees progress when events are lost.
func (c *Correlator) awaitSettled(ctx context.Context, startedAt time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(c.config.Dir); err == nil {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		if filename, ok := c.scan(startedAt); ok {
			return filename, nil
		}
		select {
		case <-ctx.Done():
			return "", &AttachmentError{Type: ErrTypeTimeout, Operation: "resolve", Message: "download did not settle in time", Cause: ctx.Err()}
		case <-events:
		case <-ticker.C:
		}
	}
}

// scan reports the newest file modified at or after startedAt, rounded
// down to whole seconds because some filesystems store coarse mtimes,
// but only once no partial-download markers remain in the directory.
func (c *Correlator) scan(startedAt time.Time) (string, bool) {
	entries, err := os.ReadDir(c.config.Dir)
	if err != nil {
		return "", false
	}

	cutoff := startedAt.Truncate(time.Second)
	var newest string
	var newestAt time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if c.isPartial(entry.Name()) {
			return "", false
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) && info.ModTime().After(newestAt) {
			newest = entry.Name()
			newestAt = info.ModTime()
		}
	}
	return newest, newest != ""
}

func (c *Correlator) isPartial(name string) bool {
	for _, suffix := range c.config.PartialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
