// File: internal/services/sync/engine.go

// Package sync implements the incremental synchronization engine: it
// pages an open conversation backwards through its history, decides
// which messages are new relative to the stored bookmark, and returns
// them in chronological order ready for persistence.
package sync

import (
	"context"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/retry"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
)

// Logger defines the logging interface used by the engine.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// AttachmentResolver correlates a triggered download with the file it
// produced. Known filenames are never downloaded again.
type AttachmentResolver interface {
	Resolve(ctx context.Context, nameHint string, trigger func(ctx context.Context) error, known map[string]struct{}) (string, error)
}

// Result is the outcome of one sync pass. Messages are ordered oldest
// first. Incomplete is set when the page budget ran out before either
// the bookmark or the conversation head was reached; the caller should
// persist what was collected and log a warning, not fail.
type Result struct {
	Messages   []source.RawMessage
	Incomplete bool
	PagesRead  int
}

type Engine struct {
	config      *Config
	attachments AttachmentResolver
	logger      Logger
}

func NewEngine(config *Config, attachments AttachmentResolver, logger Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, &SyncError{Type: ErrTypeConfig, Operation: "config", Message: err.Error()}
	}
	return &Engine{config: config, attachments: attachments, logger: logger}, nil
}

// Sync collects every message newer than bookmark from the open
// conversation. An empty bookmark means a first-time sync: collection
// continues until the head of the history.
//
// knownAttachments is the set of attachment filenames already archived;
// it is extended in place as new downloads resolve so that overlapping
// messages inside one pass do not re-trigger downloads.
func (e *Engine) Sync(ctx context.Context, conv source.Conversation, bookmark string, knownAttachments map[string]struct{}) (*Result, error) {
	seen := make(map[string]struct{})
	var collected []source.RawMessage
	emptyStreak := 0

	pagesRead := 0
	for ; pagesRead < e.config.MaxPages; pagesRead++ {
		page := e.fetchPage(ctx, conv)

		// Pages render oldest-to-newest; walk them newest-first so the
		// bookmark is hit before older duplicates are re-examined.
		newOnPage := 0
		for i := len(page) - 1; i >= 0; i-- {
			msg := page[i]
			if msg.MetaText == "" {
				continue
			}
			if _, dup := seen[msg.MetaText]; dup {
				continue
			}
			seen[msg.MetaText] = struct{}{}

			if bookmark != "" && msg.MetaText == bookmark {
				e.logger.Debug("bookmark reached", "pages_read", pagesRead+1, "new_messages", len(collected))
				reverseChronological(collected)
				return &Result{Messages: collected, PagesRead: pagesRead + 1}, nil
			}

			e.resolveAttachment(ctx, conv, &msg, knownAttachments)
			collected = append(collected, msg)
			newOnPage++
		}

		if newOnPage == 0 {
			emptyStreak++
			if emptyStreak >= e.config.StopAfterEmptyPages {
				e.logger.Debug("conversation head reached", "pages_read", pagesRead+1, "new_messages", len(collected))
				reverseChronological(collected)
				return &Result{Messages: collected, PagesRead: pagesRead + 1}, nil
			}
		} else {
			emptyStreak = 0
		}
	}

	e.logger.Warn("page budget exhausted before bookmark; results possibly incomplete",
		"max_pages", e.config.MaxPages, "new_messages", len(collected))
	reverseChronological(collected)
	return &Result{Messages: collected, Incomplete: true, PagesRead: pagesRead}, nil
}

// fetchPage retries transient lookup failures; a page that never loads
// degrades to empty so it feeds the head-reached condition instead of
// aborting the sync.
func (e *Engine) fetchPage(ctx context.Context, conv source.Conversation) []source.RawMessage {
	var page []source.RawMessage
	err := retry.Do(ctx, e.config.Retry, func(ctx context.Context) error {
		p, err := conv.NextOlderPage(ctx)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		e.logger.Warn("page lookup failed after retries; treating page as empty", "error", err)
		return nil
	}
	return page
}

func (e *Engine) resolveAttachment(ctx context.Context, conv source.Conversation, msg *source.RawMessage, known map[string]struct{}) {
	if e.attachments == nil || !msg.Content.HasAttachment() || msg.AttachmentFilename != nil {
		return
	}

	trigger := func(ctx context.Context) error {
		return conv.TriggerDownload(ctx, msg.MetaText)
	}
	filename, err := e.attachments.Resolve(ctx, msg.Content.NameHint(), trigger, known)
	if err != nil {
		// Download failures are absorbed: the message is archived with a
		// placeholder and never retried automatically.
		e.logger.Warn("attachment download failed", "meta_text", msg.MetaText, "error", err)
		msg.AttachmentFilename = &filename
		return
	}

	msg.AttachmentFilename = &filename
	known[filename] = struct{}{}
}

func reverseChronological(msgs []source.RawMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
