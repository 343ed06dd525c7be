// File: internal/services/source/interface.go
package source

import (
	"context"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/contact"
)

// Conversation is an open chat inside a live session. Pages are served
// newest-first: each NextOlderPage call scrolls one screen further back
// and returns the messages now visible, oldest first within the page.
// Pages may overlap; callers deduplicate on MetaText.
type Conversation interface {
	Identity() contact.Identity

	// NextOlderPage returns an empty slice once the top of the history
	// is reached. Errors are transient lookup failures; callers retry.
	NextOlderPage(ctx context.Context) ([]RawMessage, error)

	// TriggerDownload asks the automation layer to start downloading the
	// attachment of the identified message. Which file lands in the
	// download directory is resolved separately by the correlator.
	TriggerDownload(ctx context.Context, metaText string) error

	SendText(ctx context.Context, text string) error

	Close(ctx context.Context) error
}

// Session is one exclusive automation session against the remote web
// client. At most one session exists at a time; arbitration lives in
// the session lock, not here.
type Session interface {
	OpenConversation(ctx context.Context, identity string) (Conversation, error)

	// UnreadChats lists the identities currently flagged unread.
	UnreadChats(ctx context.Context) ([]string, error)

	Close(ctx context.Context) error
}

// Factory opens sessions. Open failures are reported as *SourceError
// with ErrTypeOpen so callers can tell them apart from sync failures.
type Factory interface {
	Open(ctx context.Context) (Session, error)
}
