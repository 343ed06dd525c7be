// File: internal/services/source/types.go
package source

import (
	"time"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
)

// sendingLayout matches the date/time presentation the remote client
// embeds in a message's meta text, e.g. "[4:07 PM, 12/08/2025]".
const sendingLayout = "2/1/2006 3:04 PM"

// RawMessage is one message as produced by the automation layer for an
// open conversation. MetaText is the opaque natural identifier used for
// deduplication and bookmarks; nothing beyond uniqueness and stability
// may be assumed about its contents.
type RawMessage struct {
	MetaText string                `json:"meta_text"`
	Sender   string                `json:"sender"`
	Outgoing bool                  `json:"outgoing"`
	Date     string                `json:"date"`
	Time     string                `json:"time"`
	Content  domain.MessageContent `json:"content"`

	// AttachmentFilename is filled in by the sync engine once a download
	// has been correlated, before the message reaches the store.
	AttachmentFilename *string `json:"attachment_filename,omitempty"`
}

// Role maps the message direction onto the archived role.
func (m RawMessage) Role() string {
	if m.Outgoing {
		return domain.RoleMe
	}
	return domain.RoleUser
}

// SendingTime parses the presentation date/time. The second return is
// false when the presentation cannot be parsed, in which case callers
// fall back to the storage timestamp.
func (m RawMessage) SendingTime() (time.Time, bool) {
	t, err := time.ParseInLocation(sendingLayout, m.Date+" "+m.Time, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Logger defines the logging interface used across source sessions.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}
