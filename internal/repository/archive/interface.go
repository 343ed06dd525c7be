// File: internal/repository/archive/interface.go
package archive

import (
	"context"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/contact"
)

// Unreplied pairs a conversation with its newest message, used to pick
// conversations whose last word belongs to the other party.
type Unreplied struct {
	Conversation domain.Conversation
	LastMessage  domain.Message
}

type ArchiveRepository interface {
	// FindOrCreateConversation resolves the owning conversation row:
	// by canonical phone number when the identity carries one, else by
	// title among phone-less conversations. The title is refreshed when
	// the display name changed.
	FindOrCreateConversation(ctx context.Context, identity contact.Identity) (*domain.Conversation, error)

	// SaveBatch appends messages idempotently and returns how many rows
	// were actually inserted. Index assignment, size and summary updates
	// happen in the same transaction as the inserts.
	SaveBatch(ctx context.Context, conversationID uint, messages []domain.Message) (int, error)

	// Bookmark returns the natural identifier of the newest stored
	// message, or "" for a conversation with no messages yet.
	Bookmark(ctx context.Context, conversationID uint) (string, error)

	FindByTitle(ctx context.Context, title string) (*domain.Conversation, error)
	FindAll(ctx context.Context) ([]domain.Conversation, error)

	// LastMessages returns the newest count messages in chronological
	// order.
	LastMessages(ctx context.Context, conversationID uint, count int) ([]domain.Message, error)

	// FindUnreplied lists conversations whose newest message was sent by
	// the other party.
	FindUnreplied(ctx context.Context) ([]Unreplied, error)

	// KnownAttachments returns every distinct attachment filename on
	// record, across all conversations.
	KnownAttachments(ctx context.Context) (map[string]struct{}, error)
}
