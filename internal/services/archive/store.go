// File: internal/services/archive/store.go

// Package archive is the persistence facade of the sync pipeline: it
// turns raw source messages into archived records and delegates the
// idempotent storage work to the repository.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/contact"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
)

// Logger defines the logging interface used by the store.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type Store struct {
	repo      archive.ArchiveRepository
	ownerName string
	logger    Logger
}

func NewStore(repo archive.ArchiveRepository, ownerName string, logger Logger) *Store {
	if ownerName == "" {
		ownerName = "Me"
	}
	return &Store{repo: repo, ownerName: ownerName, logger: logger}
}

// SaveBatch archives one sync result. Replays of already-stored
// messages are counted out by the repository, so callers may hand over
// overlapping batches freely.
func (s *Store) SaveBatch(ctx context.Context, identity contact.Identity, messages []source.RawMessage) (int, *domain.Conversation, error) {
	conv, err := s.repo.FindOrCreateConversation(ctx, identity)
	if err != nil {
		return 0, nil, err
	}
	if len(messages) == 0 {
		return 0, conv, nil
	}

	records := make([]domain.Message, 0, len(messages))
	for _, raw := range messages {
		records = append(records, s.toRecord(raw))
	}

	inserted, err := s.repo.SaveBatch(ctx, conv.ID, records)
	if err != nil {
		return 0, nil, err
	}

	s.logger.Info("batch archived", "conversation", conv.Title, "new_messages", inserted, "batch_size", len(messages))
	return inserted, conv, nil
}

// RecordOutgoing archives a reply the bot itself just sent. The meta
// text is synthesized from the send time, the conversation key and the
// text so the row has a stable natural key before the next sync
// re-observes the message remotely. meta_text is unique across all
// conversations, so the key carries the recipient: the same reply sent
// to two chats in the same second must yield two rows.
func (s *Store) RecordOutgoing(ctx context.Context, identity contact.Identity, text string) (*domain.Conversation, error) {
	now := time.Now()
	raw := source.RawMessage{
		MetaText: fmt.Sprintf("[%s] %s -> %s: %s", now.Format("3:04:05 PM, 2/1/2006"), s.ownerName, identity.Key(), text),
		Sender:   s.ownerName,
		Outgoing: true,
		Content:  domain.TextContent(text),
	}

	_, conv, err := s.SaveBatch(ctx, identity, []source.RawMessage{raw})
	return conv, err
}

func (s *Store) Bookmark(ctx context.Context, conversationID uint) (string, error) {
	return s.repo.Bookmark(ctx, conversationID)
}

func (s *Store) KnownAttachments(ctx context.Context) (map[string]struct{}, error) {
	return s.repo.KnownAttachments(ctx)
}

func (s *Store) SummaryByTitle(ctx context.Context, title string) (*domain.Conversation, error) {
	return s.repo.FindByTitle(ctx, title)
}

func (s *Store) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.repo.FindAll(ctx)
}

// LastMessagesByTitle returns the newest count messages of the named
// conversation, oldest first.
func (s *Store) LastMessagesByTitle(ctx context.Context, title string, count int) ([]domain.Message, error) {
	conv, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	return s.repo.LastMessages(ctx, conv.ID, count)
}

// Unreplied lists conversations waiting on a reply from this side.
func (s *Store) Unreplied(ctx context.Context) ([]archive.Unreplied, error) {
	return s.repo.FindUnreplied(ctx)
}

// History returns the prompt window for reply generation: the newest
// limit messages in chronological order.
func (s *Store) History(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error) {
	return s.repo.LastMessages(ctx, conversationID, limit)
}

// toRecord maps one raw source message onto an archive row. A missing
// or unparseable presentation time falls back to the storage time.
func (s *Store) toRecord(raw source.RawMessage) domain.Message {
	now := time.Now()
	sending, ok := raw.SendingTime()
	if !ok {
		sending = now
	}

	sender := raw.Sender
	if raw.Outgoing {
		sender = s.ownerName
	}

	return domain.Message{
		Role:               raw.Role(),
		SenderName:         sender,
		Content:            raw.Content.Display(),
		SendingDate:        sending,
		StoredDate:         now,
		MetaText:           raw.MetaText,
		AttachmentFilename: raw.AttachmentFilename,
	}
}
