// File: internal/repository/archive/archive_repository.go
package archive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/contact"
)

var ErrConversationNotFound = errors.New("conversation not found")

// summaryExcerptLen bounds each excerpt inside the context summary.
const summaryExcerptLen = 30

type gormArchiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &gormArchiveRepository{db: db}
}

func (r *gormArchiveRepository) FindOrCreateConversation(ctx context.Context, identity contact.Identity) (*domain.Conversation, error) {
	if identity.Name == "" && identity.Number == nil {
		return nil, errors.New("identity must carry a name or a number")
	}

	var conv domain.Conversation
	query := r.db.WithContext(ctx)
	if identity.Number != nil {
		query = query.Where("phone_number = ?", *identity.Number)
	} else {
		query = query.Where("phone_number IS NULL AND title = ?", identity.Name)
	}

	err := query.First(&conv).Error
	if err == nil {
		// Saved-contact renames show up as a changed display name.
		if identity.Name != "" && conv.Title != identity.Name {
			if err := r.db.WithContext(ctx).Model(&conv).Update("title", identity.Name).Error; err != nil {
				log.Printf("[ArchiveRepository] Database error updating title for conversation ID %d: %v", conv.ID, err)
				return nil, errors.New("database error updating conversation title")
			}
			conv.Title = identity.Name
		}
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[ArchiveRepository] Database error looking up conversation '%s': %v", identity.Name, err)
		return nil, errors.New("database error finding conversation")
	}

	now := time.Now()
	conv = domain.Conversation{
		Title:       identity.Name,
		PhoneNumber: identity.Number,
		Created:     now,
		Updated:     now,
	}
	if conv.Title == "" && identity.Number != nil {
		conv.Title = *identity.Number
	}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		log.Printf("[ArchiveRepository] Database error creating conversation '%s': %v", conv.Title, err)
		return nil, errors.New("database error creating conversation")
	}

	log.Printf("[ArchiveRepository] Conversation created with ID: %d", conv.ID)
	return &conv, nil
}

// SaveBatch inserts messages oldest first. Rows whose meta_text is
// already on record are silently skipped; that collision is the
// idempotency mechanism, not an error. Index assignment continues from
// the stored size, so replays in any grouping converge to indexes
// 1..size with no gaps.
func (r *gormArchiveRepository) SaveBatch(ctx context.Context, conversationID uint, messages []domain.Message) (int, error) {
	if conversationID == 0 {
		return 0, errors.New("invalid conversation ID")
	}
	if len(messages) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv domain.Conversation
		if err := tx.First(&conv, conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}

		for i := range messages {
			msg := messages[i]
			msg.ID = 0
			msg.ConversationID = conversationID
			msg.MessageIndex = conv.Size + inserted + 1
			if msg.StoredDate.IsZero() {
				msg.StoredDate = time.Now()
			}

			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "meta_text"}},
				DoNothing: true,
			}).Create(&msg)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				inserted++
			}
		}

		conv.Size += inserted
		summary, err := r.buildSummary(tx, conversationID, conv.Size)
		if err != nil {
			return err
		}
		return tx.Model(&conv).Updates(map[string]interface{}{
			"size":            conv.Size,
			"context_summary": summary,
			"updated":         time.Now(),
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return 0, err
		}
		log.Printf("[ArchiveRepository] Database error saving batch for conversation ID %d: %v", conversationID, err)
		return 0, errors.New("database error saving message batch")
	}

	log.Printf("[ArchiveRepository] Saved batch for conversation %d: %d new of %d", conversationID, inserted, len(messages))
	return inserted, nil
}

// buildSummary renders the derived context summary from the oldest and
// newest stored message inside the same transaction as the inserts.
func (r *gormArchiveRepository) buildSummary(tx *gorm.DB, conversationID uint, size int) (string, error) {
	if size == 0 {
		return "", nil
	}

	var first, last domain.Message
	if err := tx.Where("conversation_id = ?", conversationID).Order("message_index asc").First(&first).Error; err != nil {
		return "", err
	}
	if err := tx.Where("conversation_id = ?", conversationID).Order("message_index desc").First(&last).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("Start: '%s' | End: '%s' | Total: %d msgs",
		excerpt(first.Content), excerpt(last.Content), size), nil
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) > summaryExcerptLen {
		return string(runes[:summaryExcerptLen])
	}
	return s
}

func (r *gormArchiveRepository) Bookmark(ctx context.Context, conversationID uint) (string, error) {
	if conversationID == 0 {
		return "", errors.New("invalid conversation ID")
	}

	var msg domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("message_index desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		log.Printf("[ArchiveRepository] Database error reading bookmark for conversation ID %d: %v", conversationID, err)
		return "", errors.New("database error reading bookmark")
	}
	return msg.MetaText, nil
}

func (r *gormArchiveRepository) FindByTitle(ctx context.Context, title string) (*domain.Conversation, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}

	var conv domain.Conversation
	err := r.db.WithContext(ctx).Where("title = ?", title).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		log.Printf("[ArchiveRepository] Database error finding conversation '%s': %v", title, err)
		return nil, errors.New("database error finding conversation")
	}
	return &conv, nil
}

func (r *gormArchiveRepository) FindAll(ctx context.Context) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	err := r.db.WithContext(ctx).Order("updated desc").Find(&convs).Error
	if err != nil {
		log.Printf("[ArchiveRepository] Database error listing conversations: %v", err)
		return nil, errors.New("database error listing conversations")
	}
	return convs, nil
}

func (r *gormArchiveRepository) LastMessages(ctx context.Context, conversationID uint, count int) ([]domain.Message, error) {
	if conversationID == 0 {
		return nil, errors.New("invalid conversation ID")
	}
	if count <= 0 || count > 500 {
		count = 50
	}

	var msgs []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("message_index desc").
		Limit(count).
		Find(&msgs).Error
	if err != nil {
		log.Printf("[ArchiveRepository] Database error reading messages for conversation ID %d: %v", conversationID, err)
		return nil, errors.New("database error reading messages")
	}

	// Reverse to oldest→newest.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *gormArchiveRepository) FindUnreplied(ctx context.Context) ([]Unreplied, error) {
	var convs []domain.Conversation
	err := r.db.WithContext(ctx).Where("size > 0").Find(&convs).Error
	if err != nil {
		log.Printf("[ArchiveRepository] Database error listing conversations for reply scan: %v", err)
		return nil, errors.New("database error listing conversations")
	}

	var unreplied []Unreplied
	for _, conv := range convs {
		var last domain.Message
		err := r.db.WithContext(ctx).
			Where("conversation_id = ?", conv.ID).
			Order("message_index desc").
			First(&last).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			log.Printf("[ArchiveRepository] Database error reading last message for conversation ID %d: %v", conv.ID, err)
			return nil, errors.New("database error reading last message")
		}
		if last.Role == domain.RoleUser {
			unreplied = append(unreplied, Unreplied{Conversation: conv, LastMessage: last})
		}
	}
	return unreplied, nil
}

func (r *gormArchiveRepository) KnownAttachments(ctx context.Context) (map[string]struct{}, error) {
	var filenames []string
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("attachment_filename IS NOT NULL").
		Distinct().
		Pluck("attachment_filename", &filenames).Error
	if err != nil {
		log.Printf("[ArchiveRepository] Database error listing attachments: %v", err)
		return nil, errors.New("database error listing attachments")
	}

	known := make(map[string]struct{}, len(filenames))
	for _, name := range filenames {
		known[name] = struct{}{}
	}
	return known, nil
}
