// File: internal/domain/message.go
package domain

import "time"

const (
	RoleMe   = "me"   // sent from the archived account itself
	RoleUser = "user" // sent by the remote party
)

// Message is a single archived message. Rows are immutable once
// inserted; MetaText is the natural key that makes replayed batches
// idempotent, and MessageIndex is 1-based and contiguous per
// conversation.
type Message struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	ConversationID     uint      `gorm:"not null;index" json:"conversation_id"`
	Role               string    `gorm:"not null" json:"role"`
	SenderName         string    `gorm:"not null" json:"sender_name"`
	Content            string    `gorm:"not null" json:"content"`
	MessageIndex       int       `gorm:"not null" json:"message_index"`
	SendingDate        time.Time `json:"sending_date"`
	StoredDate         time.Time `json:"stored_date"`
	MetaText           string    `gorm:"uniqueIndex;not null" json:"meta_text"`
	AttachmentFilename *string   `json:"attachment_filename"`
}
