// File: internal/domain/conversation.go
package domain

import "time"

// Conversation is the aggregate root for one archived chat thread.
// It is uniquely identified by PhoneNumber when present; conversations
// without a number (groups, unnumbered contacts) are unique by Title.
type Conversation struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Title          string    `gorm:"not null" json:"title"`
	PhoneNumber    *string   `gorm:"uniqueIndex" json:"phone_number"`
	Created        time.Time `json:"created"`
	Updated        time.Time `json:"updated"`
	ContextSummary string    `json:"context_summary"`
	Size           int       `gorm:"not null;default:0" json:"size"`
}
