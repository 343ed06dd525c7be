// File: internal/domain/webhook.go
package domain

import "time"

// Webhook event types emitted by the archiver.
const (
	EventMessageReceived = "message_received"
	EventMessageSent     = "message_sent"
)

// Webhook delivery states. A delivery starts pending and becomes
// delivered, or failed once the attempt ceiling is reached.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// WebhookSubscription registers an external URL to be notified of
// archiver events.
type WebhookSubscription struct {
	ID        string    `gorm:"primarykey" json:"id"`
	URL       string    `gorm:"not null" json:"url"`
	EventType string    `gorm:"not null;index" json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookDelivery is one queued notification for one subscription.
// Attempts counts delivery tries; NextAttemptAt implements the backoff
// schedule between them.
type WebhookDelivery struct {
	ID             string    `gorm:"primarykey" json:"id"`
	SubscriptionID string    `gorm:"not null;index" json:"subscription_id"`
	URL            string    `gorm:"not null" json:"url"`
	EventType      string    `gorm:"not null" json:"event_type"`
	Payload        string    `gorm:"not null" json:"payload"`
	Status         string    `gorm:"not null;index;default:pending" json:"status"`
	Attempts       int       `gorm:"not null;default:0" json:"attempts"`
	LastError      string    `json:"last_error"`
	NextAttemptAt  time.Time `gorm:"index" json:"next_attempt_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
