// File: internal/repository/webhook/interface.go
package webhook

import (
	"context"
	"time"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
)

type WebhookRepository interface {
	CreateSubscription(ctx context.Context, sub *domain.WebhookSubscription) error
	DeleteSubscription(ctx context.Context, id string) error
	FindSubscriptions(ctx context.Context) ([]domain.WebhookSubscription, error)
	FindSubscriptionsByEvent(ctx context.Context, eventType string) ([]domain.WebhookSubscription, error)

	// EnqueueDelivery persists one pending delivery row; the outbox
	// worker picks it up on its next poll.
	EnqueueDelivery(ctx context.Context, delivery *domain.WebhookDelivery) error

	// DueDeliveries returns pending deliveries whose next attempt time
	// has passed, oldest first.
	DueDeliveries(ctx context.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error)

	UpdateDelivery(ctx context.Context, delivery *domain.WebhookDelivery) error
}
