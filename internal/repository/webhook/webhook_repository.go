// File: internal/repository/webhook/webhook_repository.go
package webhook

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
)

var ErrSubscriptionNotFound = errors.New("webhook subscription not found")

type gormWebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &gormWebhookRepository{db: db}
}

func (r *gormWebhookRepository) CreateSubscription(ctx context.Context, sub *domain.WebhookSubscription) error {
	if sub.ID == "" || sub.URL == "" || sub.EventType == "" {
		return errors.New("subscription id, url and event type are required")
	}

	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		log.Printf("[WebhookRepository] Database error creating subscription: %v", err)
		return errors.New("database error creating subscription")
	}

	log.Printf("[WebhookRepository] Subscription created: %s for %s", sub.ID, sub.EventType)
	return nil
}

func (r *gormWebhookRepository) DeleteSubscription(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("subscription id is required")
	}

	result := r.db.WithContext(ctx).Delete(&domain.WebhookSubscription{}, "id = ?", id)
	if result.Error != nil {
		log.Printf("[WebhookRepository] Database error deleting subscription %s: %v", id, result.Error)
		return errors.New("database error deleting subscription")
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *gormWebhookRepository) FindSubscriptions(ctx context.Context) ([]domain.WebhookSubscription, error) {
	var subs []domain.WebhookSubscription
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&subs).Error; err != nil {
		log.Printf("[WebhookRepository] Database error listing subscriptions: %v", err)
		return nil, errors.New("database error listing subscriptions")
	}
	return subs, nil
}

func (r *gormWebhookRepository) FindSubscriptionsByEvent(ctx context.Context, eventType string) ([]domain.WebhookSubscription, error) {
	if eventType == "" {
		return nil, errors.New("event type is required")
	}

	var subs []domain.WebhookSubscription
	if err := r.db.WithContext(ctx).Where("event_type = ?", eventType).Find(&subs).Error; err != nil {
		log.Printf("[WebhookRepository] Database error listing subscriptions for %s: %v", eventType, err)
		return nil, errors.New("database error listing subscriptions")
	}
	return subs, nil
}

func (r *gormWebhookRepository) EnqueueDelivery(ctx context.Context, delivery *domain.WebhookDelivery) error {
	if delivery.ID == "" || delivery.URL == "" {
		return errors.New("delivery id and url are required")
	}

	if err := r.db.WithContext(ctx).Create(delivery).Error; err != nil {
		log.Printf("[WebhookRepository] Database error enqueueing delivery: %v", err)
		return errors.New("database error enqueueing delivery")
	}
	return nil
}

func (r *gormWebhookRepository) DueDeliveries(ctx context.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var deliveries []domain.WebhookDelivery
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", domain.DeliveryPending, now).
		Order("next_attempt_at asc").
		Limit(limit).
		Find(&deliveries).Error
	if err != nil {
		log.Printf("[WebhookRepository] Database error listing due deliveries: %v", err)
		return nil, errors.New("database error listing due deliveries")
	}
	return deliveries, nil
}

func (r *gormWebhookRepository) UpdateDelivery(ctx context.Context, delivery *domain.WebhookDelivery) error {
	if delivery.ID == "" {
		return errors.New("delivery id is required")
	}

	delivery.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(delivery).Error; err != nil {
		log.Printf("[WebhookRepository] Database error updating delivery %s: %v", delivery.ID, err)
		return errors.New("database error updating delivery")
	}
	return nil
}
