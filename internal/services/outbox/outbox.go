// File: internal/services/outbox/outbox.go

// Package outbox owns the two background queues of the bot: reply
// intents waiting for the shared session, and webhook deliveries with
// at-least-once semantics. Each queue is consumed by a single worker.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	webhookrepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/webhook"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/retry"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/session"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/webhook"
)

// ErrQueueFull is returned when the reply queue cannot accept another
// intent; callers surface it instead of blocking.
var ErrQueueFull = errors.New("reply queue is full")

// ReplyIntent is one queued outgoing message.
type ReplyIntent struct {
	// Identity is the free-form identifier handed to the source when
	// opening the conversation (saved name or phone text).
	Identity string
	Text     string
}

// MessageEvent is the payload delivered to webhook subscribers.
type MessageEvent struct {
	Event        string    `json:"event"`
	Conversation string    `json:"conversation"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Content      string    `json:"content,omitempty"`
	NewMessages  int       `json:"new_messages,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Logger defines the logging interface used by the outbox.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type Outbox struct {
	config   *Config
	sessions *session.Manager
	store    *archive.Store
	repo     webhookrepo.WebhookRepository
	sender   *webhook.Sender
	logger   Logger

	replies chan ReplyIntent
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOutbox(config *Config, sessions *session.Manager, store *archive.Store, repo webhookrepo.WebhookRepository, sender *webhook.Sender, logger Logger) (*Outbox, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Outbox{
		config:   config,
		sessions: sessions,
		store:    store,
		repo:     repo,
		sender:   sender,
		logger:   logger,
		replies:  make(chan ReplyIntent, config.QueueSize),
	}, nil
}

// EnqueueReply accepts a reply intent without blocking. The send
// itself happens later on the reply worker, under the session lock.
func (o *Outbox) EnqueueReply(intent ReplyIntent) error {
	select {
	case o.replies <- intent:
		o.logger.Debug("reply queued", "identity", intent.Identity)
		return nil
	default:
		return ErrQueueFull
	}
}

// PendingReplies reports how many intents are waiting on the reply
// worker, for the status surface.
func (o *Outbox) PendingReplies() int {
	return len(o.replies)
}

// EnqueueEvent fans the event out to every matching subscription as a
// pending delivery row. Delivery happens on the delivery worker.
func (o *Outbox) EnqueueEvent(ctx context.Context, event MessageEvent) error {
	subs, err := o.repo.FindSubscriptionsByEvent(ctx, event.Event)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		delivery := &domain.WebhookDelivery{
			ID:             uuid.NewString(),
			SubscriptionID: sub.ID,
			URL:            sub.URL,
			EventType:      event.Event,
			Payload:        string(payload),
			Status:         domain.DeliveryPending,
			NextAttemptAt:  time.Now(),
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		if err := o.repo.EnqueueDelivery(ctx, delivery); err != nil {
			return err
		}
	}

	o.logger.Debug("event queued for delivery", "event", event.Event, "subscriptions", len(subs))
	return nil
}

// Start launches the reply and delivery workers.
func (o *Outbox) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.wg.Add(2)
	go o.replyWorker(ctx)
	go o.deliveryWorker(ctx)
	o.logger.Info("outbox workers started")
}

// Stop terminates both workers and waits for in-flight work.
func (o *Outbox) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.logger.Info("outbox workers stopped")
}

func (o *Outbox) replyWorker(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case intent := <-o.replies:
			if err := o.sendReply(ctx, intent); err != nil {
				o.logger.Error("reply send failed", "identity", intent.Identity, "error", err)
			}
		}
	}
}

// sendReply performs one queued send under the session lock: open the
// chat, send the text, archive it and notify subscribers.
func (o *Outbox) sendReply(ctx context.Context, intent ReplyIntent) error {
	return o.sessions.WithSession(ctx, func(ctx context.Context, sess source.Session) error {
		conv, err := sess.OpenConversation(ctx, intent.Identity)
		if err != nil {
			return err
		}
		defer conv.Close(ctx)

		if err := conv.SendText(ctx, intent.Text); err != nil {
			return err
		}

		stored, err := o.store.RecordOutgoing(ctx, conv.Identity(), intent.Text)
		if err != nil {
			return err
		}

		event := MessageEvent{
			Event:        domain.EventMessageSent,
			Conversation: stored.Title,
			Content:      intent.Text,
			Timestamp:    time.Now(),
		}
		if stored.PhoneNumber != nil {
			event.PhoneNumber = *stored.PhoneNumber
		}
		if err := o.EnqueueEvent(ctx, event); err != nil {
			o.logger.Warn("could not queue sent notification", "error", err)
		}

		o.logger.Info("reply sent", "conversation", stored.Title)
		return nil
	})
}

func (o *Outbox) deliveryWorker(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.deliverDue(ctx)
		}
	}
}

// deliverDue processes every delivery whose scheduled attempt time has
// passed. Attempt counters are persisted, so the schedule survives
// restarts.
func (o *Outbox) deliverDue(ctx context.Context) {
	due, err := o.repo.DueDeliveries(ctx, time.Now(), 0)
	if err != nil {
		o.logger.Error("could not list due deliveries", "error", err)
		return
	}

	for i := range due {
		delivery := due[i]
		o.attemptDelivery(ctx, &delivery)
	}
}

func (o *Outbox) attemptDelivery(ctx context.Context, delivery *domain.WebhookDelivery) {
	delivery.Attempts++

	err := o.sender.Deliver(ctx, delivery.URL, []byte(delivery.Payload))
	if err == nil {
		delivery.Status = domain.DeliveryDelivered
		delivery.LastError = ""
		if err := o.repo.UpdateDelivery(ctx, delivery); err != nil {
			o.logger.Error("could not mark delivery done", "delivery_id", delivery.ID, "error", err)
		}
		return
	}

	delivery.LastError = err.Error()
	if delivery.Attempts >= o.config.MaxAttempts {
		delivery.Status = domain.DeliveryFailed
		o.logger.Warn("webhook delivery failed permanently",
			"delivery_id", delivery.ID, "url", delivery.URL, "attempts", delivery.Attempts)
	} else {
		delivery.NextAttemptAt = time.Now().Add(retry.Backoff(o.config.Backoff, delivery.Attempts))
		o.logger.Debug("webhook delivery rescheduled",
			"delivery_id", delivery.ID, "attempt", delivery.Attempts, "next_attempt_at", delivery.NextAttemptAt)
	}
	if err := o.repo.UpdateDelivery(ctx, delivery); err != nil {
		o.logger.Error("could not update delivery", "delivery_id", delivery.ID, "error", err)
	}
}
