// File: internal/services/outbox/outbox_test.go
package outbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	archiverepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/archive"
	webhookrepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/webhook"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/contact"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/retry"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/session"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/webhook"
)

type fakeConversation struct {
	identity contact.Identity
	sent     []string
}

func (c *fakeConversation) Identity() contact.Identity { return c.identity }
func (c *fakeConversation) NextOlderPage(ctx context.Context) ([]source.RawMessage, error) {
	return nil, nil
}
func (c *fakeConversation) TriggerDownload(ctx context.Context, metaText string) error { return nil }
func (c *fakeConversation) SendText(ctx context.Context, text string) error {
	c.sent = append(c.sent, text)
	return nil
}
func (c *fakeConversation) Close(ctx context.Context) error { return nil }

type fakeSession struct {
	conversation *fakeConversation
}

func (s *fakeSession) OpenConversation(ctx context.Context, identity string) (source.Conversation, error) {
	return s.conversation, nil
}
func (s *fakeSession) UnreadChats(ctx context.Context) ([]string, error) { return nil, nil }
func (s *fakeSession) Close(ctx context.Context) error                   { return nil }

type fakeFactory struct {
	session *fakeSession
}

func (f *fakeFactory) Open(ctx context.Context) (source.Session, error) { return f.session, nil }

type testEnv struct {
	outbox *Outbox
	repo   webhookrepo.WebhookRepository
	store  *archive.Store
	conv   *fakeConversation
}

func newTestEnv(t *testing.T, webhookTarget string) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Conversation{}, &domain.Message{},
		&domain.WebhookSubscription{}, &domain.WebhookDelivery{},
	))

	number := "+8801711112222"
	conv := &fakeConversation{identity: contact.Identity{Name: "Alice", Number: &number}}
	sessions, err := session.NewManager(&fakeFactory{session: &fakeSession{conversation: conv}}, session.DefaultConfig(), &services.NoOpLogger{})
	require.NoError(t, err)

	store := archive.NewStore(archiverepo.NewArchiveRepository(db), "Saqlan", &services.NoOpLogger{})
	repo := webhookrepo.NewWebhookRepository(db)

	sender, err := webhook.NewSender(webhook.DefaultConfig("secret"), &services.NoOpLogger{})
	require.NoError(t, err)

	config := DefaultConfig()
	config.QueueSize = 2
	config.MaxAttempts = 2
	config.Backoff = &retry.Config{MaxAttempts: 2, Delay: time.Minute, MaxDelay: time.Hour}

	box, err := NewOutbox(config, sessions, store, repo, sender, &services.NoOpLogger{})
	require.NoError(t, err)

	if webhookTarget != "" {
		require.NoError(t, repo.CreateSubscription(context.Background(), &domain.WebhookSubscription{
			ID:        "sub-1",
			URL:       webhookTarget,
			EventType: domain.EventMessageSent,
			CreatedAt: time.Now(),
		}))
	}

	return &testEnv{outbox: box, repo: repo, store: store, conv: conv}
}

func TestEnqueueReplyRejectsWhenFull(t *testing.T) {
	env := newTestEnv(t, "")

	require.NoError(t, env.outbox.EnqueueReply(ReplyIntent{Identity: "Alice", Text: "one"}))
	require.NoError(t, env.outbox.EnqueueReply(ReplyIntent{Identity: "Alice", Text: "two"}))
	err := env.outbox.EnqueueReply(ReplyIntent{Identity: "Alice", Text: "three"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestSendReplyArchivesAndNotifies(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1/webhook")
	ctx := context.Background()

	err := env.outbox.sendReply(ctx, ReplyIntent{Identity: "Alice", Text: "be right there"})
	require.NoError(t, err)

	assert.Equal(t, []string{"be right there"}, env.conv.sent)

	msgs, err := env.store.LastMessagesByTitle(ctx, "Alice", 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleMe, msgs[0].Role)
	assert.Equal(t, "be right there", msgs[0].Content)

	due, err := env.repo.DueDeliveries(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, domain.EventMessageSent, due[0].EventType)
	assert.Contains(t, due[0].Payload, "be right there")
}

func TestEnqueueEventWithoutSubscribersIsNoop(t *testing.T) {
	env := newTestEnv(t, "")

	err := env.outbox.EnqueueEvent(context.Background(), MessageEvent{
		Event:        domain.EventMessageReceived,
		Conversation: "Alice",
		Timestamp:    time.Now(),
	})
	require.NoError(t, err)

	due, err := env.repo.DueDeliveries(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDeliverDueMarksDelivered(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	ctx := context.Background()

	require.NoError(t, env.outbox.EnqueueEvent(ctx, MessageEvent{
		Event:        domain.EventMessageSent,
		Conversation: "Alice",
		Timestamp:    time.Now(),
	}))

	env.outbox.deliverDue(ctx)

	assert.Equal(t, int32(1), hits.Load())
	due, err := env.repo.DueDeliveries(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "delivered rows must leave the pending queue")
}

func TestDeliveryFailureBacksOffThenFailsTerminally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	ctx := context.Background()

	require.NoError(t, env.outbox.EnqueueEvent(ctx, MessageEvent{
		Event:        domain.EventMessageSent,
		Conversation: "Alice",
		Timestamp:    time.Now(),
	}))

	// First attempt: rescheduled a minute out.
	env.outbox.deliverDue(ctx)
	due, err := env.repo.DueDeliveries(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "rescheduled delivery must not be due yet")

	due, err = env.repo.DueDeliveries(ctx, time.Now().Add(2*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
	assert.NotEmpty(t, due[0].LastError)

	// Second attempt exhausts the ceiling: terminal failure.
	delivery := due[0]
	env.outbox.attemptDelivery(ctx, &delivery)
	assert.Equal(t, domain.DeliveryFailed, delivery.Status)

	due, err = env.repo.DueDeliveries(ctx, time.Now().Add(24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "failed rows are never retried")
}
