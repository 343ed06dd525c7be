// File: internal/handlers/archive_handler_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
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
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/outbox"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/session"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/source"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/webhook"
)

type fakeFactory struct{}

func (f *fakeFactory) Open(ctx context.Context) (source.Session, error) {
	return nil, source.NewOpenError("bridge unreachable", nil)
}

type handlerEnv struct {
	handler *ArchiveHandler
	store   *archive.Store
	router  *mux.Router
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Conversation{}, &domain.Message{},
		&domain.WebhookSubscription{}, &domain.WebhookDelivery{},
	))

	sessions, err := session.NewManager(&fakeFactory{}, session.DefaultConfig(), &services.NoOpLogger{})
	require.NoError(t, err)

	store := archive.NewStore(archiverepo.NewArchiveRepository(db), "Saqlan", &services.NoOpLogger{})

	sender, err := webhook.NewSender(webhook.DefaultConfig("secret"), &services.NoOpLogger{})
	require.NoError(t, err)

	outboxConfig := outbox.DefaultConfig()
	outboxConfig.QueueSize = 1
	box, err := outbox.NewOutbox(outboxConfig, sessions, store, webhookrepo.NewWebhookRepository(db), sender, &services.NoOpLogger{})
	require.NoError(t, err)

	handler := NewArchiveHandler(store, box, sessions, &services.NoOpLogger{})

	r := mux.NewRouter()
	r.HandleFunc("/api/conversations", handler.ListConversations).Methods("GET")
	r.HandleFunc("/api/conversations/{title}/summary", handler.GetSummary).Methods("GET")
	r.HandleFunc("/api/conversations/{title}/messages", handler.GetMessages).Methods("GET")
	r.HandleFunc("/api/unreplied", handler.GetUnreplied).Methods("GET")
	r.HandleFunc("/api/send-message", handler.SendMessage).Methods("POST")
	r.HandleFunc("/api/status", handler.GetStatus).Methods("GET")

	return &handlerEnv{handler: handler, store: store, router: r}
}

func seedConversation(t *testing.T, env *handlerEnv) {
	t.Helper()
	number := "+8801711112222"
	_, _, err := env.store.SaveBatch(context.Background(), contact.Identity{Name: "Alice", Number: &number}, []source.RawMessage{
		{MetaText: "m1", Sender: "Alice", Content: domain.TextContent("hello")},
		{MetaText: "m2", Sender: "Alice", Content: domain.TextContent("anyone there?")},
	})
	require.NoError(t, err)
}

func doRequest(env *handlerEnv, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestGetSummary(t *testing.T) {
	env := newHandlerEnv(t)
	seedConversation(t, env)

	rec := doRequest(env, http.MethodGet, "/api/conversations/Alice/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var conv domain.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "Alice", conv.Title)
	assert.Equal(t, 2, conv.Size)
	assert.Contains(t, conv.ContextSummary, "Total: 2 msgs")
}

func TestGetSummaryNotFound(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doRequest(env, http.MethodGet, "/api/conversations/Nobody/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMessagesWithCount(t *testing.T) {
	env := newHandlerEnv(t)
	seedConversation(t, env)

	rec := doRequest(env, http.MethodGet, "/api/conversations/Alice/messages?count=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []domain.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "anyone there?", msgs[0].Content)
}

func TestGetMessagesInvalidCount(t *testing.T) {
	env := newHandlerEnv(t)
	seedConversation(t, env)

	rec := doRequest(env, http.MethodGet, "/api/conversations/Alice/messages?count=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnreplied(t *testing.T) {
	env := newHandlerEnv(t)
	seedConversation(t, env)

	rec := doRequest(env, http.MethodGet, "/api/unreplied", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")
}

func TestSendMessageIsAcceptedWithoutBlocking(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doRequest(env, http.MethodPost, "/api/send-message", `{"identity":"Alice","message":"hello"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSendMessageValidation(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doRequest(env, http.MethodPost, "/api/send-message", `{"identity":"","message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageQueueFull(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doRequest(env, http.MethodPost, "/api/send-message", `{"identity":"Alice","message":"one"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doRequest(env, http.MethodPost, "/api/send-message", `{"identity":"Alice","message":"two"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetStatus(t *testing.T) {
	env := newHandlerEnv(t)

	rec := doRequest(env, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "idle", status["session"])
	assert.Equal(t, float64(0), status["pending_replies"])
}
