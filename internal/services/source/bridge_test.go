// File: internal/services/source/bridge_test.go
package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services"
)

func newBridgeServer(t *testing.T, sendStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session/open", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"session_id": "s1"})
	})
	mux.HandleFunc("POST /session/s1/chats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"chat_id":     "c1",
			"header_name": "+880 1711-112222",
			"alias_text":  "~Rahim",
		})
	})
	mux.HandleFunc("GET /session/s1/unread", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{"chats": {"Rahim", "Family Group"}})
	})
	mux.HandleFunc("POST /chats/c1/page", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"messages": []map[string]interface{}{
				{
					"meta_text": "m1",
					"sender":    "Rahim",
					"date":      "12/8/2025",
					"time":      "4:07 PM",
					"content":   map[string]interface{}{"kind": "text", "text": "hello"},
				},
			},
		})
	})
	mux.HandleFunc("POST /chats/c1/send", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(sendStatus)
	})
	return httptest.NewServer(mux)
}

func newBridge(t *testing.T, url string) Factory {
	t.Helper()
	config := DefaultConfig()
	config.BridgeURL = url
	factory, err := NewBridgeFactory(config, &services.NoOpLogger{})
	require.NoError(t, err)
	return factory
}

func TestBridgeOpenAndConversationFlow(t *testing.T) {
	server := newBridgeServer(t, http.StatusOK)
	defer server.Close()
	ctx := context.Background()

	sess, err := newBridge(t, server.URL).Open(ctx)
	require.NoError(t, err)

	unread, err := sess.UnreadChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rahim", "Family Group"}, unread)

	conv, err := sess.OpenConversation(ctx, "Rahim")
	require.NoError(t, err)

	// Swapped header resolves to alias name plus canonical number.
	identity := conv.Identity()
	assert.Equal(t, "~Rahim", identity.Name)
	require.NotNil(t, identity.Number)
	assert.Equal(t, "+8801711112222", *identity.Number)

	page, err := conv.NextOlderPage(ctx)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "m1", page[0].MetaText)
	assert.Equal(t, "hello", page[0].Content.Text)

	require.NoError(t, conv.SendText(ctx, "salam"))
}

func TestBridgeOpenFailure(t *testing.T) {
	_, err := newBridge(t, "http://127.0.0.1:1").Open(context.Background())
	require.Error(t, err)
	assert.True(t, IsOpenFailure(err))
}

func TestBridgeSendFailureIsSendError(t *testing.T) {
	server := newBridgeServer(t, http.StatusBadGateway)
	defer server.Close()
	ctx := context.Background()

	sess, err := newBridge(t, server.URL).Open(ctx)
	require.NoError(t, err)
	conv, err := sess.OpenConversation(ctx, "Rahim")
	require.NoError(t, err)

	err = conv.SendText(ctx, "salam")
	require.Error(t, err)
	var sourceErr *SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, ErrTypeSend, sourceErr.Type)
}
