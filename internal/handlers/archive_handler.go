// File: internal/handlers/archive_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	archiverepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/archive"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/outbox"
	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/session"
)

// Logger defines the logging interface used by the handlers.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type ArchiveHandler struct {
	store    *archive.Store
	box      *outbox.Outbox
	sessions *session.Manager
	logger   Logger
}

func NewArchiveHandler(store *archive.Store, box *outbox.Outbox, sessions *session.Manager, logger Logger) *ArchiveHandler {
	return &ArchiveHandler{store: store, box: box, sessions: sessions, logger: logger}
}

// ListConversations returns every archived conversation, newest first.
func (h *ArchiveHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.store.Conversations(r.Context())
	if err != nil {
		writeError(w, "Could not retrieve conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// GetSummary returns one conversation's metadata and context summary.
func (h *ArchiveHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	conv, err := h.store.SummaryByTitle(r.Context(), title)
	if err != nil {
		if errors.Is(err, archiverepo.ErrConversationNotFound) {
			writeError(w, "Conversation not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not retrieve conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// GetMessages returns the newest messages of a conversation in
// chronological order; ?count bounds how many.
func (h *ArchiveHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	count := 50
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, "Invalid count", http.StatusBadRequest)
			return
		}
		count = parsed
	}

	msgs, err := h.store.LastMessagesByTitle(r.Context(), title, count)
	if err != nil {
		if errors.Is(err, archiverepo.ErrConversationNotFound) {
			writeError(w, "Conversation not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not retrieve messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// GetUnreplied lists conversations whose last message awaits an answer.
func (h *ArchiveHandler) GetUnreplied(w http.ResponseWriter, r *http.Request) {
	unreplied, err := h.store.Unreplied(r.Context())
	if err != nil {
		writeError(w, "Could not retrieve unreplied conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, unreplied)
}

// SendMessage accepts an outgoing message and dispatches it to the
// reply queue. The request never waits on the session lock: the actual
// send happens on the reply worker.
func (h *ArchiveHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identity == "" || req.Message == "" {
		writeError(w, "identity and message are required", http.StatusBadRequest)
		return
	}

	if err := h.box.EnqueueReply(outbox.ReplyIntent{Identity: req.Identity, Text: req.Message}); err != nil {
		if errors.Is(err, outbox.ErrQueueFull) {
			writeError(w, "Send queue is full, try again later", http.StatusServiceUnavailable)
			return
		}
		writeError(w, "Could not queue message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// GetStatus reports the session state and queue depth.
func (h *ArchiveHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":         h.sessions.Status(),
		"pending_replies": h.box.PendingReplies(),
	})
}

// StartLogin kicks off an interactive login in the background. While
// it runs, periodic sync cycles are skipped instead of queued.
func (h *ArchiveHandler) StartLogin(w http.ResponseWriter, r *http.Request) {
	if h.sessions.InLogin() {
		writeError(w, "Login already in progress", http.StatusConflict)
		return
	}

	go func() {
		if err := h.sessions.Login(context.Background()); err != nil {
			h.logger.Error("interactive login failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "login started"})
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
