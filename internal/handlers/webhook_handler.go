// File: internal/handlers/webhook_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
	webhookrepo "github.com/Ahbabsaqlan/whatsapp-bot/internal/repository/webhook"
)

type WebhookHandler struct {
	repo   webhookrepo.WebhookRepository
	logger Logger
}

func NewWebhookHandler(repo webhookrepo.WebhookRepository, logger Logger) *WebhookHandler {
	return &WebhookHandler{repo: repo, logger: logger}
}

// CreateSubscription registers a new webhook target for one event type.
func (h *WebhookHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL       string `json:"url"`
		EventType string `json:"event_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" || req.EventType == "" {
		writeError(w, "url and event_type are required", http.StatusBadRequest)
		return
	}

	if req.EventType != domain.EventMessageReceived && req.EventType != domain.EventMessageSent {
		writeError(w, "Unknown event type", http.StatusBadRequest)
		return
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeError(w, "Invalid webhook URL", http.StatusBadRequest)
		return
	}

	sub := &domain.WebhookSubscription{
		ID:        uuid.NewString(),
		URL:       req.URL,
		EventType: req.EventType,
		CreatedAt: time.Now(),
	}
	if err := h.repo.CreateSubscription(r.Context(), sub); err != nil {
		writeError(w, "Could not create subscription", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions returns all registered webhook targets.
func (h *WebhookHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.repo.FindSubscriptions(r.Context())
	if err != nil {
		writeError(w, "Could not retrieve subscriptions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// DeleteSubscription removes one webhook target. Already-queued
// deliveries for it still run to completion.
func (h *WebhookHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.repo.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, webhookrepo.ErrSubscriptionNotFound) {
			writeError(w, "Subscription not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not delete subscription", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
