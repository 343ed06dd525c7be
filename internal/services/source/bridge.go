// File: internal/services/source/bridge.go
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/services/contact"
)

// BridgeFactory opens sessions against the browser-automation sidecar,
// which owns the actual web-client driving and exposes it as a small
// REST surface.
type BridgeFactory struct {
	config *Config
	client *http.Client
	logger Logger
}

func NewBridgeFactory(config *Config, logger Logger) (*BridgeFactory, error) {
	if err := config.Validate(); err != nil {
		return nil, &SourceError{Type: ErrTypeConfig, Operation: "config", Message: err.Error()}
	}
	return &BridgeFactory{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

func (f *BridgeFactory) Open(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.OpenTimeout)
	defer cancel()

	var resp struct {
		SessionID string `json:"session_id"`
	}
	// Session opening restores the browser profile; it is the slowest
	// bridge call by far, so it gets its own client without the short
	// per-request timeout.
	if err := f.do(ctx, &http.Client{}, http.MethodPost, "/session/open", nil, &resp); err != nil {
		return nil, NewOpenError("could not open automation session", err)
	}
	if resp.SessionID == "" {
		return nil, NewOpenError("bridge returned no session id", nil)
	}

	f.logger.Info("automation session opened", "session_id", resp.SessionID)
	return &bridgeSession{factory: f, id: resp.SessionID}, nil
}

func (f *BridgeFactory) do(ctx context.Context, client *http.Client, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &SourceError{Type: ErrTypeNetwork, Operation: method + " " + path, Message: "invalid payload", Cause: err}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.config.BridgeURL+path, body)
	if err != nil {
		return &SourceError{Type: ErrTypeNetwork, Operation: method + " " + path, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if client == nil {
		client = f.client
	}
	resp, err := client.Do(req)
	if err != nil {
		return &SourceError{Type: ErrTypeNetwork, Operation: method + " " + path, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return &SourceError{
			Type:      ErrTypeLookup,
			Operation: method + " " + path,
			Message:   fmt.Sprintf("bridge returned %d: %s", resp.StatusCode, responseBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &SourceError{Type: ErrTypeNetwork, Operation: method + " " + path, Message: "invalid response body", Cause: err}
	}
	return nil
}

type bridgeSession struct {
	factory *BridgeFactory
	id      string
}

func (s *bridgeSession) OpenConversation(ctx context.Context, identity string) (Conversation, error) {
	var resp struct {
		ChatID     string `json:"chat_id"`
		HeaderName string `json:"header_name"`
		AliasText  string `json:"alias_text"`
	}
	payload := map[string]string{"identity": identity}
	if err := s.factory.do(ctx, nil, http.MethodPost, "/session/"+s.id+"/chats", payload, &resp); err != nil {
		return nil, NewLookupError("open_conversation", "could not open chat '"+identity+"'", err)
	}

	return &bridgeConversation{
		session:  s,
		id:       resp.ChatID,
		identity: contact.ResolveSwap(resp.HeaderName, resp.AliasText),
	}, nil
}

func (s *bridgeSession) UnreadChats(ctx context.Context) ([]string, error) {
	var resp struct {
		Chats []string `json:"chats"`
	}
	if err := s.factory.do(ctx, nil, http.MethodGet, "/session/"+s.id+"/unread", nil, &resp); err != nil {
		return nil, NewLookupError("unread_chats", "could not list unread chats", err)
	}
	return resp.Chats, nil
}

func (s *bridgeSession) Close(ctx context.Context) error {
	return s.factory.do(ctx, nil, http.MethodDelete, "/session/"+s.id, nil, nil)
}

type bridgeConversation struct {
	session  *bridgeSession
	id       string
	identity contact.Identity
}

func (c *bridgeConversation) Identity() contact.Identity { return c.identity }

func (c *bridgeConversation) NextOlderPage(ctx context.Context) ([]RawMessage, error) {
	var resp struct {
		Messages []RawMessage `json:"messages"`
	}
	if err := c.session.factory.do(ctx, nil, http.MethodPost, "/chats/"+c.id+"/page", nil, &resp); err != nil {
		return nil, NewLookupError("next_older_page", "could not scroll chat", err)
	}
	return resp.Messages, nil
}

func (c *bridgeConversation) TriggerDownload(ctx context.Context, metaText string) error {
	payload := map[string]string{"meta_text": metaText}
	return c.session.factory.do(ctx, nil, http.MethodPost, "/chats/"+c.id+"/download", payload, nil)
}

func (c *bridgeConversation) SendText(ctx context.Context, text string) error {
	payload := map[string]string{"text": text}
	if err := c.session.factory.do(ctx, nil, http.MethodPost, "/chats/"+c.id+"/send", payload, nil); err != nil {
		return &SourceError{Type: ErrTypeSend, Operation: "send_text", Message: "could not send message", Cause: err}
	}
	return nil
}

func (c *bridgeConversation) Close(ctx context.Context) error {
	return c.session.factory.do(ctx, nil, http.MethodDelete, "/chats/"+c.id, nil, nil)
}
