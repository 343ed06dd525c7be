// File: internal/services/reply/openai_provider.go

// Package reply generates outgoing answers from archived conversation
// history using a chat-completion model.
package reply

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
)

// Logger defines the logging interface used by the provider.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type OpenAIProvider struct {
	config *Config
	client *openai.Client
	logger Logger
}

func NewOpenAIProvider(config *Config, logger Logger) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, &ReplyError{Type: ErrTypeConfig, Operation: "config", Message: err.Error()}
	}
	return &OpenAIProvider{
		config: config,
		client: openai.NewClient(config.APIKey),
		logger: logger,
	}, nil
}

// Generate builds the prompt from the history window and asks the
// model for an answer. Provider failures return the fallback text with
// the error, so the caller can still send something.
func (p *OpenAIProvider) Generate(ctx context.Context, history []domain.Message) (string, error) {
	prompt, err := p.buildMessages(history)
	if err != nil {
		return "", err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    prompt,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	})
	if err != nil {
		p.logger.Error("completion request failed", "error", err)
		return p.config.FallbackReply, NewProviderError("generate", "failed to create completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		p.logger.Warn("empty completion response")
		return p.config.FallbackReply, NewProviderError("generate", "empty completion response", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildMessages maps archived roles onto chat-completion roles: the
// owner's side becomes the assistant, everything else the user.
func (p *OpenAIProvider) buildMessages(history []domain.Message) ([]openai.ChatCompletionMessage, error) {
	if len(history) == 0 {
		return nil, ErrNoReply
	}

	last := history[len(history)-1]
	if last.Role != domain.RoleUser || !replyable(last.Content) {
		return nil, ErrNoReply
	}

	window := history
	if len(window) > p.config.HistoryWindow {
		window = window[len(window)-p.config.HistoryWindow:]
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.config.SystemPrompt},
	}
	for _, msg := range window {
		if !replyable(msg.Content) {
			continue
		}
		role := openai.ChatMessageRoleUser
		if msg.Role == domain.RoleMe {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return messages, nil
}

func replyable(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed != "" && trimmed != "[Unsupported or Empty Message]"
}
