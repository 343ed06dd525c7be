// File: internal/services/reply/config.go
package reply

import "fmt"

const defaultSystemPrompt = "You are replying on behalf of the account owner in a personal chat. " +
	"Answer briefly and naturally in the language of the conversation."

type Config struct {
	APIKey       string
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string

	// FallbackReply is sent when the provider fails, so a waiting
	// contact is never left without an answer.
	FallbackReply string

	// HistoryWindow is how many archived messages feed the prompt.
	HistoryWindow int
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("history_window must be positive")
	}
	return nil
}

func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:        apiKey,
		Model:         "gpt-4o-mini",
		Temperature:   0.7,
		MaxTokens:     500,
		SystemPrompt:  defaultSystemPrompt,
		FallbackReply: "Sorry, I can't answer right now. I'll get back to you soon.",
		HistoryWindow: 20,
	}
}
