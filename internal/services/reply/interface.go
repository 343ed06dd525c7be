// File: internal/services/reply/interface.go
package reply

import (
	"context"

	"github.com/Ahbabsaqlan/whatsapp-bot/internal/domain"
)

// Generator produces a reply text from the archived conversation
// history, oldest first. ErrNoReply means the history does not call
// for an answer; any other failure yields the configured fallback text
// alongside the error so callers can still respond.
type Generator interface {
	Generate(ctx context.Context, history []domain.Message) (string, error)
}
