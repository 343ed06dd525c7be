// File: internal/services/reply/errors.go
package reply

import (
	"errors"
	"fmt"
)

// ErrNoReply signals that the conversation state does not warrant a
// generated reply (empty history, unsupported last message).
var ErrNoReply = errors.New("no reply warranted")

type ErrorType string

const (
	ErrTypeConfig   ErrorType = "CONFIG"
	ErrTypeProvider ErrorType = "PROVIDER"
)

type ReplyError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *ReplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reply %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("reply %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ReplyError) Unwrap() error { return e.Cause }

func NewProviderError(operation, msg string, cause error) *ReplyError {
	return &ReplyError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}
