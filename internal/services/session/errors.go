// File: internal/services/session/errors.go
package session

import (
	"errors"
	"fmt"
)

// ErrSessionBusy is returned by TryWithSession when another holder owns
// the session or an interactive login is in progress.
var ErrSessionBusy = errors.New("automation session is busy")

type ErrorType string

const (
	ErrTypeConfig ErrorType = "CONFIG"
	ErrTypeLogin  ErrorType = "LOGIN"
)

type SessionError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("session %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *SessionError) Unwrap() error { return e.Cause }
