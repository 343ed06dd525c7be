// File: internal/services/source/errors.go
package source

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeConfig  ErrorType = "CONFIG"
	ErrTypeOpen    ErrorType = "OPEN"
	ErrTypeLookup  ErrorType = "LOOKUP"
	ErrTypeSend    ErrorType = "SEND"
	ErrTypeNetwork ErrorType = "NETWORK"
)

type SourceError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("source %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *SourceError) Unwrap() error { return e.Cause }

func NewOpenError(msg string, cause error) *SourceError {
	return &SourceError{Type: ErrTypeOpen, Operation: "open", Message: msg, Cause: cause}
}

func NewLookupError(operation, msg string, cause error) *SourceError {
	return &SourceError{Type: ErrTypeLookup, Operation: operation, Message: msg, Cause: cause}
}

// IsOpenFailure reports whether err is a session-open failure, which is
// surfaced to callers unlike sync-level lookup failures.
func IsOpenFailure(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Type == ErrTypeOpen
}
