// File: internal/services/attachment/errors.go
package attachment

import "fmt"

type ErrorType string

const (
	ErrTypeConfig  ErrorType = "CONFIG"
	ErrTypeTrigger ErrorType = "TRIGGER"
	ErrTypeTimeout ErrorType = "TIMEOUT"
	ErrTypeDir     ErrorType = "DIR"
)

type AttachmentError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *AttachmentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("attachment %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("attachment %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AttachmentError) Unwrap() error { return e.Cause }
