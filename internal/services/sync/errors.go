// File: internal/services/sync/errors.go
package sync

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeSource     ErrorType = "SOURCE"
)

type SyncError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sync %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("sync %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Cause }
