// Package errors provides the standardized error taxonomy for the ingest pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Note-level: recovered in place, summarized into the run's stats note.
	ErrCodeCollectorFailed  ErrorCode = "COLLECTOR_FAILED"
	ErrCodeCollectorTimeout ErrorCode = "COLLECTOR_TIMEOUT"
	ErrCodeCollectorPanic   ErrorCode = "COLLECTOR_PANIC"
	ErrCodeClassifierFailed ErrorCode = "CLASSIFIER_FAILED"
	ErrCodeHistoryMirror    ErrorCode = "HISTORY_MIRROR_FAILED"

	// Run-level: abort Run and surface to the caller.
	ErrCodeConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrCodeProfileInvalid    ErrorCode = "PROFILE_VALIDATION_FAILED"
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Fatal     bool      `json:"fatal"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewCollectorFailedError creates a note-level collector error.
func NewCollectorFailedError(collector string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollectorFailed,
		Message:   fmt.Sprintf("collector '%s' failed", collector),
		Details:   err.Error(),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollectorTimeoutError creates a note-level collector timeout error.
func NewCollectorTimeoutError(collector string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollectorTimeout,
		Message:   fmt.Sprintf("collector '%s' timeout", collector),
		Details:   fmt.Sprintf("timeout after %ds", int(timeout.Seconds())),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollectorPanicError creates a note-level error for a recovered collector panic.
func NewCollectorPanicError(collector string, recovered interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollectorPanic,
		Message:   fmt.Sprintf("collector '%s' panicked", collector),
		Details:   fmt.Sprintf("%v", recovered),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierFailedError creates a note-level external classifier error.
func NewClassifierFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierFailed,
		Message:   "external classifier failed, rule-based result kept",
		Details:   err.Error(),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryMirrorError creates a note-level ratings mirror error.
func NewHistoryMirrorError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryMirror,
		Message:   "ratings history mirror write failed",
		Details:   err.Error(),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError creates a fatal configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "business configuration is invalid",
		Details:   details,
		Fatal:     true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileInvalidError creates a fatal profile validation error.
func NewProfileInvalidError(path, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileInvalid,
		Message:   fmt.Sprintf("profile '%s' failed schema validation", path),
		Details:   details,
		Fatal:     true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a fatal persistence error.
func NewPersistenceFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   fmt.Sprintf("cache %s failed", op),
		Details:   err.Error(),
		Fatal:     true,
		Timestamp: time.Now().UTC(),
	}
}

// IsFatal reports whether err is a run-level error that must abort Run.
func IsFatal(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Fatal
	}
	return false
}

// NoteText formats a note-level error for inclusion in the run stats note.
func NoteText(collector string, err error) string {
	if se, ok := err.(*StandardError); ok {
		return fmt.Sprintf("%s: error %s", collector, se.Details)
	}
	return fmt.Sprintf("%s: error %v", collector, err)
}
