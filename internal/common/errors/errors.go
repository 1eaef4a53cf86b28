// Package errors provides standardized error handling for the lookup pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInputEmpty             ErrorCode = "INPUT_EMPTY"
	ErrCodeInvalidPayload         ErrorCode = "INVALID_COMMAND_PAYLOAD"
	ErrCodeRegistryUnavailable    ErrorCode = "REGISTRY_UNAVAILABLE"
	ErrCodeRegistryTimeout        ErrorCode = "REGISTRY_TIMEOUT"
	ErrCodeRowParseSkipped        ErrorCode = "ROW_PARSE_SKIPPED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAuditWriteFailed       ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_INVALID"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks across package boundaries.
var (
	ErrRegistryTimeout     = stderrors.New("REGISTRY_TIMEOUT")
	ErrRegistryUnavailable = stderrors.New("REGISTRY_UNAVAILABLE")
	ErrNotificationFailed  = stderrors.New("NOTIFICATION_SEND_FAILED")
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func NewInputEmptyError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInputEmpty,
		Message:   "Model name is required",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Command payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryUnavailableError wraps a transport failure or a non-success status.
func NewRegistryUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryUnavailable,
		Message:   "Certification registry request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrRegistryUnavailable, err),
	}
}

func NewRegistryTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryTimeout,
		Message:   "Certification registry did not answer in time",
		Details:   fmt.Sprintf("deadline: %s", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     ErrRegistryTimeout,
	}
}

func NewRowParseSkippedError(row, cells, minCells int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRowParseSkipped,
		Message:   "Registry row has too few cells",
		Details:   fmt.Sprintf("row: %d, cells: %d, required: %d", row, cells, minCells),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(phase string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Callback delivery failed",
		Details:   fmt.Sprintf("phase: %s, error: %s", phase, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrNotificationFailed, err),
	}
}

func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit record could not be written",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
