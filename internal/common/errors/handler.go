// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler logs pipeline errors in one consistent shape. Errors handled
// here never reach the user; user-facing text is rendered separately.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it and returns the normalized form.
func (h *ErrorHandler) Handle(err error, fields map[string]interface{}) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := Normalize(err)

	entry := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}

	if h.logger == nil {
		return stdErr
	}
	if GetErrorCategory(stdErr.Code) == CategoryDegraded {
		h.logger.Warn("pipeline degraded", entry)
	} else {
		h.logger.Error("pipeline error", entry)
	}
	return stdErr
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, ErrRegistryTimeout):
		return &StandardError{
			Code:      ErrCodeRegistryTimeout,
			Message:   "Deadline exceeded",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	case stderrors.Is(err, ErrRegistryUnavailable):
		return NewRegistryUnavailableError(err)
	case stderrors.Is(err, ErrNotificationFailed):
		return &StandardError{
			Code:      ErrCodeNotificationSendFailed,
			Message:   "Callback delivery failed",
			Details:   err.Error(),
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// Error categories group codes for log routing and dashboards.
const (
	CategoryInput    = "input"
	CategoryUpstream = "upstream"
	CategoryDegraded = "degraded"
	CategoryInternal = "internal"
)

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInputEmpty, ErrCodeInvalidPayload:
		return CategoryInput
	case ErrCodeRegistryUnavailable, ErrCodeRegistryTimeout:
		return CategoryUpstream
	case ErrCodeRowParseSkipped, ErrCodeNotificationSendFailed, ErrCodeAuditWriteFailed:
		return CategoryDegraded
	default:
		return CategoryInternal
	}
}

// IsTimeout reports whether err represents an exceeded registry deadline.
func IsTimeout(err error) bool {
	return err != nil && (stderrors.Is(err, ErrRegistryTimeout) || stderrors.Is(err, context.DeadlineExceeded))
}
