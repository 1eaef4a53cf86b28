package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []map[string]interface{}
	errors []map[string]interface{}
}

func (l *recordingLogger) Warn(_ string, fields map[string]interface{}) {
	l.warns = append(l.warns, fields)
}

func (l *recordingLogger) Error(_ string, fields map[string]interface{}) {
	l.errors = append(l.errors, fields)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"standard error passes through", NewInputEmptyError(), ErrCodeInputEmpty},
		{"wrapped standard error", fmt.Errorf("outer: %w", NewRegistryTimeoutError(time.Second)), ErrCodeRegistryTimeout},
		{"context deadline", context.DeadlineExceeded, ErrCodeRegistryTimeout},
		{"unavailable sentinel", fmt.Errorf("%w: 503", ErrRegistryUnavailable), ErrCodeRegistryUnavailable},
		{"notification sentinel", ErrNotificationFailed, ErrCodeNotificationSendFailed},
		{"anything else", stderrors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.err).Code)
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	err := NewRegistryUnavailableError(stderrors.New("connection refused"))
	assert.True(t, stderrors.Is(err, ErrRegistryUnavailable))
	assert.False(t, IsTimeout(err))

	timeout := NewRegistryTimeoutError(3 * time.Second)
	assert.True(t, IsTimeout(timeout))
	assert.Contains(t, timeout.Details, "3s")

	notify := NewNotificationSendFailedError("deliver", stderrors.New("502"))
	assert.True(t, stderrors.Is(notify, ErrNotificationFailed))
}

func TestErrorHandler_Handle(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	assert.Nil(t, h.Handle(nil, nil))

	stdErr := h.Handle(NewNotificationSendFailedError("announce", stderrors.New("dial tcp")), map[string]interface{}{
		"correlationId": "abc",
	})
	require.NotNil(t, stdErr)
	require.Len(t, log.warns, 1)
	assert.Equal(t, "abc", log.warns[0]["correlationId"])
	assert.Equal(t, CategoryDegraded, log.warns[0]["errorCategory"])

	h.Handle(NewRegistryUnavailableError(stderrors.New("status 500")).WithMetadata("modelKey", "KTC-K501"), nil)
	require.Len(t, log.errors, 1)
	assert.Equal(t, "KTC-K501", log.errors[0]["modelKey"])
	assert.Equal(t, CategoryUpstream, log.errors[0]["errorCategory"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, CategoryInput, GetErrorCategory(ErrCodeInputEmpty))
	assert.Equal(t, CategoryUpstream, GetErrorCategory(ErrCodeRegistryTimeout))
	assert.Equal(t, CategoryDegraded, GetErrorCategory(ErrCodeAuditWriteFailed))
	assert.Equal(t, CategoryInternal, GetErrorCategory(ErrCodeConfigInvalid))
}
