package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "Redis connection")

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	cause := errors.New("connection refused")
	err := retryWithBackoff(func() error {
		calls++
		return cause
	}, 3, time.Millisecond, zap.NewNop(), "PostgreSQL connection")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PostgreSQL connection failed after 3 attempts")
	assert.Equal(t, 3, calls)
}
