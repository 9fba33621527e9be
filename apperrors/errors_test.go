package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "points row missing", NotFound("points row missing").Error())

	cause := errors.New("disk full")
	assert.Equal(t, "insert failed: disk full", Internal("insert failed", cause).Error())
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("get points: %w", NotFound("no ledger row for G1/M1"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	err := DeadlineExceeded("query timed out", context.DeadlineExceeded)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, ErrDeadlineExceeded))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), CodeUnknown},
		{"wrapped app error", fmt.Errorf("ctx: %w", InvalidArg("negative amount")), CodeInvalidArgument},
		{"unique violation", AlreadyExists("duplicate guild", nil), CodeAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Unavailable("store unreachable", nil)))
	assert.True(t, IsRetryable(DeadlineExceeded("timeout", nil)))
	assert.False(t, IsRetryable(NotFound("missing")))
	assert.False(t, IsRetryable(errors.New("boom")))
}
