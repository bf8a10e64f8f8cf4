package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalErrorRetryable(t *testing.T) {
	tests := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{KindInvalidRequest, false},
		{KindQuotaExceeded, true},
		{KindAuthRejected, false},
		{KindUnavailable, true},
		{KindMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := NewEvalError(tt.kind, "boom", nil)
			assert.Equal(t, tt.retryable, err.Retryable())
		})
	}
}

func TestEvalErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewEvalError(KindUnavailable, "judge unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewMalformedResponseErrorKeepsRaw(t *testing.T) {
	raw := "I refuse to answer in JSON."
	err := NewMalformedResponseError("missing metric scores", raw, nil)

	assert.Equal(t, KindMalformedResponse, err.Kind)
	assert.Equal(t, raw, err.Raw)
	assert.False(t, err.Retryable())
}

func TestAsEvalError(t *testing.T) {
	inner := NewEvalError(KindQuotaExceeded, "rate limited", nil)
	wrapped := fmt.Errorf("evaluate: %w", inner)

	got, ok := AsEvalError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindQuotaExceeded, got.Kind)

	_, ok = AsEvalError(errors.New("plain"))
	assert.False(t, ok)
}
