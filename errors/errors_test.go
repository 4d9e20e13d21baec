package errors_test

import (
	"testing"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is_Success(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      errors.Error
		target   error
		expected bool
	}{
		{
			name:     "exact match",
			err:      errors.Error("test error"),
			target:   errors.Error("test error"),
			expected: true,
		},
		{
			name:     "wrapped error with separator",
			err:      errors.Error("test error"),
			target:   errors.New("test error -- wrapped cause"),
			expected: true,
		},
		{
			name:     "different error",
			err:      errors.Error("test error"),
			target:   errors.Error("different error"),
			expected: false,
		},
		{
			name:     "partial match without separator",
			err:      errors.Error("test error"),
			target:   errors.New("test error but different"),
			expected: false,
		},
		{
			name:     "nil target",
			err:      errors.Error("test error"),
			target:   nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Is(tt.target))
		})
	}
}

func TestError_Wrap_Success(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         errors.Error
		cause       error
		expectedMsg string
	}{
		{
			name:        "wrap with cause",
			err:         errors.Error("wrapper error"),
			cause:       errors.New("original cause"),
			expectedMsg: "wrapper error -- original cause",
		},
		{
			name:        "wrap with nil cause",
			err:         errors.Error("wrapper error"),
			cause:       nil,
			expectedMsg: "wrapper error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := tt.err.Wrap(tt.cause)
			assert.Equal(t, tt.expectedMsg, wrapped.Error())
		})
	}
}

func TestWrappedError_Is_Success(t *testing.T) {
	t.Parallel()
	baseErr := errors.Error("base error")
	wrappedErr := baseErr.Wrap(errors.New("cause"))

	assert.True(t, errors.Is(wrappedErr, baseErr))
	assert.False(t, errors.Is(wrappedErr, errors.Error("different error")))
}

func TestWrappedError_Unwrap_Success(t *testing.T) {
	t.Parallel()
	cause := errors.New("original cause")
	wrappedErr := errors.Error("wrapper").Wrap(cause)

	unwrapped := wrappedErr.(interface{ Unwrap() error }).Unwrap()
	assert.Equal(t, cause, unwrapped)
}

func TestError_As_Success(t *testing.T) {
	t.Parallel()
	wrapped := errors.Error("base error").Wrap(errors.New("cause"))

	var target errors.Error
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "base error", string(target))
}
