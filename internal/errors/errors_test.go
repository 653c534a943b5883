package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	plain := NewAppError(ErrTypeConfig, "bad setting", nil)
	assert.Equal(t, "[CONFIG] bad setting", plain.Error())

	wrapped := NewAppError(ErrTypeStorage, "write failed", stderrors.New("disk full"))
	assert.Equal(t, "[STORAGE] write failed: disk full", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewStorageError("write failed", cause)

	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &appErr)
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewConversionError("date_time", nil).WithContext("row", 17)
	assert.Equal(t, "date_time", err.Context["column"])
	assert.Equal(t, 17, err.Context["row"])
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeNotFound, TypeOf(NewNotFoundError("x.csv")))
	assert.Equal(t, ErrTypeNotFound, TypeOf(fmt.Errorf("wrapped: %w", NewNotFoundError("x.csv"))))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("foreign")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil is ok", err: nil, want: ExitOK},
		{name: "not found", err: NewNotFoundError("x"), want: ExitNotFound},
		{name: "conversion", err: NewConversionError("c", nil), want: ExitConversion},
		{name: "null timestamp", err: NewNullTimestampError("c", 3), want: ExitNullTimestamp},
		{name: "monotonicity", err: NewMonotonicityError("c", 7), want: ExitMonotonicity},
		{name: "resource", err: NewResourceError("oom", nil), want: ExitResource},
		{name: "config falls back", err: NewConfigError("bad", nil), want: ExitFailure},
		{name: "storage falls back", err: NewStorageError("disk", nil), want: ExitFailure},
		{name: "foreign error", err: stderrors.New("boom"), want: ExitFailure},
		{name: "wrapped keeps code", err: fmt.Errorf("w: %w", NewMonotonicityError("c", 1)), want: ExitMonotonicity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
