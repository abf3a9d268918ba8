package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "network error type", errType: ErrTypeNetwork, expected: "NETWORK"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "schema error type", errType: ErrTypeSchema, expected: "SCHEMA"},
		{name: "fit error type", errType: ErrTypeFit, expected: "FIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("message with cause", func(t *testing.T) {
		err := NewNetworkError("fetch scorebox", cause)
		assert.Equal(t, "[NETWORK] fetch scorebox: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("message without cause", func(t *testing.T) {
		err := NewAppValidationError("station name is empty")
		assert.Equal(t, "[VALIDATION] station name is empty", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("context is attached", func(t *testing.T) {
		err := NewStorageError("write workbook", cause).WithContext("path", "out.xlsx")
		assert.Equal(t, "out.xlsx", err.Context["path"])
	})

	t.Run("not found formats resource", func(t *testing.T) {
		err := NewNotFoundError("station addison")
		assert.Equal(t, "[NOT_FOUND] station addison not found", err.Error())
	})
}

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("ridership extract", []string{"STATION", "BRANCH"})

	assert.Equal(t, []string{"BRANCH", "STATION"}, err.Missing)
	assert.Contains(t, err.Error(), "BRANCH, STATION")

	wrapped := fmt.Errorf("assemble addison: %w", err)
	assert.True(t, IsSchemaError(wrapped))
	assert.False(t, IsFitError(wrapped))
	assert.Equal(t, ErrTypeSchema, TypeOf(wrapped))
}

func TestFitError(t *testing.T) {
	cause := errors.New("svd did not converge")
	err := NewFitError("least squares", cause)

	require.True(t, IsFitError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrTypeFit, TypeOf(fmt.Errorf("station: %w", err)))
	assert.Equal(t, "[FIT] least squares failed", NewFitError("least squares", nil).Error())
}

func TestTypeOf_Plain(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrTypeConfig, TypeOf(NewConfigError("bad yaml", nil)))
}
