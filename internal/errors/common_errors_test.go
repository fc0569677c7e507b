package errors

import (
	"errors"
	"fmt"
	"os"
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
		{"missing column error type", ErrTypeMissingColumn, "MISSING_COLUMN"},
		{"not found error type", ErrTypeNotFound, "NOT_FOUND"},
		{"network error type", ErrTypeNetwork, "NETWORK"},
		{"parsing error type", ErrTypeParsing, "PARSING"},
		{"storage error type", ErrTypeStorage, "STORAGE"},
		{"validation error type", ErrTypeValidation, "VALIDATION"},
		{"config error type", ErrTypeConfig, "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeParsing, Message: "bad header"},
			wantMessage: "[PARSING] bad header",
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeNetwork, Message: "fetch failed", Cause: fmt.Errorf("connection refused")},
			wantMessage: "[NETWORK] fetch failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := NewFileNotFoundError("loan_data", "Loan Data (2).csv", cause)

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "loan_data", err.Context["table"])
	assert.Equal(t, "Loan Data (2).csv", err.Context["path"])
	assert.Contains(t, err.Error(), "Loan Data (2).csv")
}

func TestNewMissingColumnError(t *testing.T) {
	single := NewMissingColumnError("loan_id")
	assert.Equal(t, `[MISSING_COLUMN] required column "loan_id" missing`, single.Error())

	multi := NewMissingColumnError("customer_id", "true_total_payment")
	assert.Equal(t, `[MISSING_COLUMN] required columns "customer_id", "true_total_payment" missing`, multi.Error())
	assert.Equal(t, []string{"customer_id", "true_total_payment"}, multi.Context["columns"])
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("merge step: %w", NewNetworkError("fetch", nil))

	assert.True(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(wrapped, ErrTypeParsing))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeNetwork))
	assert.False(t, IsType(nil, ErrTypeNetwork))
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "write failed"}
	require.Nil(t, err.Context)

	err.WithContext("path", "merged.csv").WithContext("rows", 3)
	assert.Equal(t, "merged.csv", err.Context["path"])
	assert.Equal(t, 3, err.Context["rows"])
}

func TestHelperConstructors(t *testing.T) {
	cause := fmt.Errorf("boom")
	tests := []struct {
		name    string
		err     *AppError
		errType ErrorType
		cause   error
	}{
		{"network", NewNetworkError("m", cause), ErrTypeNetwork, cause},
		{"parsing", NewParsingError("m", cause), ErrTypeParsing, cause},
		{"storage", NewStorageError("m", cause), ErrTypeStorage, cause},
		{"config", NewConfigError("m", cause), ErrTypeConfig, cause},
		{"validation", NewAppValidationError("m"), ErrTypeValidation, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
			assert.Equal(t, "m", tt.err.Message)
			assert.Equal(t, tt.cause, tt.err.Cause)
			assert.NotNil(t, tt.err.Context)
		})
	}
}
