package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatusAndType(t *testing.T) {
	cause := errors.New("conditional check failed")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad date"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("streak"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("lock held"), ErrorTypeConflict, http.StatusConflict},
		{"internal", NewInternalError("panic: boom"), ErrorTypeInternal, http.StatusInternalServerError},
		{"database", NewDatabaseError("put streak", cause), ErrorTypeDatabase, http.StatusInternalServerError},
		{"external", NewExternalError("eventbridge", cause), ErrorTypeExternal, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load streak: %w", NewNotFoundError("streak"))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))

	require.NotNil(t, GetAppError(wrapped))
	assert.Equal(t, ErrorTypeNotFound, GetAppError(wrapped).Type)

	assert.Nil(t, GetAppError(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestAppErrorCauseChain(t *testing.T) {
	cause := errors.New("throttled")
	err := NewDatabaseError("query entries", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query entries")
	assert.Contains(t, err.Error(), "throttled")
}
