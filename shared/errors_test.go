package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		build  func(error, string) *AppError
		status int
	}{
		{"bad request", NewBadRequestError, http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError, http.StatusUnauthorized},
		{"not found", NewNotFoundError, http.StatusNotFound},
		{"conflict", NewConflictError, http.StatusConflict},
		{"too many requests", NewTooManyRequestsError, http.StatusTooManyRequests},
		{"internal", NewInternalError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cause := fmt.Errorf("cause for %s", tc.name)
			appErr := tc.build(cause, "public message")

			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, "public message", appErr.Message)
			assert.ErrorIs(t, appErr, cause)
		})
	}
}

func TestGetAppError(t *testing.T) {
	t.Run("unwraps through wrapped errors", func(t *testing.T) {
		inner := NewTooManyRequestsError(errors.New("window exhausted"), "Rate limit exceeded")
		wrapped := fmt.Errorf("handler: %w", inner)

		appErr, ok := GetAppError(wrapped)
		require.True(t, ok)
		assert.Equal(t, http.StatusTooManyRequests, appErr.StatusCode)
	})

	t.Run("plain errors are not app errors", func(t *testing.T) {
		_, ok := GetAppError(errors.New("plain"))
		assert.False(t, ok)
	})
}
