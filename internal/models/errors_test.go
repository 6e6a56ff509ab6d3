package models_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

func TestAPIErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *models.APIError
		expected string
	}{
		{
			name:     "code_only",
			err:      &models.APIError{Code: "invalid_request"},
			expected: "invalid_request",
		},
		{
			name: "code_and_description",
			err: &models.APIError{
				Code:        "invalid_request",
				Description: "Missing required parameter",
			},
			expected: "invalid_request: Missing required parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name           string
		error          *models.APIError
		expectedCode   string
		expectedStatus int
	}{
		{"invalid_request", models.ErrInvalidRequest, "invalid_request", http.StatusBadRequest},
		{"unauthorized", models.ErrUnauthorized, "unauthorized", http.StatusUnauthorized},
		{"unsupported_media_type", models.ErrUnsupportedMediaType, "unsupported_media_type", http.StatusUnsupportedMediaType},
		{"rate_limited", models.ErrRateLimited, "rate_limited", http.StatusTooManyRequests},
		{"server_error", models.ErrServerError, "server_error", http.StatusInternalServerError},
		{"temporarily_unavailable", models.ErrTemporarilyUnavailable, "temporarily_unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, tt.error.Code)
			assert.Equal(t, tt.expectedStatus, tt.error.StatusCode)
		})
	}
}

func TestNewErrorFunctions(t *testing.T) {
	tests := []struct {
		name           string
		createFunc     func(string) *models.APIError
		expectedCode   string
		expectedStatus int
	}{
		{"new_invalid_request", models.NewInvalidRequest, "invalid_request", http.StatusBadRequest},
		{"new_unauthorized", models.NewUnauthorized, "unauthorized", http.StatusUnauthorized},
		{"new_server_error", models.NewServerError, "server_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.createFunc("something went wrong")

			assert.Equal(t, tt.expectedCode, err.Code)
			assert.Equal(t, tt.expectedStatus, err.StatusCode)
			assert.Equal(t, "something went wrong", err.Description)
		})
	}
}

func TestNewValidationFailed(t *testing.T) {
	fields := models.ValidationErrors{}.Add("username", "is required")

	err := models.NewValidationFailed(fields)

	assert.Equal(t, "validation_failed", err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, "username: is required", err.Description)

	body, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	assert.JSONEq(t,
		`{"error":"validation_failed","error_description":"username: is required","fields":[{"field":"username","message":"is required"}]}`,
		string(body))
}

func TestValidationErrorsError(t *testing.T) {
	tests := []struct {
		name        string
		errors      models.ValidationErrors
		expectedMsg string
	}{
		{
			name:        "empty_errors",
			errors:      models.ValidationErrors{},
			expectedMsg: "validation failed",
		},
		{
			name: "single_error",
			errors: models.ValidationErrors{
				{Field: "username", Message: "is required"},
			},
			expectedMsg: "username: is required",
		},
		{
			name: "multiple_errors",
			errors: models.ValidationErrors{
				{Field: "username", Message: "is required"},
				{Field: "user_token", Message: "is required"},
			},
			expectedMsg: "validation failed with 2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.errors.Error())
		})
	}
}

func TestValidationErrorsHasErrors(t *testing.T) {
	var errs models.ValidationErrors
	assert.False(t, errs.HasErrors())

	errs = errs.Add("username", "is required")
	assert.True(t, errs.HasErrors())
	assert.Len(t, errs, 1)
}

func TestWithDescriptionCopies(t *testing.T) {
	err := models.ErrInvalidRequest.WithDescription("Missing parameter")

	assert.Equal(t, "invalid_request", err.Code)
	assert.Equal(t, "Missing parameter", err.Description)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Empty(t, models.ErrInvalidRequest.Description)
}

func TestErrorImplementsErrorInterface(_ *testing.T) {
	var err error = &models.APIError{Code: "test"}
	_ = err.Error()

	err = models.ValidationErrors{}
	_ = err.Error()
}
