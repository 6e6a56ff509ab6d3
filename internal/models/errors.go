package models

import (
	"fmt"
	"net/http"
)

// APIError is the JSON error body returned by the service's API endpoints.
// It implements the error interface.
type APIError struct {
	// Code is the machine-readable error code (e.g., "invalid_request").
	Code string `json:"error"`
	// Description provides additional human-readable error information.
	Description string `json:"error_description,omitempty"`
	// Fields lists per-field validation failures.
	Fields ValidationErrors `json:"fields,omitempty"`
	// StatusCode is the HTTP status code to return (excluded from JSON).
	StatusCode int `json:"-"`
}

// NewInvalidRequest creates an "invalid_request" error. Returns HTTP 400 Bad Request.
func NewInvalidRequest(description string) *APIError {
	return &APIError{
		Code:        "invalid_request",
		Description: description,
		StatusCode:  http.StatusBadRequest,
	}
}

// NewValidationFailed creates a "validation_failed" error carrying the field
// problems. Returns HTTP 422 Unprocessable Entity.
func NewValidationFailed(fields ValidationErrors) *APIError {
	return &APIError{
		Code:        "validation_failed",
		Description: fields.Error(),
		Fields:      fields,
		StatusCode:  http.StatusUnprocessableEntity,
	}
}

// NewUnauthorized creates an "unauthorized" error. Returns HTTP 401 Unauthorized.
func NewUnauthorized(description string) *APIError {
	return &APIError{
		Code:        "unauthorized",
		Description: description,
		StatusCode:  http.StatusUnauthorized,
	}
}

// NewServerError creates a "server_error" error. Returns HTTP 500 Internal Server Error.
func NewServerError(description string) *APIError {
	return &APIError{
		Code:        "server_error",
		Description: description,
		StatusCode:  http.StatusInternalServerError,
	}
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// WithDescription returns a copy of the error with error_description set, so
// the shared sentinels below are never mutated.
func (e *APIError) WithDescription(description string) *APIError {
	c := *e
	c.Description = description
	return &c
}

var (
	// ErrInvalidRequest indicates a malformed request body or parameter.
	ErrInvalidRequest = &APIError{
		Code:       "invalid_request",
		StatusCode: http.StatusBadRequest,
	}

	// ErrUnauthorized indicates missing or wrong admin credentials.
	ErrUnauthorized = &APIError{
		Code:       "unauthorized",
		StatusCode: http.StatusUnauthorized,
	}

	// ErrUnsupportedMediaType indicates a body in a content type the endpoint does not accept.
	ErrUnsupportedMediaType = &APIError{
		Code:       "unsupported_media_type",
		StatusCode: http.StatusUnsupportedMediaType,
	}

	// ErrMethodNotAllowed indicates a known path requested with the wrong method.
	ErrMethodNotAllowed = &APIError{
		Code:       "method_not_allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}

	// ErrRateLimited indicates the client exceeded the request rate.
	ErrRateLimited = &APIError{
		Code:       "rate_limited",
		StatusCode: http.StatusTooManyRequests,
	}

	// ErrServerError indicates an unexpected condition on the server.
	ErrServerError = &APIError{
		Code:       "server_error",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrTemporarilyUnavailable indicates the session store cannot be reached.
	ErrTemporarilyUnavailable = &APIError{
		Code:       "temporarily_unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}
)

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error returns a string representation of the validation error in the format
// "field: message". It implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a slice of ValidationError that represents multiple
// field validation errors. It implements the error interface.
type ValidationErrors []ValidationError

// Error returns a string representation of the validation errors.
// If there are no errors, it returns "validation failed".
// If there is one error, it returns that error's message.
// If there are multiple errors, it returns a summary with the count.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e))
}

// HasErrors returns true if there are one or more validation errors in the collection.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Add appends a field error and returns the extended collection.
func (e ValidationErrors) Add(field, message string) ValidationErrors {
	return append(e, ValidationError{Field: field, Message: message})
}
