// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/chart"
	"github.com/obd2-sampler/backend/internal/parser"
	"github.com/obd2-sampler/backend/internal/session"
	"github.com/obd2-sampler/backend/internal/storage"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromError converts domain errors to API errors. Unknown errors become
// a 500 carrying the error text as details.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, parser.ErrInvalidFileType):
		status, code = http.StatusUnsupportedMediaType, session.CodeInvalidFileType
	case errors.Is(err, parser.ErrFileTooLarge):
		status, code = http.StatusRequestEntityTooLarge, session.CodeFileTooLarge
	case errors.Is(err, parser.ErrNoFiles):
		status, code = http.StatusBadRequest, session.CodeNoFiles
	case errors.Is(err, parser.ErrInvalidStride):
		status, code = http.StatusBadRequest, session.CodeInvalidStride
	case errors.Is(err, parser.ErrSchemaMismatch):
		status, code = http.StatusUnprocessableEntity, session.CodeSchemaMismatch
	case errors.Is(err, parser.ErrMissingHeader):
		status, code = http.StatusUnprocessableEntity, session.CodeMissingHeader
	case errors.Is(err, chart.ErrNotEligible):
		status, code = http.StatusBadRequest, "NOT_ELIGIBLE"
	case errors.Is(err, session.ErrNotReady):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, session.ErrTooManySessions):
		status, code = http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, storage.ErrSnapshotNotFound),
		errors.Is(err, storage.ErrFileNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	}

	apiErr = &APIError{Status: status, Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		apiErr.Message = "An unexpected error occurred"
		apiErr.Details = err.Error()
	}
	return apiErr
}

// NewErrorHandler returns the echo error handler.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(logger)
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "api")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		} else {
			apiErr = FromError(err)
		}

		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err)
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(apiErr.Status)
			return
		}
		c.JSON(apiErr.Status, apiErr)
	}
}
