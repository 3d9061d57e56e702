package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/obd2-sampler/backend/internal/chart"
	"github.com/obd2-sampler/backend/internal/parser"
	"github.com/obd2-sampler/backend/internal/session"
	"github.com/obd2-sampler/backend/internal/storage"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("%w: a.txt", parser.ErrInvalidFileType), http.StatusUnsupportedMediaType, "INVALID_FILE_TYPE"},
		{parser.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{parser.ErrNoFiles, http.StatusBadRequest, "NO_FILES"},
		{parser.ErrInvalidStride, http.StatusBadRequest, "INVALID_STRIDE"},
		{fmt.Errorf("b.csv: %w", parser.ErrSchemaMismatch), http.StatusUnprocessableEntity, "SCHEMA_MISMATCH"},
		{parser.ErrMissingHeader, http.StatusUnprocessableEntity, "MISSING_HEADER"},
		{chart.ErrNotEligible, http.StatusBadRequest, "NOT_ELIGIBLE"},
		{session.ErrNotReady, http.StatusConflict, "CONFLICT"},
		{session.ErrTooManySessions, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{storage.ErrSnapshotNotFound, http.StatusNotFound, "NOT_FOUND"},
		{storage.ErrFileNotFound, http.StatusNotFound, "NOT_FOUND"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			apiErr := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestFromError_HidesInternalDetailsInMessage(t *testing.T) {
	apiErr := FromError(errors.New("disk on fire"))
	assert.Equal(t, "An unexpected error occurred", apiErr.Message)
	assert.Equal(t, "disk on fire", apiErr.Details)
}

func TestFromError_PassesAPIErrorThrough(t *testing.T) {
	orig := NewForbiddenError("nope")
	assert.Same(t, orig, FromError(fmt.Errorf("wrapped: %w", orig)))
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	handler := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("api error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		handler(NewConflictError("session is not ready: reading"), c)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"code":"CONFLICT","message":"session is not ready: reading"}`, rec.Body.String())
	})

	t.Run("echo error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		handler(echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), c)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"HTTP_ERROR"`)
	})

	t.Run("head request has no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)
		handler(storage.ErrFileNotFound, c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
