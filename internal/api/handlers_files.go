// handlers_files.go - Stored upload handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/storage"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store       storage.Store
	recentLimit int
	allowDelete bool
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, recentLimit int, allowDelete bool) FileHandler {
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &FileHandlerImpl{
		store:       store,
		recentLimit: recentLimit,
		allowDelete: allowDelete,
	}
}

// HandleGetRecentFiles lists stored uploads, newest first
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	limit := h.recentLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"files": files,
	})
}

// HandleDeleteFile removes a stored upload
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	if !h.allowDelete {
		return NewForbiddenError("file deletion is disabled")
	}

	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
