// handlers_snapshot.go - Snapshot slot and overlay source handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/overlay"
	"github.com/obd2-sampler/backend/internal/storage"
)

// SnapshotHandlerImpl implements the SnapshotHandler interface
type SnapshotHandlerImpl struct {
	sessionMgr SessionManager
	snapshots  storage.SnapshotStore
	overlays   *overlay.Provider
}

// NewSnapshotHandler creates a new snapshot handler instance
func NewSnapshotHandler(sessionMgr SessionManager, snapshots storage.SnapshotStore, overlays *overlay.Provider) SnapshotHandler {
	return &SnapshotHandlerImpl{
		sessionMgr: sessionMgr,
		snapshots:  snapshots,
		overlays:   overlays,
	}
}

// HandleSaveSnapshot stores the session's column model in the slot,
// replacing any previous content
func (h *SnapshotHandlerImpl) HandleSaveSnapshot(c echo.Context) error {
	sess, err := lookupSession(h.sessionMgr, c.Param("id"))
	if err != nil {
		return err
	}
	cols, err := sess.Columns()
	if err != nil {
		return NewConflictError("session is not ready: " + string(sess.Stage()))
	}

	snap, err := h.snapshots.Save(c.Request().Context(), h.overlays.Slot(), cols)
	if err != nil {
		return NewInternalError("failed to save snapshot", err)
	}
	return c.JSON(http.StatusCreated, snap)
}

// HandleGetSnapshot returns the slot content
func (h *SnapshotHandlerImpl) HandleGetSnapshot(c echo.Context) error {
	snap, err := h.snapshots.Load(c.Request().Context(), h.overlays.Slot())
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleDeleteSnapshot empties the slot
func (h *SnapshotHandlerImpl) HandleDeleteSnapshot(c echo.Context) error {
	if err := h.snapshots.Delete(c.Request().Context(), h.overlays.Slot()); err != nil {
		return NewInternalError("failed to delete snapshot", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetExampleOverlay returns the bundled example column model
func (h *SnapshotHandlerImpl) HandleGetExampleOverlay(c echo.Context) error {
	return c.JSON(http.StatusOK, h.overlays.Example())
}
