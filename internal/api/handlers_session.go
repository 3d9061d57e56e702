// handlers_session.go - Upload session handlers
package api

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/obd2-sampler/backend/internal/metrics"
	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/parser"
	"github.com/obd2-sampler/backend/internal/session"
	"github.com/obd2-sampler/backend/internal/storage"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
	validator  *parser.FileValidator
	metrics    *metrics.Metrics
	sampleRate int
	logger     *slog.Logger
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(store storage.Store, sessionMgr SessionManager, m *metrics.Metrics, maxFileSize int64, sampleRate int, logger *slog.Logger) SessionHandler {
	if sampleRate <= 0 {
		sampleRate = parser.DefaultSampleRate
	}
	return &SessionHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
		validator:  parser.NewFileValidator(maxFileSize, logger),
		metrics:    m,
		sampleRate: sampleRate,
		logger:     logger.With("component", "api"),
	}
}

// HandleCreateSession validates and stores a multipart upload, then starts
// the pipeline in a new session.
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	headers, rate, err := h.readUpload(c)
	if err != nil {
		return err
	}

	if err := h.validator.Validate(formFiles(headers)); err != nil {
		h.metrics.RejectUpload(session.Code(err))
		return FromError(err)
	}

	files, err := h.storeFiles(headers)
	if err != nil {
		return err
	}

	sess, err := h.sessionMgr.Start(files, rate)
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusAccepted, sess.Info())
}

// HandleUploadToSession replaces the file set of an existing session. A
// rejected set still resets the session and records the error on it.
func (h *SessionHandlerImpl) HandleUploadToSession(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.sessionMgr.Get(id); err != nil {
		return NewNotFoundError("session", id)
	}

	headers, rate, err := h.readUpload(c)
	if err != nil {
		return err
	}

	candidates := formFiles(headers)
	if err := h.validator.Validate(candidates); err != nil {
		h.metrics.RejectUpload(session.Code(err))
		if _, rerr := h.sessionMgr.Restart(id, candidates, rate); rerr != nil {
			h.logger.Debug("Failed to record rejected upload", "session", id, "error", rerr)
		}
		return FromError(err)
	}

	files, err := h.storeFiles(headers)
	if err != nil {
		return err
	}

	sess, err := h.sessionMgr.Restart(id, files, rate)
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusAccepted, sess.Info())
}

// HandleGetSession returns the session state
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.Info())
}

// HandleDeleteSession drops a session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessionMgr.Delete(id); err != nil {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetFields returns the chart-selectable fields
func (h *SessionHandlerImpl) HandleGetFields(c echo.Context) error {
	cols, err := h.columns(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cols.Eligible())
}

// HandleGetColumns returns the full column model
func (h *SessionHandlerImpl) HandleGetColumns(c echo.Context) error {
	cols, err := h.columns(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cols)
}

// HandleGetColumnsMsgpack returns the column model in MessagePack format
func (h *SessionHandlerImpl) HandleGetColumnsMsgpack(c echo.Context) error {
	cols, err := h.columns(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(cols); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", buf.Bytes())
}

// HandleGetColumn returns one column by header index
func (h *SessionHandlerImpl) HandleGetColumn(c echo.Context) error {
	cols, err := h.columns(c)
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return NewValidationError("index")
	}
	col, ok := cols.ByIndex(index)
	if !ok {
		return NewNotFoundError("column", c.Param("index"))
	}
	return c.JSON(http.StatusOK, col)
}

func (h *SessionHandlerImpl) session(c echo.Context) (*session.Session, error) {
	return lookupSession(h.sessionMgr, c.Param("id"))
}

func (h *SessionHandlerImpl) columns(c echo.Context) (models.ColumnSet, error) {
	sess, err := h.session(c)
	if err != nil {
		return nil, err
	}
	cols, err := sess.Columns()
	if err != nil {
		return nil, NewConflictError("session is not ready: " + string(sess.Stage()))
	}
	return cols, nil
}

// readUpload extracts the "files" parts and the stride of a multipart request.
func (h *SessionHandlerImpl) readUpload(c echo.Context) ([]*multipart.FileHeader, int, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, 0, FromError(parser.ErrNoFiles)
	}

	rate := h.sampleRate
	if v := c.FormValue("sampleRate"); v != "" {
		rate, err = strconv.Atoi(v)
		if err != nil {
			return nil, 0, NewValidationError("sampleRate")
		}
	}
	if err := parser.ValidateStride(rate); err != nil {
		return nil, 0, FromError(err)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, 0, FromError(parser.ErrNoFiles)
	}
	return headers, rate, nil
}

// storeFiles persists every accepted part and returns pipeline inputs
// backed by the store.
func (h *SessionHandlerImpl) storeFiles(headers []*multipart.FileHeader) ([]models.RawFile, error) {
	files := make([]models.RawFile, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return nil, NewBadRequestError("failed to read uploaded file", err)
		}
		info, err := h.store.Save(fh.Filename, fh.Header.Get(echo.HeaderContentType), src)
		src.Close()
		if err != nil {
			return nil, NewInternalError("failed to save file", err)
		}

		h.metrics.AcceptUpload(info.Size)
		h.logger.Info("Upload stored", "file", info.Name, "id", info.ID, "size", info.Size)
		files = append(files, storage.RawFile(h.store, info))
	}
	return files, nil
}

// formFiles describes multipart parts as pipeline candidates.
func formFiles(headers []*multipart.FileHeader) []models.RawFile {
	files := make([]models.RawFile, len(headers))
	for i, fh := range headers {
		files[i] = models.RawFile{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get(echo.HeaderContentType),
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}
	return files
}

func lookupSession(mgr SessionManager, id string) (*session.Session, error) {
	sess, err := mgr.Get(id)
	if err != nil {
		return nil, NewNotFoundError("session", id)
	}
	mgr.Touch(id)
	return sess, nil
}
