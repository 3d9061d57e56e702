package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/obd2-sampler/backend/internal/metrics"
	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/parser"
	"github.com/obd2-sampler/backend/internal/storage"
)

// Error codes recorded on a failed session.
const (
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeSchemaMismatch  = "SCHEMA_MISMATCH"
	CodeMissingHeader   = "MISSING_HEADER"
	CodeInvalidStride   = "INVALID_STRIDE"
	CodeNoFiles         = "NO_FILES"
	CodeReadFailed      = "READ_FAILED"
	CodeInternal        = "INTERNAL"
)

// ErrNotReady is returned by accessors while no completed run is available.
var ErrNotReady = errors.New("session is not ready")

// FileStatusRecorder records the outcome of a run on stored uploads.
type FileStatusRecorder interface {
	SetStatus(id, status string) error
}

// Options configures the pipeline of a session. Files, when set, receives
// the consolidated or rejected status of every stored input.
type Options struct {
	MaxFileSize int64
	Delimiter   string
	Files       FileStatusRecorder
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = parser.DefaultMaxFileSize
	}
	if o.Delimiter == "" {
		o.Delimiter = parser.DefaultDelimiter
	}
	return o
}

// run identifies one pipeline execution. State written by a run whose
// generation is no longer current is discarded.
type run struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	rate   int
}

// Session owns every intermediate dataset of one upload. All mutation goes
// through the stage machine; readers receive copies or immutable slices.
type Session struct {
	mu      sync.RWMutex
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	info         models.SessionInfo
	consolidated models.Dataset
	sampled      models.Dataset
	table        models.Table
	columns      models.ColumnSet

	current      *run
	gen          uint64
	watchers     map[int]chan models.SessionInfo
	nextWatcher  int
	lastAccessed time.Time
}

// New creates an idle session.
func New(id string, opts Options, logger *slog.Logger, m *metrics.Metrics) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Session{
		opts:    opts.withDefaults(),
		logger:  logger.With("component", "session", "session", id),
		metrics: m,
		info: models.SessionInfo{
			ID:        id,
			Stage:     models.StageIdle,
			CreatedAt: now,
			UpdatedAt: now,
		},
		watchers:     make(map[int]chan models.SessionInfo),
		lastAccessed: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.info.ID
}

// Info returns a snapshot of the session state.
func (s *Session) Info() models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() models.SessionInfo {
	info := s.info
	info.Files = append([]models.FileInfo(nil), s.info.Files...)
	info.Issues = append([]models.ParseError(nil), s.info.Issues...)
	if s.info.Error != nil {
		e := *s.info.Error
		info.Error = &e
	}
	return info
}

// Stage returns the current stage.
func (s *Session) Stage() models.Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Stage
}

// Done returns a channel closed when the current run ends. For a session
// without a run in flight the channel is already closed.
func (s *Session) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.current.done
}

// Wait blocks until the current run ends or ctx is done.
func (s *Session) Wait(ctx context.Context) (models.SessionInfo, error) {
	select {
	case <-s.Done():
		return s.Info(), nil
	case <-ctx.Done():
		return s.Info(), ctx.Err()
	}
}

// Consolidated returns the consolidated dataset of the last ready run.
func (s *Session) Consolidated() (models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info.Stage != models.StageReady {
		return models.Dataset{}, ErrNotReady
	}
	return s.consolidated, nil
}

// Sampled returns the sampled dataset of the last ready run.
func (s *Session) Sampled() (models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info.Stage != models.StageReady {
		return models.Dataset{}, ErrNotReady
	}
	return s.sampled, nil
}

// Table returns the parsed sampled table of the last ready run.
func (s *Session) Table() (models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info.Stage != models.StageReady {
		return models.Table{}, ErrNotReady
	}
	return s.table, nil
}

// Columns returns the column model of the last ready run.
func (s *Session) Columns() (models.ColumnSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info.Stage != models.StageReady {
		return nil, ErrNotReady
	}
	return s.columns, nil
}

// Subscribe returns a channel receiving the session state after every
// transition, and a function to stop receiving. Slow subscribers miss
// intermediate updates; Done still signals the end of a run.
func (s *Session) Subscribe() (<-chan models.SessionInfo, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.SessionInfo, 16)
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
}

// Reset cancels any run in flight and returns the session to idle with
// every derived dataset dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandonLocked()
	s.clearLocked()
	s.info.Error = nil
	s.info.SampleRate = 0
	s.info.Stage = models.StageIdle
	s.info.UpdatedAt = time.Now()
	s.notifyLocked()
}

// Start resets the session and runs the pipeline in the background.
func (s *Session) Start(ctx context.Context, files []models.RawFile, sampleRate int) {
	r := s.begin(ctx, files, sampleRate)
	go s.execute(r, files)
}

// Run resets the session and runs the pipeline to completion.
func (s *Session) Run(ctx context.Context, files []models.RawFile, sampleRate int) error {
	r := s.begin(ctx, files, sampleRate)
	return s.execute(r, files)
}

func (s *Session) begin(ctx context.Context, files []models.RawFile, sampleRate int) *run {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandonLocked()
	s.clearLocked()

	s.gen++
	rctx, cancel := context.WithCancel(ctx)
	r := &run{gen: s.gen, ctx: rctx, cancel: cancel, done: make(chan struct{}), rate: sampleRate}
	s.current = r

	s.info.SampleRate = sampleRate
	s.info.Files = make([]models.FileInfo, len(files))
	for i, f := range files {
		s.info.Files[i] = models.FileInfo{
			ID:       f.ID,
			Name:     f.Name,
			Size:     f.Size,
			MIMEType: f.MIMEType,
			Status:   storage.StatusUploaded,
		}
	}
	s.setStageLocked(models.StageIdle)
	return r
}

// abandonLocked cancels the current run; its results will be ignored.
func (s *Session) abandonLocked() {
	if s.current != nil {
		s.current.cancel()
		s.gen++
		s.current = nil
	}
}

func (s *Session) clearLocked() {
	s.consolidated = models.Dataset{}
	s.sampled = models.Dataset{}
	s.table = models.Table{}
	s.columns = nil
	s.info.Files = nil
	s.info.FileIndex = 0
	s.info.TotalRows = 0
	s.info.SampledRows = 0
	s.info.ColumnCount = 0
	s.info.Issues = nil
}

func (s *Session) setStageLocked(stage models.Stage) {
	s.info.Stage = stage
	s.info.UpdatedAt = time.Now()
	s.logger.Debug("Stage changed", "stage", stage)
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	info := s.infoLocked()
	for _, ch := range s.watchers {
		select {
		case ch <- info:
		default:
		}
	}
}

// update applies fn if r is still the current run.
func (s *Session) update(r *run, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != r.gen {
		return false
	}
	fn()
	return true
}

func (s *Session) transition(r *run, stage models.Stage) error {
	if !s.update(r, func() { s.setStageLocked(stage) }) {
		return context.Canceled
	}
	return nil
}

func (s *Session) execute(r *run, files []models.RawFile) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("Pipeline panicked", "panic", rec)
			err = fmt.Errorf("pipeline panicked: %v", rec)
			s.fail(r, files, CodeInternal, err)
		}
		outcome := metrics.OutcomeReady
		if err != nil {
			outcome = metrics.OutcomeFailed
		}
		s.metrics.ObserveRun(outcome, time.Since(start), s.Info().SampledRows)
		r.cancel()
		close(r.done)
	}()

	if err = s.pipeline(r, files); err != nil {
		s.fail(r, files, Code(err), err)
		return err
	}

	s.logger.Info("Pipeline ready",
		"files", len(files),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Session) pipeline(r *run, files []models.RawFile) error {
	if err := s.transition(r, models.StageValidating); err != nil {
		return err
	}
	validator := parser.NewFileValidator(s.opts.MaxFileSize, s.logger)
	if err := validator.Validate(files); err != nil {
		return err
	}
	if err := parser.ValidateStride(r.rate); err != nil {
		return err
	}

	if err := s.transition(r, models.StageReading); err != nil {
		return err
	}
	reader := parser.NewSequentialReader(files, s.opts.MaxFileSize)
	consolidator := parser.NewConsolidator(s.opts.Delimiter)
	err := reader.ReadAll(r.ctx, func(index int, name, content string) error {
		if err := s.transition(r, models.StageConsolidating); err != nil {
			return err
		}
		if err := consolidator.Add(name, content); err != nil {
			return err
		}
		s.update(r, func() {
			s.info.FileIndex = index + 1
			s.info.Files[index].Status = storage.StatusConsolidated
			s.info.ColumnCount = consolidator.ColumnCount()
			s.info.TotalRows = consolidator.Dataset().Len()
			if index+1 < len(files) {
				s.setStageLocked(models.StageReading)
			}
		})
		s.recordStatus(files[index], storage.StatusConsolidated)
		s.logger.Info("File consolidated", "file", name, "index", index)
		return nil
	})
	if err != nil {
		return err
	}
	consolidated := consolidator.Dataset()

	if err := s.transition(r, models.StageSampling); err != nil {
		return err
	}
	rows, err := parser.Sample(consolidated.Rows, r.rate)
	if err != nil {
		return err
	}
	sampled := models.Dataset{Header: consolidated.Header, Rows: rows}

	if err := s.transition(r, models.StageParsing); err != nil {
		return err
	}
	table := parser.NewTableParser(s.opts.Delimiter).Parse(sampled)

	if err := s.transition(r, models.StageComputingStats); err != nil {
		return err
	}
	columns := parser.BuildColumns(table)

	if !s.update(r, func() {
		s.consolidated = consolidated
		s.sampled = sampled
		s.table = table
		s.columns = columns
		s.info.SampledRows = sampled.Len()
		s.info.Issues = table.Issues
		s.info.Error = nil
		s.setStageLocked(models.StageReady)
	}) {
		return context.Canceled
	}
	return nil
}

// fail records err as the latest error and clears the accepted file set.
// Every stored input of the run is marked rejected.
func (s *Session) fail(r *run, files []models.RawFile, code string, err error) {
	ok := s.update(r, func() {
		s.clearLocked()
		s.info.Error = &models.SessionError{Code: code, Message: err.Error()}
		s.setStageLocked(models.StageFailed)
	})
	if ok {
		s.logger.Error("Pipeline failed", "code", code, "error", err)
		for _, f := range files {
			s.recordStatus(f, storage.StatusRejected)
		}
	}
}

func (s *Session) recordStatus(f models.RawFile, status string) {
	if s.opts.Files == nil || f.ID == "" {
		return
	}
	if err := s.opts.Files.SetStatus(f.ID, status); err != nil {
		s.logger.Warn("Failed to record file status", "file", f.ID, "status", status, "error", err)
	}
}

// Code maps a pipeline error to its session error code.
func Code(err error) string {
	switch {
	case errors.Is(err, parser.ErrInvalidFileType):
		return CodeInvalidFileType
	case errors.Is(err, parser.ErrFileTooLarge):
		return CodeFileTooLarge
	case errors.Is(err, parser.ErrSchemaMismatch):
		return CodeSchemaMismatch
	case errors.Is(err, parser.ErrMissingHeader):
		return CodeMissingHeader
	case errors.Is(err, parser.ErrInvalidStride):
		return CodeInvalidStride
	case errors.Is(err, parser.ErrNoFiles):
		return CodeNoFiles
	}
	return CodeReadFailed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccessed = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessed
}

// close cancels any run in flight and drops subscribers.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}
