package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/obd2-sampler/backend/internal/metrics"
	"github.com/obd2-sampler/backend/internal/models"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion
const DefaultMaxSessions = 10

// SessionMaxAge is how long to keep finished sessions before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// ErrTooManySessions is returned when every slot holds a running session.
var ErrTooManySessions = errors.New("too many active sessions")

// Manager handles pipeline sessions.
type Manager struct {
	sessions    map[string]*Session
	mu          sync.RWMutex
	ctx         context.Context
	opts        Options
	maxSessions int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Options     Options
	MaxSessions int
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// NewManager creates a session manager. Runs are cancelled when ctx ends.
func NewManager(ctx context.Context, cfg ManagerConfig) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		ctx:         ctx,
		opts:        cfg.Options.withDefaults(),
		maxSessions: cfg.MaxSessions,
		logger:      cfg.Logger.With("component", "manager"),
		metrics:     cfg.Metrics,
	}
}

// Options returns the pipeline options applied to new sessions.
func (m *Manager) Options() Options {
	return m.opts
}

// Start creates a session and runs the pipeline over files in the background.
func (m *Manager) Start(files []models.RawFile, sampleRate int) (*Session, error) {
	if err := m.cleanupOldSessionsIfNeeded(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s := New(id, m.opts, m.logger, m.metrics)

	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(count)
	m.logger.Info("Session started", "session", id, "files", len(files), "sample_rate", sampleRate)

	s.Start(m.ctx, files, sampleRate)
	return s, nil
}

// Restart runs a new upload in an existing session. Every derived dataset
// of the previous run is dropped first.
func (m *Manager) Restart(id string, files []models.RawFile, sampleRate int) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.touch()
	m.logger.Info("Session restarted", "session", id, "files", len(files), "sample_rate", sampleRate)
	s.Start(m.ctx, files, sampleRate)
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Touch updates the last accessed time of a session to keep it alive
func (m *Manager) Touch(id string) bool {
	s, err := m.Get(id)
	if err != nil {
		return false
	}
	s.touch()
	return true
}

// Delete cancels and removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	m.metrics.SetActiveSessions(count)
	return nil
}

// Len returns the number of held sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupOldSessionsIfNeeded evicts the least recently used finished
// sessions until a slot is free.
func (m *Manager) cleanupOldSessionsIfNeeded() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < m.maxSessions {
		return nil
	}

	var finished []*Session
	for _, s := range m.sessions {
		if s.Stage().Terminal() || s.Stage() == models.StageIdle {
			finished = append(finished, s)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].lastAccess().Before(finished[j].lastAccess())
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	if len(finished) < toFree {
		return ErrTooManySessions
	}
	for _, s := range finished[:toFree] {
		delete(m.sessions, s.ID())
		s.close()
		m.logger.Info("Evicted session to free a slot", "session", s.ID())
	}
	return nil
}

// CleanupOldSessions removes finished sessions not accessed within maxAge.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)
	if maxAge < SessionKeepAliveWindow {
		keepAliveCutoff = cutoff
	}

	removed := 0
	for id, s := range m.sessions {
		if !s.Stage().Terminal() {
			continue
		}

		last := s.lastAccess()
		if last.After(keepAliveCutoff) || !last.Before(cutoff) {
			continue
		}

		delete(m.sessions, id)
		s.close()
		removed++
		m.logger.Info("Cleaned up aged session",
			"session", id,
			"idle", time.Since(last).Round(time.Second))
	}

	if removed > 0 {
		m.metrics.SetActiveSessions(len(m.sessions))
	}
	return removed
}

// RunCleanup calls CleanupOldSessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.CleanupOldSessions(maxAge)
		}
	}
}

// Close cancels every session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.close()
		delete(m.sessions, id)
	}
}
