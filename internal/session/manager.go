package session

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
	"github.com/mtaprecip/mtaprecip/internal/export"
	"github.com/mtaprecip/mtaprecip/internal/observability"
	"github.com/mtaprecip/mtaprecip/internal/report"
	"github.com/mtaprecip/mtaprecip/internal/selection"
	"github.com/mtaprecip/mtaprecip/internal/timewindow"
)

// Defaults for the session lifecycle.
const (
	DefaultIdleTTL       = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Config holds configuration for the session manager.
type Config struct {
	// Catalog is the station reference data (required).
	Catalog *catalog.Catalog

	// Resolver evaluates the time window (required).
	Resolver *timewindow.Resolver

	// Generator produces workbooks for exports (required).
	Generator report.Generator

	// Metrics records session and export metrics (optional).
	Metrics *observability.Metrics

	// Clock supplies last-use times. If nil, uses the real clock.
	Clock clockwork.Clock

	// IdleTTL is how long an unused session lives. Default: 2 hours.
	IdleTTL time.Duration

	// SweepInterval is how often expired sessions are removed.
	// Default: 5 minutes.
	SweepInterval time.Duration

	// Logger for session operations.
	Logger zerolog.Logger
}

// Manager owns the open sessions. Sessions never share state.
type Manager struct {
	cfg   Config
	clock clockwork.Clock

	mu       sync.RWMutex
	sessions map[string]*Session

	scheduler *gocron.Scheduler
	logger    zerolog.Logger
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.IdleTTL == 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	return &Manager{
		cfg:      cfg,
		clock:    cfg.Clock,
		sessions: make(map[string]*Session),
		logger:   cfg.Logger.With().Str("component", "sessions").Logger(),
	}
}

// Create opens a new session with no date and an empty selection.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	now := m.clock.Now()
	logger := m.logger.With().Str("session_id", id).Logger()

	s := &Session{
		id:         id,
		catalog:    m.cfg.Catalog,
		clock:      m.clock,
		picker:     timewindow.NewPicker(m.cfg.Resolver),
		resolver:   m.cfg.Resolver,
		selection:  selection.NewStore(m.cfg.Catalog),
		createdAt:  now,
		lastSeenAt: now,
	}
	s.controller = export.NewController(export.Config{
		Resolver:  m.cfg.Resolver,
		Catalog:   m.cfg.Catalog,
		Generator: m.cfg.Generator,
		Metrics:   m.cfg.Metrics,
		Clock:     m.clock,
		OnTransition: func(from, to export.State) {
			logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("export state changed")
		},
		Logger: logger,
	})

	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.setActive(count)
	logger.Info().Msg("session created")
	return s
}

// Get returns a session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	m.setActive(count)
	m.logger.Info().Str("session_id", id).Msg("session ended")
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed. A session with an export in flight is kept.
func (m *Manager) Sweep() int {
	cutoff := m.clock.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.Busy() || !s.idleSince().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.setActive(count)
		if m.cfg.Metrics != nil {
			m.cfg.Metrics.SessionsExpired.Add(float64(removed))
		}
		m.logger.Info().Int("expired", removed).Int("active", count).Msg("expired idle sessions")
	}
	return removed
}

// Start runs Sweep periodically in the background.
func (m *Manager) Start() error {
	seconds := int(m.cfg.SweepInterval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}

	m.scheduler = gocron.NewScheduler(time.UTC)
	_, err := m.scheduler.Every(seconds).Seconds().WaitForSchedule().Do(func() {
		m.Sweep()
	})
	if err != nil {
		return err
	}

	m.scheduler.StartAsync()
	m.logger.Info().
		Dur("idle_ttl", m.cfg.IdleTTL).
		Dur("sweep_interval", m.cfg.SweepInterval).
		Msg("session sweeper started")
	return nil
}

// Stop stops the background sweeper.
func (m *Manager) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

func (m *Manager) setActive(n int) {
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SessionsActive.Set(float64(n))
	}
}
