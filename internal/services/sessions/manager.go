// -----------------------------------------------------------------------
// Package sessions keeps one in-memory trip planner per browser
// -----------------------------------------------------------------------

package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/validation"
)

// CookieName carries the planner session id
const CookieName = "serendib_planner"

// SweepJobName is the scheduler job that expires idle sessions
const SweepJobName = "planner_session_sweep"

// Manager owns all planner sessions. Sessions are never persisted.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*planner.Session
	catalog    *planner.Catalog
	dispatcher planner.Dispatcher
	validator  *validation.Service
	ttl        time.Duration
	events     interfaces.EventService
	logger     arbor.ILogger
	now        func() time.Time
}

// NewManager creates a session manager. events may be nil.
func NewManager(catalog *planner.Catalog, dispatcher planner.Dispatcher, ttl time.Duration, events interfaces.EventService, logger arbor.ILogger) *Manager {
	return &Manager{
		sessions:   make(map[string]*planner.Session),
		catalog:    catalog,
		dispatcher: dispatcher,
		validator:  planner.NewFormValidator(),
		ttl:        ttl,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Catalog returns the shared place catalogue
func (m *Manager) Catalog() *planner.Catalog {
	return m.catalog
}

// Get returns the live session for id and refreshes its activity time
func (m *Manager) Get(id string) (*planner.Session, bool) {
	if id == "" {
		return nil, false
	}

	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	now := m.now()
	if now.Sub(session.LastSeen()) > m.ttl && session.WatcherCount() == 0 {
		m.remove(id)
		return nil, false
	}

	session.Touch(now)
	return session, true
}

// GetOrCreate returns the session for id, creating a new one when it is unknown or expired.
// The second value reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*planner.Session, bool) {
	if session, ok := m.Get(id); ok {
		return session, false
	}

	session := planner.NewSession(common.NewID("plan"), m.catalog, m.dispatcher, m.validator, m.logger)
	session.Touch(m.now())

	m.mu.Lock()
	m.sessions[session.ID] = session
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug().
		Str("session_id", session.ID).
		Int("active_sessions", count).
		Msg("Planner session created")

	return session, true
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL. Sessions with an open
// websocket are kept. Returns the number removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var expired []*planner.Session
	for id, session := range m.sessions {
		if now.Sub(session.LastSeen()) > m.ttl && session.WatcherCount() == 0 {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}

	if len(expired) > 0 {
		m.logger.Info().
			Int("expired", len(expired)).
			Int("remaining", remaining).
			Msg("Planner sessions swept")

		if m.events != nil {
			_ = m.events.Publish(ctx, interfaces.Event{
				Type:    interfaces.EventSessionsSwept,
				Payload: map[string]interface{}{"count": len(expired)},
			})
		}
	}

	return len(expired)
}

// RegisterSweeper schedules Sweep on the given cron schedule
func (m *Manager) RegisterSweeper(scheduler interfaces.SchedulerService, schedule string) error {
	return scheduler.RegisterJob(SweepJobName, schedule, "Expire idle trip planner sessions", func() error {
		m.Sweep(context.Background())
		return nil
	})
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*planner.Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		session.Close()
	}
}
