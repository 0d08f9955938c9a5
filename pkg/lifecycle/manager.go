package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/cms"
	"github.com/juneof/promo-engine/pkg/metrics"
	"github.com/juneof/promo-engine/pkg/route"
	"github.com/juneof/promo-engine/pkg/store"
)

// janitorInterval is how often idle sessions are swept.
const janitorInterval = time.Minute

// Manager owns the live sessions, creating them on first contact and
// evicting them after the configured idle window.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	source  cms.RuleSource
	store   *store.Store
	broker  *route.Broker
	idleTTL time.Duration

	stop    chan struct{}
	stopped sync.Once
}

// NewManager creates a session manager and starts its eviction janitor.
func NewManager(source cms.RuleSource, st *store.Store, broker *route.Broker, idleTTL time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		source:   source,
		store:    st,
		broker:   broker,
		idleTTL:  idleTTL,
		stop:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Session returns the session for an id, creating it if needed. The visitor
// id scopes durable dismissals and may differ from the session id when the
// storefront carries a long-lived visitor cookie.
func (m *Manager) Session(sessionID, visitorID string) *Session {
	if visitorID == "" {
		visitorID = sessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		return s
	}

	tracker := route.NewTracker(m.broker, sessionID)
	s := NewSession(sessionID, visitorID, tracker, m.source, m.store)
	m.sessions[sessionID] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// AnnounceProductContext routes an availability announcement to its session.
// Unknown sessions and out-of-scope announcements are dropped.
func (m *Manager) AnnounceProductContext(ctx context.Context, sessionID string, pc route.ProductContext) bool {
	s, ok := m.Lookup(sessionID)
	if !ok {
		logrus.Debugf("dropping product context for unknown session %s", sessionID)
		return false
	}
	return s.HandleProductContext(ctx, pc)
}

// Close stops the janitor and shuts down all sessions.
func (m *Manager) Close() {
	m.stopped.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.shutdown()
		delete(m.sessions, id)
	}
	metrics.SessionsActive.Set(0)
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			s.shutdown()
			delete(m.sessions, id)
			logrus.Debugf("evicted idle session %s", id)
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
}
