package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/clinichub/clinic-gateway/internal/metrics"
)

// Store holds all live sessions, keyed by user ID. Sessions are created
// lazily and removed by the periodic sweep once idle beyond the threshold.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleAfter       time.Duration
	defaultLanguage string
	now             func() time.Time
	logger          *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc replaces the store's clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// NewStore creates an empty store. idleAfter is the global inactivity
// threshold past which the sweep deletes a session.
func NewStore(idleAfter time.Duration, defaultLanguage string, logger *slog.Logger, opts ...Option) *Store {
	st := &Store{
		sessions:        make(map[string]*Session),
		idleAfter:       idleAfter,
		defaultLanguage: defaultLanguage,
		now:             time.Now,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// GetOrCreate returns the user's session, creating a default one on first
// contact. Every call refreshes the idle clock. Never fails.
func (st *Store) GetOrCreate(userID, channel string) *Session {
	now := st.now()

	st.mu.RLock()
	s, ok := st.sessions[userID]
	st.mu.RUnlock()
	if ok {
		s.Touch(now)
		return s
	}

	st.mu.Lock()
	if s, ok = st.sessions[userID]; !ok {
		s = newSession(userID, channel, st.defaultLanguage, now)
		st.sessions[userID] = s
		metrics.ActiveSessions.Set(float64(len(st.sessions)))
		st.logger.Debug("session created", "user", userID, "channel", channel)
	}
	st.mu.Unlock()

	s.Touch(now)
	return s
}

// Get returns an existing session without refreshing its idle clock.
func (st *Store) Get(userID string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// ForEach visits every live session.
func (st *Store) ForEach(fn func(*Session)) {
	st.mu.RLock()
	list := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		list = append(list, s)
	}
	st.mu.RUnlock()
	for _, s := range list {
		fn(s)
	}
}

// Snapshots returns read-only views of every live session.
func (st *Store) Snapshots() []View {
	st.mu.RLock()
	defer st.mu.RUnlock()
	views := make([]View, 0, len(st.sessions))
	for _, s := range st.sessions {
		views = append(views, s.Snapshot())
	}
	return views
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep deletes sessions idle beyond the threshold and returns how many were
// removed. Any armed admin deadline is disarmed before removal so no expiry
// action can fire against a deleted record.
func (st *Store) Sweep() int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for userID, s := range st.sessions {
		if now.Sub(s.LastInteraction()) <= st.idleAfter {
			continue
		}
		if s.ExitAdmin() {
			metrics.AdminSessions.Dec()
		}
		delete(st.sessions, userID)
		removed++
		st.logger.Debug("session evicted", "user", userID)
	}
	if removed > 0 {
		metrics.ActiveSessions.Set(float64(len(st.sessions)))
	}
	return removed
}
