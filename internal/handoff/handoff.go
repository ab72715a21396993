// Package handoff governs the cooperative hand-off between the automated
// responder and a human operator. While a user's session is operator-owned
// the bot stays silent; automation self-heals after a quiet period so nobody
// is stranded if staff forget to hand control back.
package handoff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clinichub/clinic-gateway/internal/metrics"
	"github.com/clinichub/clinic-gateway/internal/session"
)

// Publisher notifies the operator side that a user asked for a human.
// Satisfied by the Redis bridge; nil when the bridge is disabled.
type Publisher interface {
	PublishHandoff(ctx context.Context, userID, channel string) error
}

// Manager is the state machine over session admin fields. Expiry runs on
// deadlines scanned by ExpireStale, so there is no per-session timer to leak
// or to fire against an evicted record.
type Manager struct {
	store         *session.Store
	quiet         time.Duration
	adminKeywords []string

	now          func() time.Time
	logger       *slog.Logger
	publisher    Publisher
	onReactivate func(userID, lang string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithNowFunc replaces the manager's clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithPublisher wires the operator-side notification publisher.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// SetPublisher wires the publisher after construction. The bridge needs the
// manager to exist first, so the two are tied together in this order during
// startup, before anything runs.
func (m *Manager) SetPublisher(p Publisher) {
	m.publisher = p
}

// NewManager creates a hand-off manager. quiet is the operator inactivity
// period after which automation resumes.
func NewManager(store *session.Store, quiet time.Duration, adminKeywords []string, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		quiet:         quiet,
		adminKeywords: adminKeywords,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnReactivate registers the callback invoked exactly once per expiry, with
// the session's last known language. The agent uses it to send the
// "assistant is back" notice and schedule the menu prompt.
func (m *Manager) OnReactivate(fn func(userID, lang string)) {
	m.onReactivate = fn
}

// Requested reports whether an utterance asks for a human operator.
func (m *Manager) Requested(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range m.adminKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// EnableSession puts a session under operator control, arming the quiet
// deadline. Returns true on the Automated -> AdminControlled transition,
// false when it only re-armed.
func (m *Manager) EnableSession(s *session.Session) bool {
	entered := s.EnterAdmin(m.now(), m.quiet)
	if entered {
		metrics.AdminSessions.Inc()
		m.logger.Info("session handed to operator", "user", s.UserID())
		if m.publisher != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := m.publisher.PublishHandoff(ctx, s.UserID(), s.Channel()); err != nil {
				m.logger.Error("hand-off notification failed", "user", s.UserID(), "error", err)
			}
			cancel()
		}
	}
	return entered
}

// Enable is the admin-surface variant of EnableSession, by user ID.
func (m *Manager) Enable(userID string) error {
	s, ok := m.store.Get(userID)
	if !ok {
		return fmt.Errorf("no session for user %s", userID)
	}
	m.EnableSession(s)
	return nil
}

// Disable returns a session to automation immediately.
func (m *Manager) Disable(userID string) error {
	s, ok := m.store.Get(userID)
	if !ok {
		return fmt.Errorf("no session for user %s", userID)
	}
	if s.ExitAdmin() {
		metrics.AdminSessions.Dec()
		m.logger.Info("session returned to automation", "user", s.UserID())
	}
	return nil
}

// OperatorReplied is the external "I am replying" signal. It enters admin
// mode if needed, otherwise re-arms the quiet deadline.
func (m *Manager) OperatorReplied(userID string) error {
	s, ok := m.store.Get(userID)
	if !ok {
		return fmt.Errorf("no session for user %s", userID)
	}
	if !s.RefreshAdmin(m.now(), m.quiet) {
		m.EnableSession(s)
	}
	return nil
}

// Intercept absorbs an inbound user message while the operator owns the
// conversation: it re-arms the quiet deadline and reports whether the
// message must be kept away from the generation path.
func (m *Manager) Intercept(s *session.Session) bool {
	return s.RefreshAdmin(m.now(), m.quiet)
}

// ExpireStale flips every session whose quiet deadline has passed back to
// Automated, invoking the reactivation callback once per flip. Returns the
// number of sessions reactivated.
func (m *Manager) ExpireStale() int {
	now := m.now()
	expired := 0
	m.store.ForEach(func(s *session.Session) {
		if !s.ExpireAdmin(now) {
			return
		}
		expired++
		metrics.AdminSessions.Dec()
		m.logger.Info("operator quiet period elapsed, automation resumed", "user", s.UserID())
		if m.onReactivate != nil {
			m.onReactivate(s.UserID(), s.Language())
		}
	})
	return expired
}
