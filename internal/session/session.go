// Package session owns the per-user conversation records and their lifecycle.
package session

import (
	"sync"
	"time"
)

// HistoryLimit bounds the stored conversation turns per session.
const HistoryLimit = 5

// Turn is one user utterance and the bot's reply to it.
type Turn struct {
	User string    `json:"user"`
	Bot  string    `json:"bot"`
	At   time.Time `json:"at"`
}

// Session is the mutable conversation record for one user. All mutation goes
// through its methods; fields are guarded by the session's own lock so the
// webhook goroutines, the queue consumer and the sweep can touch it safely.
type Session struct {
	mu sync.Mutex

	userID  string
	channel string

	history           []Turn
	lastLanguage      string
	lastInteraction   time.Time
	createdAt         time.Time
	conversationEnded bool

	adminMode         bool
	lastAdminActivity time.Time
	adminDeadline     time.Time

	followupDue time.Time
}

// View is an immutable snapshot of a session for the admin surface.
type View struct {
	UserID          string    `json:"user_id"`
	Channel         string    `json:"channel"`
	Language        string    `json:"language"`
	AdminMode       bool      `json:"admin_mode"`
	Ended           bool      `json:"conversation_ended"`
	LastInteraction time.Time `json:"last_interaction"`
	AdminDeadline   time.Time `json:"admin_deadline,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	History         []Turn    `json:"history"`
}

func newSession(userID, channel, defaultLanguage string, now time.Time) *Session {
	return &Session{
		userID:          userID,
		channel:         channel,
		lastLanguage:    defaultLanguage,
		lastInteraction: now,
		createdAt:       now,
	}
}

// UserID returns the owning user's opaque identifier.
func (s *Session) UserID() string { return s.userID }

// Channel returns the transport channel the session was created from.
func (s *Session) Channel() string { return s.channel }

// Touch refreshes the idle clock.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastInteraction = now
	s.mu.Unlock()
}

// LastInteraction returns the idle clock's last value.
func (s *Session) LastInteraction() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInteraction
}

// AddTurn appends a completed exchange, evicting the oldest beyond the limit.
func (s *Session) AddTurn(user, bot string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Turn{User: user, Bot: bot, At: now})
	if len(s.history) > HistoryLimit {
		s.history = s.history[len(s.history)-HistoryLimit:]
	}
}

// RecentTurns returns up to n most recent turns, oldest first.
func (s *Session) RecentTurns(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]Turn, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// SetLanguage records the last detected language tag.
func (s *Session) SetLanguage(tag string) {
	s.mu.Lock()
	s.lastLanguage = tag
	s.mu.Unlock()
}

// Language returns the last detected language tag.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLanguage
}

// EnterAdmin flips the session into operator-controlled mode and arms the
// quiet-period deadline. Returns false if the session was already in admin
// mode (the deadline is still re-armed).
func (s *Session) EnterAdmin(now time.Time, quiet time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entered := !s.adminMode
	s.adminMode = true
	s.lastAdminActivity = now
	s.adminDeadline = now.Add(quiet)
	return entered
}

// RefreshAdmin re-stamps operator activity and replaces the deadline.
// A no-op outside admin mode.
func (s *Session) RefreshAdmin(now time.Time, quiet time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.adminMode {
		return false
	}
	s.lastAdminActivity = now
	s.adminDeadline = now.Add(quiet)
	return true
}

// ExitAdmin clears admin mode and its deadline. Returns true if the session
// was in admin mode.
func (s *Session) ExitAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.adminMode
	s.adminMode = false
	s.lastAdminActivity = time.Time{}
	s.adminDeadline = time.Time{}
	return was
}

// ExpireAdmin clears admin mode only when its deadline has passed, so the
// scan cannot race a concurrent re-arm. Returns true when it flipped.
func (s *Session) ExpireAdmin(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.adminMode || s.adminDeadline.IsZero() || now.Before(s.adminDeadline) {
		return false
	}
	s.adminMode = false
	s.lastAdminActivity = time.Time{}
	s.adminDeadline = time.Time{}
	return true
}

// InAdminMode reports whether a human operator owns this conversation.
func (s *Session) InAdminMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminMode
}

// EndConversation marks a farewell; proactive menu prompts are suppressed
// until the user re-engages.
func (s *Session) EndConversation() {
	s.mu.Lock()
	s.conversationEnded = true
	s.followupDue = time.Time{}
	s.mu.Unlock()
}

// Reopen clears the farewell flag.
func (s *Session) Reopen() {
	s.mu.Lock()
	s.conversationEnded = false
	s.mu.Unlock()
}

// Ended reports whether the user said goodbye.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationEnded
}

// ArmFollowup schedules the delayed menu prompt. Overwrites any pending one.
func (s *Session) ArmFollowup(at time.Time) {
	s.mu.Lock()
	s.followupDue = at
	s.mu.Unlock()
}

// TakeDueFollowup disarms and returns true when a follow-up is due and the
// session is still eligible for proactive prompts.
func (s *Session) TakeDueFollowup(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.followupDue.IsZero() || now.Before(s.followupDue) {
		return false
	}
	s.followupDue = time.Time{}
	return !s.conversationEnded && !s.adminMode
}

// Snapshot copies the session for read-only consumers.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Turn, len(s.history))
	copy(history, s.history)
	return View{
		UserID:          s.userID,
		Channel:         s.channel,
		Language:        s.lastLanguage,
		AdminMode:       s.adminMode,
		Ended:           s.conversationEnded,
		LastInteraction: s.lastInteraction,
		AdminDeadline:   s.adminDeadline,
		CreatedAt:       s.createdAt,
		History:         history,
	}
}
