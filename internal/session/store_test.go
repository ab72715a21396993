package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/clinichub/clinic-gateway/internal/logging"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(idle time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	st := NewStore(idle, "en", logging.WithComponent("test"), WithNowFunc(clock.Now))
	return st, clock
}

func TestHistoryBounded(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.GetOrCreate("u1", "messenger")

	for i := 0; i < HistoryLimit+3; i++ {
		s.AddTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), clock.Now())
	}

	turns := s.RecentTurns(HistoryLimit + 3)
	if len(turns) != HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(turns), HistoryLimit)
	}
	// Oldest evicted first: the first kept turn is q3.
	if turns[0].User != "q3" {
		t.Errorf("oldest kept turn = %q, want q3", turns[0].User)
	}
	if turns[len(turns)-1].User != "q7" {
		t.Errorf("newest turn = %q, want q7", turns[len(turns)-1].User)
	}
}

func TestRecentTurnsPartial(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.GetOrCreate("u1", "messenger")
	s.AddTurn("q0", "a0", clock.Now())
	s.AddTurn("q1", "a1", clock.Now())

	turns := s.RecentTurns(3)
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
}

func TestGetOrCreateRefreshesIdleClock(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.GetOrCreate("u1", "messenger")
	first := s.LastInteraction()

	clock.Advance(10 * time.Minute)
	again := st.GetOrCreate("u1", "messenger")
	if again != s {
		t.Fatal("GetOrCreate returned a different session for the same user")
	}
	if !s.LastInteraction().After(first) {
		t.Error("idle clock was not refreshed")
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	st.GetOrCreate("idle-user", "messenger")

	clock.Advance(31 * time.Minute)
	st.GetOrCreate("fresh-user", "messenger")

	if removed := st.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d sessions, want 1", removed)
	}
	if _, ok := st.Get("idle-user"); ok {
		t.Error("idle session still present after sweep")
	}
	if _, ok := st.Get("fresh-user"); !ok {
		t.Error("fresh session was evicted")
	}
}

func TestSweepDisarmsAdminDeadline(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.GetOrCreate("u1", "messenger")
	s.EnterAdmin(clock.Now(), 15*time.Minute)

	clock.Advance(31 * time.Minute)
	st.Sweep()

	// The record is gone and its deadline can no longer fire.
	if _, ok := st.Get("u1"); ok {
		t.Fatal("session survived sweep")
	}
	clock.Advance(time.Hour)
	if s.ExpireAdmin(clock.Now()) {
		t.Error("admin expiry fired against an evicted session")
	}
}

func TestAdminModeLifecycle(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.GetOrCreate("u1", "messenger")

	if !s.EnterAdmin(clock.Now(), 15*time.Minute) {
		t.Fatal("EnterAdmin on a fresh session should report entry")
	}
	if s.EnterAdmin(clock.Now(), 15*time.Minute) {
		t.Error("second EnterAdmin should only re-arm, not re-enter")
	}

	// Activity 10 minutes in pushes the deadline out.
	clock.Advance(10 * time.Minute)
	if !s.RefreshAdmin(clock.Now(), 15*time.Minute) {
		t.Fatal("RefreshAdmin failed while in admin mode")
	}

	// The original deadline passing must not flip it now.
	clock.Advance(6 * time.Minute)
	if s.ExpireAdmin(clock.Now()) {
		t.Error("expiry fired before the re-armed deadline")
	}

	clock.Advance(10 * time.Minute)
	if !s.ExpireAdmin(clock.Now()) {
		t.Error("expiry did not fire after the quiet period")
	}
	if s.ExpireAdmin(clock.Now()) {
		t.Error("expiry fired twice")
	}
	if s.InAdminMode() {
		t.Error("still in admin mode after expiry")
	}
}

func TestFollowupEligibility(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.GetOrCreate("u1", "messenger")

	s.ArmFollowup(clock.Now().Add(time.Second))
	if s.TakeDueFollowup(clock.Now()) {
		t.Error("follow-up fired before its deadline")
	}
	clock.Advance(2 * time.Second)
	if !s.TakeDueFollowup(clock.Now()) {
		t.Error("due follow-up did not fire")
	}
	if s.TakeDueFollowup(clock.Now()) {
		t.Error("follow-up fired twice")
	}

	// A farewell suppresses pending follow-ups.
	s.ArmFollowup(clock.Now().Add(time.Second))
	s.EndConversation()
	clock.Advance(2 * time.Second)
	if s.TakeDueFollowup(clock.Now()) {
		t.Error("follow-up fired after the conversation ended")
	}
}
