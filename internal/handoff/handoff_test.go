package handoff

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/clinic-gateway/internal/logging"
	"github.com/clinichub/clinic-gateway/internal/session"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type reactivations struct {
	mu    sync.Mutex
	calls []string
}

func (r *reactivations) record(userID, lang string) {
	r.mu.Lock()
	r.calls = append(r.calls, userID+"/"+lang)
	r.mu.Unlock()
}

func newTestManager(t *testing.T) (*Manager, *session.Store, *fakeClock, *reactivations) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	logger := logging.WithComponent("test")
	store := session.NewStore(30*time.Minute, "en", logger, session.WithNowFunc(clock.Now))
	m := NewManager(store, 15*time.Minute, []string{"admin", "makipag-usap"}, logger, WithNowFunc(clock.Now))
	re := &reactivations{}
	m.OnReactivate(re.record)
	return m, store, clock, re
}

func TestRequested(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	assert.True(t, m.Requested("Talk to ADMIN please"))
	assert.True(t, m.Requested("pwede makipag-usap sa tao"))
	assert.False(t, m.Requested("when is the dentist in"))
}

func TestInterceptAbsorbsAndRearms(t *testing.T) {
	m, store, clock, _ := newTestManager(t)
	s := store.GetOrCreate("u1", "messenger")

	assert.False(t, m.Intercept(s), "automated sessions are not intercepted")

	require.True(t, m.EnableSession(s))
	assert.False(t, m.EnableSession(s), "second enable only re-arms")

	// User messages inside admin mode are absorbed and push the deadline.
	clock.Advance(10 * time.Minute)
	assert.True(t, m.Intercept(s))

	clock.Advance(10 * time.Minute) // 20m after entry, 10m after re-arm
	assert.Equal(t, 0, m.ExpireStale(), "re-armed deadline must not expire yet")
	assert.True(t, s.InAdminMode())
}

func TestExpireFlipsExactlyOnce(t *testing.T) {
	m, store, clock, re := newTestManager(t)
	s := store.GetOrCreate("u1", "messenger")
	s.SetLanguage("tl")
	m.EnableSession(s)

	clock.Advance(16 * time.Minute)
	assert.Equal(t, 1, m.ExpireStale())
	assert.False(t, s.InAdminMode())
	assert.Equal(t, 0, m.ExpireStale(), "expiry must fire exactly once")

	re.mu.Lock()
	defer re.mu.Unlock()
	require.Len(t, re.calls, 1)
	assert.Equal(t, "u1/tl", re.calls[0], "notice goes out in the last known language")
}

func TestOperatorRepliedEntersThenRearms(t *testing.T) {
	m, store, clock, _ := newTestManager(t)
	store.GetOrCreate("u1", "messenger")

	require.NoError(t, m.OperatorReplied("u1"))
	s, _ := store.Get("u1")
	assert.True(t, s.InAdminMode(), "operator activity enters admin mode")

	clock.Advance(14 * time.Minute)
	require.NoError(t, m.OperatorReplied("u1"))
	clock.Advance(14 * time.Minute)
	assert.Equal(t, 0, m.ExpireStale(), "re-armed by operator activity")

	assert.Error(t, m.OperatorReplied("ghost"), "unknown users are an error")
}

func TestDisable(t *testing.T) {
	m, store, _, re := newTestManager(t)
	s := store.GetOrCreate("u1", "messenger")
	m.EnableSession(s)

	require.NoError(t, m.Disable("u1"))
	assert.False(t, s.InAdminMode())
	assert.Equal(t, 0, m.ExpireStale())

	re.mu.Lock()
	defer re.mu.Unlock()
	assert.Empty(t, re.calls, "manual disable sends no reactivation notice")
}

type recordingPublisher struct {
	mu    sync.Mutex
	users []string
}

func (p *recordingPublisher) PublishHandoff(_ context.Context, userID, _ string) error {
	p.mu.Lock()
	p.users = append(p.users, userID)
	p.mu.Unlock()
	return nil
}

func TestEnablePublishesOnce(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	logger := logging.WithComponent("test")
	store := session.NewStore(30*time.Minute, "en", logger, session.WithNowFunc(clock.Now))
	pub := &recordingPublisher{}
	m := NewManager(store, 15*time.Minute, []string{"admin"}, logger, WithNowFunc(clock.Now), WithPublisher(pub))

	s := store.GetOrCreate("u1", "messenger")
	m.EnableSession(s)
	m.EnableSession(s)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"u1"}, pub.users, "one notification per hand-off, not per re-arm")
}
