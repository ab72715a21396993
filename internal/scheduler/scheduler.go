// Package scheduler runs the periodic maintenance jobs: idle-session
// sweeps, hand-off quiet-period expiry and delayed menu followups.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/clinichub/clinic-gateway/internal/agent"
	"github.com/clinichub/clinic-gateway/internal/handoff"
	"github.com/clinichub/clinic-gateway/internal/session"
)

type Scheduler struct {
	cron    *cron.Cron
	store   *session.Store
	handoff *handoff.Manager
	loop    *agent.Loop
	logger  *slog.Logger
}

func NewScheduler(store *session.Store, hm *handoff.Manager, loop *agent.Loop, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		store:   store,
		handoff: hm,
		loop:    loop,
		logger:  logger,
	}

	// Seconds-resolution specs: followups fire within a second of their
	// deadline, expiry within five, sweeps once a minute.
	jobs := []struct {
		spec string
		fn   func()
	}{
		{"*/1 * * * * *", s.flushFollowups},
		{"*/5 * * * * *", s.expireHandoffs},
		{"0 * * * * *", s.sweepSessions},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) sweepSessions() {
	if n := s.store.Sweep(); n > 0 {
		s.logger.Info("idle sessions evicted", "count", n)
	}
}

func (s *Scheduler) expireHandoffs() {
	if n := s.handoff.ExpireStale(); n > 0 {
		s.logger.Info("handoff sessions reactivated", "count", n)
	}
}

func (s *Scheduler) flushFollowups() {
	s.loop.FlushFollowups()
}
