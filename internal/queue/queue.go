// Package queue serializes all generation work into one consumer loop,
// enforcing the active model's per-minute budget and rotating backends on
// quota failures without losing the failed request's place in line.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-gateway/internal/metrics"
	"github.com/clinichub/clinic-gateway/internal/registry"
	"github.com/clinichub/clinic-gateway/internal/responder"
	"github.com/clinichub/clinic-gateway/internal/session"
)

// Result is the outcome delivered back to the enqueuing caller. Exactly one
// Result is sent per enqueued request.
type Result struct {
	Text string
	Err  error
}

// Generator produces the reply for one request against one descriptor.
// *responder.Facade satisfies it.
type Generator interface {
	Generate(ctx context.Context, utterance string, sess *session.Session, lang string, d *registry.Descriptor) (string, error)
}

// Config holds the queue's tunables.
type Config struct {
	// Window is the rate-accounting period (60s in production).
	Window time.Duration
	// CallTimeout bounds one external generation call. A timed-out call is
	// treated like any other backend failure so a hung backend cannot stall
	// the consumer forever.
	CallTimeout time.Duration
	// MaxConsecutiveFailures is the per-descriptor strike limit before the
	// registry rotates away from it.
	MaxConsecutiveFailures int
}

type request struct {
	id        string
	utterance string
	sess      *session.Session
	lang      string
	attempts  int
	done      chan Result
}

// Queue is a multi-producer, single-consumer FIFO. The consumer goroutine
// starts on demand and exits when the queue drains; a reentrancy flag keeps
// it unique. Nothing mutates the rate window or the current descriptor except
// this loop and the registry it drives.
type Queue struct {
	mu      sync.Mutex
	items   []*request
	running bool

	reg *registry.Registry
	gen Generator
	cfg Config

	maxAttempts int
	now         func() time.Time
	sleep       func(time.Duration)
	logger      *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock replaces the queue's clock and sleep, for tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(q *Queue) {
		q.now = now
		q.sleep = sleep
	}
}

// New creates an idle queue.
func New(reg *registry.Registry, gen Generator, cfg Config, logger *slog.Logger, opts ...Option) *Queue {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = 3
	}
	q := &Queue{
		reg:         reg,
		gen:         gen,
		cfg:         cfg,
		maxAttempts: reg.Size(),
		now:         time.Now,
		sleep:       time.Sleep,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a request and returns the channel its Result will arrive
// on. Safe for concurrent callers; starts the consumer if it is idle.
func (q *Queue) Enqueue(utterance string, sess *session.Session, lang string) <-chan Result {
	req := &request{
		id:        uuid.NewString(),
		utterance: utterance,
		sess:      sess,
		lang:      lang,
		done:      make(chan Result, 1),
	}

	q.mu.Lock()
	q.items = append(q.items, req)
	metrics.QueueDepth.Set(float64(len(q.items)))
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.consume()
	}
	return req.done
}

// Depth returns the number of waiting requests.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) consume() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		// Budget check happens before the head is taken: the whole queue
		// stalls on an exhausted window rather than reordering around it.
		q.waitForBudget()

		q.mu.Lock()
		req := q.items[0]
		q.items = q.items[1:]
		metrics.QueueDepth.Set(float64(len(q.items)))
		q.mu.Unlock()

		q.attempt(req)
	}
}

// waitForBudget implements the rate window: reset it when aged out, and when
// the active descriptor's budget is spent, suspend until the window would
// naturally reset.
func (q *Queue) waitForBudget() {
	d := q.reg.Current()
	count, start := q.reg.Window()

	if q.now().Sub(start) >= q.cfg.Window {
		q.reg.ResetWindow()
		return
	}
	if d.BudgetPerMinute <= 0 || count < d.BudgetPerMinute {
		return
	}

	wait := q.cfg.Window - q.now().Sub(start)
	metrics.RateLimitStalls.Inc()
	q.logger.Info("rate window exhausted, consumer stalled",
		"model", d.Name, "budget", d.BudgetPerMinute, "wait", wait)
	if wait > 0 {
		q.sleep(wait)
	}
	q.reg.ResetWindow()
}

// attempt runs one dequeue/dispatch step. Quota failures rotate the registry
// and put the request back at the front of the line; other failures reject
// the request to its caller, rotating only once the descriptor has struck
// out. Attempts per request are bounded by the ring size.
func (q *Queue) attempt(req *request) {
	d := q.reg.Current()

	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.CallTimeout)
	began := q.now()
	text, err := q.gen.Generate(ctx, req.utterance, req.sess, req.lang, d)
	cancel()
	metrics.GenerationLatency.Observe(q.now().Sub(began).Seconds())

	if err == nil {
		q.reg.IncrementWindow()
		q.reg.RecordSuccess(d)
		metrics.GenerationRequests.WithLabelValues(d.Name, "success").Inc()
		req.done <- Result{Text: text}
		return
	}

	failures := q.reg.RecordFailure(d)

	if responder.IsQuota(err) {
		metrics.GenerationRequests.WithLabelValues(d.Name, "quota").Inc()
		metrics.ModelFailovers.Inc()
		next := q.reg.Advance()
		q.logger.Warn("backend over quota, failing over",
			"request", req.id, "from", d.Name, "to", next.Name)

		req.attempts++
		if req.attempts >= q.maxAttempts {
			req.done <- Result{Err: fmt.Errorf("request exhausted %d backends: %w", req.attempts, err)}
			return
		}
		q.mu.Lock()
		q.items = append([]*request{req}, q.items...)
		metrics.QueueDepth.Set(float64(len(q.items)))
		q.mu.Unlock()
		return
	}

	metrics.GenerationRequests.WithLabelValues(d.Name, "error").Inc()
	if failures >= q.cfg.MaxConsecutiveFailures {
		metrics.ModelFailovers.Inc()
		next := q.reg.Advance()
		q.logger.Warn("backend struck out, rotating away",
			"from", d.Name, "to", next.Name, "failures", failures)
	}
	// Deterministic errors are surfaced, not retried forever.
	req.done <- Result{Err: err}
}
