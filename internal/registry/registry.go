// Package registry tracks the ordered ring of response-generation backends,
// their health and the rate window of the active one.
package registry

import (
	"fmt"
	"sync"
	"time"
)

// Kind distinguishes generative backends from the deterministic responder.
type Kind string

const (
	KindGenerative    Kind = "generative"
	KindDeterministic Kind = "deterministic"
)

// Descriptor describes one response-generation backend. Name/Kind/Provider/
// Model/Budget are fixed at construction; the failure count is mutable and
// guarded by the owning registry.
type Descriptor struct {
	Name            string
	Kind            Kind
	Provider        string
	Model           string
	BudgetPerMinute int
	Enabled         bool

	failures int
}

// View is a read-only copy of a descriptor for the admin surface.
type View struct {
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	Provider        string `json:"provider"`
	Model           string `json:"model,omitempty"`
	BudgetPerMinute int    `json:"budget_per_minute"`
	Enabled         bool   `json:"enabled"`
	Failures        int    `json:"consecutive_failures"`
	Current         bool   `json:"current"`
}

// Registry owns the descriptor ring. Exactly one descriptor is current at any
// time, and the ring always contains an enabled deterministic fallback, so
// Current and Advance can never come up empty.
type Registry struct {
	mu      sync.RWMutex
	ring    []*Descriptor
	current int

	windowCount int
	windowStart time.Time

	now func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithNowFunc replaces the registry's clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New builds a registry from the configured ring. The ring must contain at
// least one enabled deterministic descriptor; it is the guarantee that the
// registry can never run out of usable backends.
func New(ring []*Descriptor, opts ...Option) (*Registry, error) {
	if len(ring) == 0 {
		return nil, fmt.Errorf("registry needs at least one descriptor")
	}
	fallback := -1
	for i, d := range ring {
		if d.Kind == KindDeterministic && d.Enabled {
			fallback = i
		}
	}
	if fallback < 0 {
		return nil, fmt.Errorf("registry needs an enabled deterministic fallback descriptor")
	}

	r := &Registry{ring: ring, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	// Start on the first enabled descriptor.
	for i, d := range ring {
		if d.Enabled {
			r.current = i
			break
		}
	}
	r.windowStart = r.now()
	return r, nil
}

// Current returns the active descriptor. Never fails.
func (r *Registry) Current() *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring[r.current]
}

// Advance moves to the next enabled descriptor in ring order and resets the
// rate window. If no other enabled descriptor exists it lands on the
// deterministic fallback.
func (r *Registry) Advance() *Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.ring)
	for i := 1; i <= n; i++ {
		idx := (r.current + i) % n
		if r.ring[idx].Enabled {
			r.setCurrentLocked(idx)
			return r.ring[idx]
		}
	}
	// Full scan found nothing else enabled: fall back explicitly.
	for i, d := range r.ring {
		if d.Kind == KindDeterministic && d.Enabled {
			r.setCurrentLocked(i)
			break
		}
	}
	return r.ring[r.current]
}

func (r *Registry) setCurrentLocked(idx int) {
	r.current = idx
	r.windowCount = 0
	r.windowStart = r.now()
}

// SwitchTo makes a named descriptor current (admin operation) and resets the
// rate window.
func (r *Registry) SwitchTo(name string) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.ring {
		if d.Name == name {
			if !d.Enabled {
				return nil, fmt.Errorf("descriptor %s is disabled", name)
			}
			r.setCurrentLocked(i)
			return d, nil
		}
	}
	return nil, fmt.Errorf("descriptor %s not found", name)
}

// RecordSuccess resets a descriptor's consecutive failure count.
func (r *Registry) RecordSuccess(d *Descriptor) {
	r.mu.Lock()
	d.failures = 0
	r.mu.Unlock()
}

// RecordFailure increments and returns a descriptor's consecutive failure
// count.
func (r *Registry) RecordFailure(d *Descriptor) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.failures++
	return d.failures
}

// Failures returns a descriptor's consecutive failure count.
func (r *Registry) Failures(d *Descriptor) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return d.failures
}

// Reset clears every descriptor's failure count.
func (r *Registry) Reset() {
	r.mu.Lock()
	for _, d := range r.ring {
		d.failures = 0
	}
	r.mu.Unlock()
}

// Window returns the active rate window's request count and start time.
func (r *Registry) Window() (int, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.windowCount, r.windowStart
}

// ResetWindow zeroes the window count and restarts its clock.
func (r *Registry) ResetWindow() {
	r.mu.Lock()
	r.windowCount = 0
	r.windowStart = r.now()
	r.mu.Unlock()
}

// IncrementWindow counts one served request against the active window.
func (r *Registry) IncrementWindow() {
	r.mu.Lock()
	r.windowCount++
	r.mu.Unlock()
}

// Size returns the number of descriptors in the ring.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ring)
}

// Snapshot returns read-only views of the ring for the admin surface.
func (r *Registry) Snapshot() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	views := make([]View, 0, len(r.ring))
	for i, d := range r.ring {
		views = append(views, View{
			Name:            d.Name,
			Kind:            string(d.Kind),
			Provider:        d.Provider,
			Model:           d.Model,
			BudgetPerMinute: d.BudgetPerMinute,
			Enabled:         d.Enabled,
			Failures:        d.failures,
			Current:         i == r.current,
		})
	}
	return views
}
