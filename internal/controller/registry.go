package controller

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aidetect/aidetect/internal/metrics"
	"github.com/google/uuid"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Detector Detector
	Previews Previews
	Logger   *slog.Logger
	// IdleTTL is how long a controller may go untouched before Sweep tears it down.
	IdleTTL time.Duration
	Now     func() time.Time
}

// Registry maps session-held controller ids to live controllers.
type Registry struct {
	opts RegistryOptions

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry returns an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// GetOrCreate returns the controller registered under id, creating and probing a new one when
// id is empty or unknown. The bool reports whether a controller was created.
func (r *Registry) GetOrCreate(id string) (*Controller, bool) {
	id = strings.TrimSpace(id)

	r.mu.Lock()
	if c, ok := r.controllers[id]; ok && id != "" {
		r.mu.Unlock()
		c.Touch()
		return c, false
	}
	c := New(Options{
		ID:       uuid.NewString(),
		Detector: r.opts.Detector,
		Previews: r.opts.Previews,
		Logger:   r.opts.Logger,
		Now:      r.opts.Now,
	})
	r.controllers[c.ID()] = c
	n := len(r.controllers)
	r.mu.Unlock()

	metrics.ControllersActive.Set(float64(n))
	c.Probe()
	return c, true
}

// Get returns the controller registered under id.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	c, ok := r.controllers[strings.TrimSpace(id)]
	r.mu.Unlock()
	if ok {
		c.Touch()
	}
	return c, ok
}

// Remove tears down and forgets the controller registered under id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c, ok := r.controllers[id]
	delete(r.controllers, id)
	n := len(r.controllers)
	r.mu.Unlock()

	if ok {
		c.Close()
		metrics.ControllersActive.Set(float64(n))
	}
}

// Sweep tears down controllers idle for longer than IdleTTL and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}

	var stale []*Controller
	r.mu.Lock()
	for id, c := range r.controllers {
		if now.Sub(c.LastActive()) > r.opts.IdleTTL {
			stale = append(stale, c)
			delete(r.controllers, id)
		}
	}
	n := len(r.controllers)
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	if len(stale) > 0 {
		metrics.ControllersActive.Set(float64(n))
		metrics.ControllersEvictedTotal.Add(float64(len(stale)))
	}
	return len(stale)
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Close tears down every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.controllers
	r.controllers = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
	metrics.ControllersActive.Set(0)
}
