// internal/app/system/tenant/registry.go
package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Registry hands out one Manager per logical session and reaps managers
// that have been idle past a threshold so abandoned sessions do not leak
// tenant connections. Each manager has its own pool; connections are never
// shared across sessions.
type Registry struct {
	dir   Directory
	prov  Provisioner
	log   *zap.Logger
	clock clock.Clock

	interval      time.Duration
	idleThreshold time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

type registryEntry struct {
	mgr      *Manager
	pool     *Pool
	lastSeen time.Time
}

// NewRegistry constructs a Registry. interval is how often the reaper runs;
// idleThreshold is how long a session must be untouched before its manager
// is cleared and dropped.
func NewRegistry(dir Directory, prov Provisioner, logger *zap.Logger, interval, idleThreshold time.Duration) *Registry {
	return newRegistry(dir, prov, logger, interval, idleThreshold, clock.New())
}

// newRegistry allows tests to inject a mock clock.
func newRegistry(dir Directory, prov Provisioner, logger *zap.Logger, interval, idleThreshold time.Duration, clk clock.Clock) *Registry {
	return &Registry{
		dir:           dir,
		prov:          prov,
		log:           logger,
		clock:         clk,
		interval:      interval,
		idleThreshold: idleThreshold,
		entries:       make(map[string]*registryEntry),
		stopCh:        make(chan struct{}),
	}
}

// Manager returns the Manager for sessionID, creating one on first use, and
// marks the session as seen.
func (r *Registry) Manager(sessionID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.clock.Now()
		return e.mgr
	}
	pool := NewPool(r.prov, r.log)
	mgr := NewManager(r.dir, pool, r.log)
	mgr.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventReady:
			r.log.Debug("tenant ready",
				zap.String("session_id", sessionID),
				zap.String("slug", ev.Org.Slug))
		case EventCleared:
			r.log.Debug("tenant cleared",
				zap.String("session_id", sessionID))
		case EventError:
			r.log.Debug("tenant activation failed",
				zap.String("session_id", sessionID),
				zap.Error(ev.Err))
		}
	})
	r.entries[sessionID] = &registryEntry{
		mgr:      mgr,
		pool:     pool,
		lastSeen: r.clock.Now(),
	}
	return mgr
}

// Drop clears the session's manager (releasing its connection) and removes
// it from the registry. Used on logout.
func (r *Registry) Drop(ctx context.Context, sessionID string) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if ok {
		delete(r.entries, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	e.mgr.Clear(ctx)
	e.pool.CloseAll(ctx)
}

// Start begins the background reap loop.
func (r *Registry) Start() {
	r.wg.Add(1)
	go r.run()
	r.log.Info("tenant session reaper started",
		zap.Duration("interval", r.interval),
		zap.Duration("idle_threshold", r.idleThreshold))
}

// Stop signals the reaper to stop and waits for it to finish.
func (r *Registry) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("tenant session reaper stopped")
}

// CloseAll drops every session. Used at shutdown.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.mgr.Clear(ctx)
		e.pool.CloseAll(ctx)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) run() {
	defer r.wg.Done()

	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

// reap clears and drops managers idle past the threshold.
func (r *Registry) reap() {
	cutoff := r.clock.Now().Add(-r.idleThreshold)

	r.mu.Lock()
	var idle []*registryEntry
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	if len(idle) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, e := range idle {
		e.mgr.Clear(ctx)
		e.pool.CloseAll(ctx)
	}
	r.log.Info("reaped idle tenant sessions", zap.Int("count", len(idle)))
}
