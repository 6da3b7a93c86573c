// internal/app/system/tenant/manager.go
package tenant

import (
	"context"
	"sync"

	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.uber.org/zap"
)

// Directory is the slice of the central directory the tenant core needs:
// fetch-by-slug returning the record or ErrOrgNotFound / ErrAccessDenied.
type Directory interface {
	GetOrganization(ctx context.Context, slug string) (models.Organization, error)
}

// Manager owns the current-organization state for one session. At most one
// organization is current at a time; switching releases the outgoing
// tenant's connection before the ready event fires for the incoming one.
//
// Activate and Clear are serialized: a second call entering while one is in
// flight waits, and if a newer activation was requested in the meantime the
// stale one returns ErrSuperseded without publishing anything.
type Manager struct {
	dir  Directory
	pool *Pool
	log  *zap.Logger
	bus  bus

	// genMu guards gen only; it is taken briefly at call entry so a new
	// activation can supersede one still waiting on opMu.
	genMu sync.Mutex
	gen   uint64

	// opMu serializes Activate/Clear bodies (single-flight).
	opMu sync.Mutex

	// stateMu guards current/conn for readers.
	stateMu sync.RWMutex
	current models.Organization
	active  bool
	conn    *Conn
}

// NewManager constructs a Manager over the given directory and pool.
func NewManager(dir Directory, pool *Pool, logger *zap.Logger) *Manager {
	return &Manager{dir: dir, pool: pool, log: logger}
}

// Subscribe registers a listener for tenant lifecycle events.
func (m *Manager) Subscribe(fn Listener) {
	m.bus.subscribe(fn)
}

// LoadOrganization fetches the record for slug from the central directory.
// Directory errors propagate unchanged; the caller decides how to surface
// them (typically a redirect to the organization picker).
func (m *Manager) LoadOrganization(ctx context.Context, slug string) (models.Organization, error) {
	return m.dir.GetOrganization(ctx, slug)
}

// Activate makes org the current organization and returns its connection.
//
// Re-activating the organization that is already current does not
// re-provision, but still re-publishes the ready event so late subscribers
// can rely on re-invocation. Activating a different organization releases
// the previous tenant's connection strictly before the ready event fires.
func (m *Manager) Activate(ctx context.Context, org models.Organization) (*Conn, error) {
	gen := m.nextGen()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	// A newer activation entered while this one waited; its outcome is the
	// one that matters.
	if m.superseded(gen) {
		return nil, ErrSuperseded
	}

	conn, err := m.pool.Acquire(ctx, org)
	if err != nil {
		m.log.Warn("tenant activation failed",
			zap.String("slug", org.Slug), zap.Error(err))
		m.bus.publish(Event{Kind: EventError, Err: err})
		return nil, err
	}

	// The acquire may have suspended on I/O; if a newer activation arrived
	// meanwhile, abandon this one. Release only if the newer target is a
	// different slug, otherwise we would tear down its connection.
	if m.superseded(gen) {
		m.stateMu.RLock()
		keep := m.active && m.current.Slug == org.Slug
		m.stateMu.RUnlock()
		if !keep {
			m.pool.Release(ctx, org.Slug)
		}
		return nil, ErrSuperseded
	}

	m.stateMu.Lock()
	prev := m.current
	hadPrev := m.active
	m.current = org
	m.active = true
	m.conn = conn
	m.stateMu.Unlock()

	if hadPrev && prev.Slug != org.Slug {
		m.pool.Release(ctx, prev.Slug)
	}

	m.log.Info("tenant ready", zap.String("slug", org.Slug))
	m.bus.publish(Event{Kind: EventReady, Org: org})
	return conn, nil
}

// Clear releases the current organization's connection and resets the
// manager. Clearing when nothing is current is a no-op: no release, no
// event.
func (m *Manager) Clear(ctx context.Context) {
	m.nextGen()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.stateMu.Lock()
	if !m.active {
		m.stateMu.Unlock()
		return
	}
	prev := m.current
	m.current = models.Organization{}
	m.active = false
	m.conn = nil
	m.stateMu.Unlock()

	m.pool.Release(ctx, prev.Slug)
	m.log.Info("tenant cleared", zap.String("slug", prev.Slug))
	m.bus.publish(Event{Kind: EventCleared})
}

// Current returns the active organization, if any. Pure read.
func (m *Manager) Current() (models.Organization, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current, m.active
}

// Conn returns the active organization's connection, if any. The Manager
// holds a non-owning reference; the pool owns the handle.
func (m *Manager) Conn() (*Conn, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.conn, m.conn != nil
}

func (m *Manager) nextGen() uint64 {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	m.gen++
	return m.gen
}

func (m *Manager) superseded(gen uint64) bool {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	return m.gen != gen
}
