// internal/app/system/tenant/pool.go

// Package tenant implements organization resolution and per-tenant database
// context switching: resolving a slug to an organization record in the
// central directory, provisioning an isolated connection for that tenant,
// and tracking the single currently-active tenant for a session.
package tenant

import (
	"context"
	"sync"

	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Conn is a live tenant connection registered in a Pool. The Pool owns it;
// everything else holds non-owning references.
type Conn struct {
	Slug   string
	handle Handle
}

// DB returns the tenant database for this connection.
func (c *Conn) DB() *mongo.Database { return c.handle.DB() }

// Pool caches one live connection per organization slug. Connections are
// created lazily on first Acquire and torn down on Release. The registry is
// a map keyed by slug, so duplicate live handles for the same tenant cannot
// exist.
type Pool struct {
	prov Provisioner
	log  *zap.Logger

	mu    sync.Mutex
	conns map[string]*Conn
}

// NewPool constructs a Pool using the given provisioner.
func NewPool(prov Provisioner, logger *zap.Logger) *Pool {
	return &Pool{
		prov:  prov,
		log:   logger,
		conns: make(map[string]*Conn),
	}
}

// Acquire returns the live connection for org's slug, provisioning one if
// none is registered. Re-acquiring an already-registered slug returns the
// existing connection unchanged and never re-provisions.
func (p *Pool) Acquire(ctx context.Context, org models.Organization) (*Conn, error) {
	p.mu.Lock()
	if c, ok := p.conns[org.Slug]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	// Provision outside the lock; dialing can be slow.
	if org.Connection.IsZero() {
		return nil, ErrBadConnectionConfig
	}
	h, err := p.prov.Provision(ctx, org)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another caller may have registered the slug while we were dialing;
	// keep theirs and discard ours so only one handle stays live.
	if c, ok := p.conns[org.Slug]; ok {
		if cerr := h.Close(ctx); cerr != nil {
			p.log.Warn("closing redundant tenant connection failed",
				zap.String("slug", org.Slug), zap.Error(cerr))
		}
		return c, nil
	}
	c := &Conn{Slug: org.Slug, handle: h}
	p.conns[org.Slug] = c
	return c, nil
}

// Release tears down the connection registered for slug, if any. Releasing
// an unregistered slug is a no-op. Teardown failures are logged, not
// returned; the connection is being abandoned regardless.
func (p *Pool) Release(ctx context.Context, slug string) {
	p.mu.Lock()
	c, ok := p.conns[slug]
	if ok {
		delete(p.conns, slug)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	if err := c.handle.Close(ctx); err != nil {
		p.log.Warn("tenant connection teardown failed",
			zap.String("slug", slug), zap.Error(err))
	}
	p.log.Debug("released tenant connection", zap.String("slug", slug))
}

// CloseAll releases every registered connection. Used at shutdown.
func (p *Pool) CloseAll(ctx context.Context) {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*Conn)
	p.mu.Unlock()

	for slug, c := range conns {
		if err := c.handle.Close(ctx); err != nil {
			p.log.Warn("tenant connection teardown failed",
				zap.String("slug", slug), zap.Error(err))
		}
	}
}

// Len reports the number of registered connections.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
