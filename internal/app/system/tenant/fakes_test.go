package tenant_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// eventLog records provision/release/ready/cleared steps in order so tests
// can assert lifecycle ordering.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *eventLog) indexOf(entry string) int {
	for i, e := range l.snapshot() {
		if e == entry {
			return i
		}
	}
	return -1
}

type fakeHandle struct {
	slug     string
	log      *eventLog
	closeErr error
	closed   bool
	mu       sync.Mutex
}

func (h *fakeHandle) DB() *mongo.Database { return nil }

func (h *fakeHandle) Close(context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	if h.log != nil {
		h.log.add("release:" + h.slug)
	}
	return h.closeErr
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// fakeProvisioner hands out fakeHandles and counts calls. If gate is
// non-nil, the first Provision call blocks until the gate is closed.
type fakeProvisioner struct {
	mu       sync.Mutex
	calls    int
	handles  []*fakeHandle
	log      *eventLog
	failWith error
	closeErr error

	gate      chan struct{}
	gateOnce  sync.Once
	started   chan struct{}
	startOnce sync.Once
}

func (p *fakeProvisioner) Provision(ctx context.Context, org models.Organization) (tenant.Handle, error) {
	first := false
	p.mu.Lock()
	p.calls++
	first = p.calls == 1
	p.mu.Unlock()

	if first && p.started != nil {
		p.startOnce.Do(func() { close(p.started) })
	}
	if first && p.gate != nil {
		<-p.gate
	}

	if p.failWith != nil {
		return nil, p.failWith
	}
	if p.log != nil {
		p.log.add("provision:" + org.Slug)
	}
	h := &fakeHandle{slug: org.Slug, log: p.log, closeErr: p.closeErr}
	p.mu.Lock()
	p.handles = append(p.handles, h)
	p.mu.Unlock()
	return h, nil
}

func (p *fakeProvisioner) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvisioner) liveHandles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	live := 0
	for _, h := range p.handles {
		if !h.isClosed() {
			live++
		}
	}
	return live
}

// fakeDirectory serves organization records from a map.
type fakeDirectory struct {
	orgs map[string]models.Organization
	err  error
}

func (d *fakeDirectory) GetOrganization(ctx context.Context, slug string) (models.Organization, error) {
	if d.err != nil {
		return models.Organization{}, d.err
	}
	org, ok := d.orgs[slug]
	if !ok {
		return models.Organization{}, fmt.Errorf("org %q: %w", slug, tenant.ErrOrgNotFound)
	}
	return org, nil
}

func testOrg(slug string) models.Organization {
	return models.Organization{
		Slug: slug,
		Name: "Org " + slug,
		Connection: models.ConnectionConfig{
			URI:      "mongodb://localhost:27017",
			Database: "tenant_" + slug,
		},
		Status: models.OrgStatusActive,
	}
}

var errTeardownBoom = errors.New("teardown failed")
