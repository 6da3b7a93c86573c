package tenant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type stubHandle struct {
	mu     sync.Mutex
	closed bool
}

func (h *stubHandle) DB() *mongo.Database { return nil }

func (h *stubHandle) Close(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *stubHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type stubProvisioner struct {
	mu      sync.Mutex
	handles []*stubHandle
}

func (p *stubProvisioner) Provision(context.Context, models.Organization) (Handle, error) {
	h := &stubHandle{}
	p.mu.Lock()
	p.handles = append(p.handles, h)
	p.mu.Unlock()
	return h, nil
}

func (p *stubProvisioner) live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, h := range p.handles {
		if !h.isClosed() {
			n++
		}
	}
	return n
}

type stubDirectory struct{}

func (stubDirectory) GetOrganization(_ context.Context, slug string) (models.Organization, error) {
	return models.Organization{
		Slug:       slug,
		Name:       slug,
		Connection: models.ConnectionConfig{URI: "mongodb://localhost", Database: "t_" + slug},
		Status:     models.OrgStatusActive,
	}, nil
}

func TestRegistryManagerPerSession(t *testing.T) {
	reg := newRegistry(stubDirectory{}, &stubProvisioner{}, zap.NewNop(),
		time.Minute, time.Hour, clock.NewMock())

	m1 := reg.Manager("sess-a")
	m2 := reg.Manager("sess-a")
	m3 := reg.Manager("sess-b")

	if m1 != m2 {
		t.Error("same session got different managers")
	}
	if m1 == m3 {
		t.Error("distinct sessions share a manager")
	}
	if got := reg.Len(); got != 2 {
		t.Errorf("registry holds %d sessions, want 2", got)
	}
}

func TestRegistryDropReleasesConnections(t *testing.T) {
	prov := &stubProvisioner{}
	reg := newRegistry(stubDirectory{}, prov, zap.NewNop(),
		time.Minute, time.Hour, clock.NewMock())
	ctx := context.Background()

	mgr := reg.Manager("sess-a")
	org, err := mgr.LoadOrganization(ctx, "acme")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := mgr.Activate(ctx, org); err != nil {
		t.Fatalf("activate: %v", err)
	}

	reg.Drop(ctx, "sess-a")

	if got := reg.Len(); got != 0 {
		t.Errorf("registry holds %d sessions, want 0", got)
	}
	if got := prov.live(); got != 0 {
		t.Errorf("%d live handles after drop, want 0", got)
	}

	// Dropping an unknown session does nothing.
	reg.Drop(ctx, "sess-a")
}

func TestRegistryReapClearsIdleSessions(t *testing.T) {
	prov := &stubProvisioner{}
	clk := clock.NewMock()
	reg := newRegistry(stubDirectory{}, prov, zap.NewNop(),
		time.Minute, 30*time.Minute, clk)
	ctx := context.Background()

	for _, sid := range []string{"idle", "fresh"} {
		mgr := reg.Manager(sid)
		org, err := mgr.LoadOrganization(ctx, "acme")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if _, err := mgr.Activate(ctx, org); err != nil {
			t.Fatalf("activate: %v", err)
		}
	}

	clk.Add(31 * time.Minute)
	reg.Manager("fresh") // touch
	reg.reap()

	if got := reg.Len(); got != 1 {
		t.Fatalf("registry holds %d sessions, want 1", got)
	}
	if reg.Manager("fresh") == nil {
		t.Error("fresh session missing after reap")
	}
	if got := prov.live(); got != 1 {
		t.Errorf("%d live handles after reap, want 1", got)
	}
}

func TestRegistryCloseAll(t *testing.T) {
	prov := &stubProvisioner{}
	reg := newRegistry(stubDirectory{}, prov, zap.NewNop(),
		time.Minute, time.Hour, clock.NewMock())
	ctx := context.Background()

	for _, sid := range []string{"a", "b"} {
		mgr := reg.Manager(sid)
		org, _ := mgr.LoadOrganization(ctx, sid+"-org")
		if _, err := mgr.Activate(ctx, org); err != nil {
			t.Fatalf("activate: %v", err)
		}
	}
	reg.CloseAll(ctx)

	if got := reg.Len(); got != 0 {
		t.Errorf("registry holds %d sessions, want 0", got)
	}
	if got := prov.live(); got != 0 {
		t.Errorf("%d live handles after close, want 0", got)
	}
}
