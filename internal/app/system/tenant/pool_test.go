package tenant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.uber.org/zap"
)

func TestPoolAcquireIsIdempotent(t *testing.T) {
	prov := &fakeProvisioner{}
	pool := tenant.NewPool(prov, zap.NewNop())
	ctx := context.Background()

	c1, err := pool.Acquire(ctx, testOrg("acme"))
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	c2, err := pool.Acquire(ctx, testOrg("acme"))
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if c1 != c2 {
		t.Error("re-acquire returned a different connection")
	}
	if got := prov.callCount(); got != 1 {
		t.Errorf("provisioner called %d times, want 1", got)
	}
	if got := pool.Len(); got != 1 {
		t.Errorf("pool holds %d connections, want 1", got)
	}
}

func TestPoolReleaseUnknownSlugIsNoOp(t *testing.T) {
	prov := &fakeProvisioner{}
	pool := tenant.NewPool(prov, zap.NewNop())

	pool.Release(context.Background(), "ghost")

	if got := pool.Len(); got != 0 {
		t.Errorf("pool holds %d connections, want 0", got)
	}
}

func TestPoolReacquireAfterReleaseProvisionsFresh(t *testing.T) {
	prov := &fakeProvisioner{}
	pool := tenant.NewPool(prov, zap.NewNop())
	ctx := context.Background()

	c1, err := pool.Acquire(ctx, testOrg("acme"))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Release(ctx, "acme")

	c2, err := pool.Acquire(ctx, testOrg("acme"))
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if c1 == c2 {
		t.Error("re-acquire after release returned the released connection")
	}
	if got := prov.callCount(); got != 2 {
		t.Errorf("provisioner called %d times, want 2", got)
	}
	if got := prov.liveHandles(); got != 1 {
		t.Errorf("%d live handles, want 1", got)
	}
}

func TestPoolAcquireRejectsEmptyConnectionConfig(t *testing.T) {
	prov := &fakeProvisioner{}
	pool := tenant.NewPool(prov, zap.NewNop())

	org := testOrg("acme")
	org.Connection = models.ConnectionConfig{}
	_, err := pool.Acquire(context.Background(), org)
	if !errors.Is(err, tenant.ErrBadConnectionConfig) {
		t.Fatalf("err = %v, want ErrBadConnectionConfig", err)
	}
	if got := prov.callCount(); got != 0 {
		t.Errorf("provisioner called %d times, want 0", got)
	}
}

func TestPoolReleaseSwallowsTeardownError(t *testing.T) {
	prov := &fakeProvisioner{closeErr: errTeardownBoom}
	pool := tenant.NewPool(prov, zap.NewNop())
	ctx := context.Background()

	if _, err := pool.Acquire(ctx, testOrg("acme")); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pool.Release(ctx, "acme")

	if got := pool.Len(); got != 0 {
		t.Errorf("pool holds %d connections after failed teardown, want 0", got)
	}
	// The slot is free again.
	if _, err := pool.Acquire(ctx, testOrg("acme")); err != nil {
		t.Fatalf("re-acquire after failed teardown: %v", err)
	}
}

func TestPoolCloseAll(t *testing.T) {
	prov := &fakeProvisioner{}
	pool := tenant.NewPool(prov, zap.NewNop())
	ctx := context.Background()

	for _, slug := range []string{"acme", "globex", "initech"} {
		if _, err := pool.Acquire(ctx, testOrg(slug)); err != nil {
			t.Fatalf("acquire %s: %v", slug, err)
		}
	}
	pool.CloseAll(ctx)

	if got := pool.Len(); got != 0 {
		t.Errorf("pool holds %d connections, want 0", got)
	}
	if got := prov.liveHandles(); got != 0 {
		t.Errorf("%d live handles, want 0", got)
	}
}
