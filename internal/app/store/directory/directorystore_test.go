package directorystore_test

import (
	"errors"
	"testing"

	directorystore "github.com/dalemusser/dueshub/internal/app/store/directory"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/dalemusser/dueshub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func TestGetOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateOrganization(ctx, "acme", "Acme Dues Club")

	store := directorystore.New(db, zap.NewNop())

	org, err := store.GetOrganization(ctx, "acme")
	if err != nil {
		t.Fatalf("GetOrganization failed: %v", err)
	}
	if org.Name != "Acme Dues Club" {
		t.Errorf("expected name Acme Dues Club, got %q", org.Name)
	}
	if org.Connection.IsZero() {
		t.Error("expected a connection config on the record")
	}
}

func TestGetOrganization_UnknownSlugIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := directorystore.New(db, zap.NewNop())

	_, err := store.GetOrganization(ctx, "ghost")
	if !errors.Is(err, tenant.ErrOrgNotFound) {
		t.Fatalf("expected ErrOrgNotFound, got %v", err)
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := directorystore.New(db, zap.NewNop())

	org := models.Organization{
		Slug: "acme",
		Name: "Acme Dues Club",
		Connection: models.ConnectionConfig{
			URI:      "mongodb://localhost:27017",
			Database: "dueshub_tenant_acme",
		},
	}
	if _, err := store.Create(ctx, org); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	org.Name = "Another Acme"
	_, err := store.Create(ctx, org)
	if !errors.Is(err, directorystore.ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestCreate_DefaultsStatusActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := directorystore.New(db, zap.NewNop())

	created, err := store.Create(ctx, models.Organization{Slug: "acme", Name: "Acme"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != models.OrgStatusActive {
		t.Errorf("expected default status active, got %q", created.Status)
	}
	if created.NameCI != "acme" {
		t.Errorf("expected folded name_ci, got %q", created.NameCI)
	}
}

func TestListOrganizationsForUser_SkipsStaleMemberships(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateOrganization(ctx, "acme", "Acme Dues Club")
	user := fx.CreateUser(ctx, "Alice Ang", "alice@example.com")
	fx.GrantMembership(ctx, user.ID, "acme", models.MembershipRoleTreasurer)
	// Membership pointing at an organization that was since removed.
	fx.GrantMembership(ctx, user.ID, "vanished", models.MembershipRoleMember)

	store := directorystore.New(db, zap.NewNop())

	orgs, err := store.ListOrganizationsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListOrganizationsForUser failed: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("expected 1 organization, got %d", len(orgs))
	}
	if orgs[0].Slug != "acme" {
		t.Errorf("expected acme, got %q", orgs[0].Slug)
	}
}

func TestUpdateConnectionConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateOrganization(ctx, "acme", "Acme Dues Club")

	store := directorystore.New(db, zap.NewNop())

	cfg := models.ConnectionConfig{URI: "mongodb://db2:27017", Database: "acme_dues"}
	if err := store.UpdateConnectionConfig(ctx, "acme", cfg); err != nil {
		t.Fatalf("UpdateConnectionConfig failed: %v", err)
	}

	org, err := store.GetOrganization(ctx, "acme")
	if err != nil {
		t.Fatalf("GetOrganization failed: %v", err)
	}
	if org.Connection != cfg {
		t.Errorf("expected connection %+v, got %+v", cfg, org.Connection)
	}

	err = store.UpdateConnectionConfig(ctx, "ghost", cfg)
	if !errors.Is(err, tenant.ErrOrgNotFound) {
		t.Fatalf("expected ErrOrgNotFound for unknown slug, got %v", err)
	}
}

func TestRename_KeepsSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateOrganization(ctx, "acme", "Acme Dues Club")

	store := directorystore.New(db, zap.NewNop())

	if err := store.Rename(ctx, "acme", "Acme Social Club"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	org, err := store.GetOrganization(ctx, "acme")
	if err != nil {
		t.Fatalf("GetOrganization after rename failed: %v", err)
	}
	if org.Name != "Acme Social Club" {
		t.Errorf("expected renamed org, got %q", org.Name)
	}
	if org.Slug != "acme" {
		t.Errorf("slug must not change on rename, got %q", org.Slug)
	}
}

func TestGrantRevokeMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The unique compound index exists in production via EnsureSchema.
	_, err := db.Collection("org_memberships").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "org_slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	fx.CreateOrganization(ctx, "acme", "Acme Dues Club")
	user := fx.CreateUser(ctx, "Alice Ang", "alice@example.com")

	store := directorystore.New(db, zap.NewNop())

	if err := store.Grant(ctx, user.ID, "acme", models.MembershipRoleAdmin); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	m, found, err := store.GetMembership(ctx, user.ID, "acme")
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if !found {
		t.Fatal("expected membership to exist")
	}
	if m.Role != models.MembershipRoleAdmin {
		t.Errorf("expected admin role, got %q", m.Role)
	}

	err = store.Grant(ctx, user.ID, "acme", models.MembershipRoleMember)
	if !errors.Is(err, directorystore.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}

	if err := store.Revoke(ctx, user.ID, "acme"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	_, found, err = store.GetMembership(ctx, user.ID, "acme")
	if err != nil {
		t.Fatalf("GetMembership after revoke failed: %v", err)
	}
	if found {
		t.Error("expected membership to be gone")
	}

	// Revoking again is a no-op.
	if err := store.Revoke(ctx, user.ID, "acme"); err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}
}
