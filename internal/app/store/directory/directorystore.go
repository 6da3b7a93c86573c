// internal/app/store/directory/directorystore.go

// Package directorystore is the central directory: the shared store of
// organization records and user→organization memberships. Every call hits
// the backing database; there is no cache at this layer. It is the only
// place organization connection configs are read from.
package directorystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrDuplicateSlug       = errors.New("an organization with this slug already exists")
	ErrDuplicateMembership = errors.New("user already has access to this organization")
)

type Store struct {
	orgs        *mongo.Collection
	memberships *mongo.Collection
	log         *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		orgs:        db.Collection("organizations"),
		memberships: db.Collection("org_memberships"),
		log:         logger,
	}
}

// GetOrganization fetches the record for slug. Returns
// tenant.ErrOrgNotFound when no record exists, tenant.ErrAccessDenied when
// the backing store refuses the read, and wraps other failures in
// tenant.ErrTenantUnavailable.
func (s *Store) GetOrganization(ctx context.Context, slug string) (models.Organization, error) {
	var org models.Organization
	err := s.orgs.FindOne(ctx, bson.M{"_id": slug}).Decode(&org)
	if err != nil {
		return models.Organization{}, classifyFetchErr(slug, err)
	}
	return org, nil
}

// ListOrganizationsForUser resolves the membership set for userID and
// fetches each referenced record. A membership whose organization record is
// missing is a stale reference: it is logged and skipped, never an error.
// Result order is unspecified; callers sort by name for display.
func (s *Store) ListOrganizationsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Organization, error) {
	cur, err := s.memberships.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w: %v", tenant.ErrTenantUnavailable, err)
	}
	defer cur.Close(ctx)

	var ms []models.OrgMembership
	if err := cur.All(ctx, &ms); err != nil {
		return nil, fmt.Errorf("list memberships: %w: %v", tenant.ErrTenantUnavailable, err)
	}

	orgs := make([]models.Organization, 0, len(ms))
	for _, m := range ms {
		org, err := s.GetOrganization(ctx, m.OrgSlug)
		if err != nil {
			if errors.Is(err, tenant.ErrOrgNotFound) {
				s.log.Warn("stale membership reference",
					zap.String("user_id", userID.Hex()),
					zap.String("org_slug", m.OrgSlug))
				continue
			}
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// ListAllOrganizations returns every organization record. Administrative.
func (s *Store) ListAllOrganizations(ctx context.Context) ([]models.Organization, error) {
	cur, err := s.orgs.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w: %v", tenant.ErrTenantUnavailable, err)
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, fmt.Errorf("list organizations: %w: %v", tenant.ErrTenantUnavailable, err)
	}
	return orgs, nil
}

// Create inserts a new organization record. The slug is the document key
// and is immutable from then on; no update path touches it.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.NameCI = text.Fold(org.Name)
	if org.Status == "" {
		org.Status = models.OrgStatusActive
	}
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.orgs.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateSlug
		}
		return models.Organization{}, err
	}
	return org, nil
}

// UpdateConnectionConfig replaces an organization's connection config.
func (s *Store) UpdateConnectionConfig(ctx context.Context, slug string, cfg models.ConnectionConfig) error {
	res, err := s.orgs.UpdateByID(ctx, slug, bson.M{"$set": bson.M{
		"connection": cfg,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return tenant.ErrOrgNotFound
	}
	return nil
}

// Rename changes the display name. The slug never changes.
func (s *Store) Rename(ctx context.Context, slug, name string) error {
	res, err := s.orgs.UpdateByID(ctx, slug, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return tenant.ErrOrgNotFound
	}
	return nil
}

// SetStatus marks an organization active or disabled.
func (s *Store) SetStatus(ctx context.Context, slug, status string) error {
	res, err := s.orgs.UpdateByID(ctx, slug, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return tenant.ErrOrgNotFound
	}
	return nil
}

// Grant gives userID access to the organization with the given role.
func (s *Store) Grant(ctx context.Context, userID primitive.ObjectID, slug, role string) error {
	m := models.OrgMembership{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		OrgSlug:   slug,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.memberships.InsertOne(ctx, m)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Revoke removes userID's access to the organization. Revoking a
// membership that does not exist is a no-op.
func (s *Store) Revoke(ctx context.Context, userID primitive.ObjectID, slug string) error {
	_, err := s.memberships.DeleteOne(ctx, bson.M{"user_id": userID, "org_slug": slug})
	return err
}

// GetMembership returns the membership for (userID, slug), if any.
func (s *Store) GetMembership(ctx context.Context, userID primitive.ObjectID, slug string) (models.OrgMembership, bool, error) {
	var m models.OrgMembership
	err := s.memberships.FindOne(ctx, bson.M{"user_id": userID, "org_slug": slug}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.OrgMembership{}, false, nil
	}
	if err != nil {
		return models.OrgMembership{}, false, err
	}
	return m, true, nil
}

// classifyFetchErr maps driver errors onto the tenant error taxonomy.
func classifyFetchErr(slug string, err error) error {
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("org %q: %w", slug, tenant.ErrOrgNotFound)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 13 { // Unauthorized
		return fmt.Errorf("org %q: %w", slug, tenant.ErrAccessDenied)
	}
	return fmt.Errorf("org %q: %w: %v", slug, tenant.ErrTenantUnavailable, err)
}
