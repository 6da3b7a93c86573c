// internal/app/features/directoryapi/handler.go

// Package directoryapi serves the central directory over JSON: the signed-in
// user's organization list (the org picker data source) and the site-admin
// surface for managing organizations and memberships.
package directoryapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/dueshub/internal/app/store/audit"
	directorystore "github.com/dalemusser/dueshub/internal/app/store/directory"
	userstore "github.com/dalemusser/dueshub/internal/app/store/users"
	"github.com/dalemusser/dueshub/internal/app/system/auditlog"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Dir   *directorystore.Store
	Users *userstore.Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(dir *directorystore.Store, users *userstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Dir: dir, Users: users, Audit: auditLog, Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| My organizations                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type orgSummary struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Role   string `json:"role,omitempty"`
}

// ListMine handles GET /api/my/organizations: the organizations the
// signed-in user belongs to, sorted by name. This is what the organization
// picker renders, and where tenant-resolution failures send the browser.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs, err := h.Dir.ListOrganizationsForUser(ctx, userID)
	if err != nil {
		httpjson.InternalError(w, h.Log, "directoryapi: list organizations", err)
		return
	}

	out := make([]orgSummary, 0, len(orgs))
	for _, org := range orgs {
		s := orgSummary{Slug: org.Slug, Name: org.Name, Status: org.Status}
		if m, ok, err := h.Dir.GetMembership(ctx, userID, org.Slug); err == nil && ok {
			s.Role = m.Role
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	httpjson.OK(w, map[string]any{"organizations": out})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Site-admin organization management                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// ListAll handles GET /api/admin/organizations.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs, err := h.Dir.ListAllOrganizations(ctx)
	if err != nil {
		httpjson.InternalError(w, h.Log, "directoryapi: list all organizations", err)
		return
	}
	out := make([]orgSummary, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, orgSummary{Slug: org.Slug, Name: org.Name, Status: org.Status})
	}
	httpjson.OK(w, map[string]any{"organizations": out})
}

type createOrgRequest struct {
	Slug       string                  `json:"slug"`
	Name       string                  `json:"name"`
	Connection models.ConnectionConfig `json:"connection"`
}

// CreateOrg handles POST /api/admin/organizations. The slug is immutable
// once created.
func (h *Handler) CreateOrg(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	req.Name = strings.TrimSpace(req.Name)
	if !tenant.ValidSlug(req.Slug) {
		httpjson.Error(w, http.StatusBadRequest, "slug must be lowercase letters, digits, and hyphens")
		return
	}
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Dir.Create(ctx, models.Organization{
		Slug:       req.Slug,
		Name:       req.Name,
		Connection: req.Connection,
		Status:     models.OrgStatusActive,
	})
	if err != nil {
		if errors.Is(err, directorystore.ErrDuplicateSlug) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpjson.InternalError(w, h.Log, "directoryapi: create organization", err)
		return
	}

	h.auditAdmin(r, audit.EventOrgCreated, org.Slug, "created "+org.Name)
	httpjson.Write(w, http.StatusCreated, orgSummary{Slug: org.Slug, Name: org.Name, Status: org.Status})
}

type connectionRequest struct {
	Connection models.ConnectionConfig `json:"connection"`
}

// UpdateConnection handles PUT /api/admin/organizations/{slug}/connection.
func (h *Handler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req connectionRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if req.Connection.IsZero() {
		httpjson.Error(w, http.StatusBadRequest, "connection uri and database are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Dir.UpdateConnectionConfig(ctx, slug, req.Connection); err != nil {
		h.writeOrgErr(w, "directoryapi: update connection", err)
		return
	}
	h.auditAdmin(r, audit.EventOrgUpdated, slug, "connection config updated")
	httpjson.OK(w, map[string]string{"status": "updated"})
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename handles PUT /api/admin/organizations/{slug}/name.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req renameRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Dir.Rename(ctx, slug, req.Name); err != nil {
		h.writeOrgErr(w, "directoryapi: rename organization", err)
		return
	}
	h.auditAdmin(r, audit.EventOrgUpdated, slug, "renamed to "+req.Name)
	httpjson.OK(w, map[string]string{"status": "renamed"})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /api/admin/organizations/{slug}/status. Disabling an
// organization does not tear down live sessions; they end naturally when the
// session switches away or expires.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req statusRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	if req.Status != models.OrgStatusActive && req.Status != models.OrgStatusDisabled {
		httpjson.Error(w, http.StatusBadRequest, "status must be active or disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Dir.SetStatus(ctx, slug, req.Status); err != nil {
		h.writeOrgErr(w, "directoryapi: set status", err)
		return
	}
	event := audit.EventOrgUpdated
	if req.Status == models.OrgStatusDisabled {
		event = audit.EventOrgDisabled
	}
	h.auditAdmin(r, event, slug, "status set to "+req.Status)
	httpjson.OK(w, map[string]string{"status": req.Status})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Membership grant / revoke                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type grantRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Grant handles POST /api/admin/organizations/{slug}/memberships.
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req grantRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	switch req.Role {
	case models.MembershipRoleAdmin, models.MembershipRoleTreasurer, models.MembershipRoleMember:
	default:
		httpjson.Error(w, http.StatusBadRequest, "role must be admin, treasurer, or member")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The organization must exist before anyone is granted access to it.
	if _, err := h.Dir.GetOrganization(ctx, slug); err != nil {
		h.writeOrgErr(w, "directoryapi: grant membership", err)
		return
	}
	user, err := h.Users.GetByEmailCI(ctx, req.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "no user with that email")
			return
		}
		httpjson.InternalError(w, h.Log, "directoryapi: fetch user", err)
		return
	}

	if err := h.Dir.Grant(ctx, user.ID, slug, req.Role); err != nil {
		if errors.Is(err, directorystore.ErrDuplicateMembership) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpjson.InternalError(w, h.Log, "directoryapi: grant membership", err)
		return
	}
	h.auditAdmin(r, audit.EventMembershipGranted, slug, req.Role+" granted to "+user.Email)
	httpjson.Write(w, http.StatusCreated, map[string]string{"status": "granted"})
}

// Revoke handles DELETE /api/admin/organizations/{slug}/memberships/{userID}.
// Revoking a membership that does not exist is a no-op.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Dir.Revoke(ctx, userID, slug); err != nil {
		httpjson.InternalError(w, h.Log, "directoryapi: revoke membership", err)
		return
	}
	h.auditAdmin(r, audit.EventMembershipRevoked, slug, "membership revoked for "+userID.Hex())
	httpjson.OK(w, map[string]string{"status": "revoked"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) auditAdmin(r *http.Request, eventType, slug, detail string) {
	actor, ok := auth.CurrentUser(r)
	if !ok {
		return
	}
	if id, err := primitive.ObjectIDFromHex(actor.ID); err == nil {
		h.Audit.Admin(r.Context(), r, eventType, &id, slug, detail)
	}
}

func (h *Handler) writeOrgErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, tenant.ErrOrgNotFound) {
		httpjson.Error(w, http.StatusNotFound, "organization not found")
		return
	}
	httpjson.InternalError(w, h.Log, op, err)
}
