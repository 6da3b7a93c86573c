// internal/app/features/members/handler.go

// Package members serves the per-tenant dues-paying roster. Every handler
// operates on the tenant database resolved for the request; roster data
// never touches the central directory.
package members

import (
	"context"
	"errors"
	"net/http"
	"strings"

	memberstore "github.com/dalemusser/dueshub/internal/app/store/members"
	"github.com/dalemusser/dueshub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/paging"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type memberRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ContactInfo string `json:"contact_info"`
	Status      string `json:"status"`
}

func (req *memberRequest) toModel() (models.Member, string) {
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return models.Member{}, "full_name is required"
	}
	switch req.Status {
	case "", "active", "inactive":
	default:
		return models.Member{}, "status must be active or inactive"
	}
	return models.Member{
		FullName:    req.FullName,
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		ContactInfo: htmlsanitize.Sanitize(req.ContactInfo),
		Status:      req.Status,
	}, ""
}

// List handles GET /organizations/{slug}/members.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ms, err := memberstore.New(db).List(ctx, page.Limit, page.Offset)
	if err != nil {
		httpjson.InternalError(w, h.Log, "members: list", err)
		return
	}
	httpjson.OK(w, map[string]any{"members": ms})
}

// Get handles GET /organizations/{slug}/members/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	id, ok := memberID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := memberstore.New(db).GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpjson.InternalError(w, h.Log, "members: get", err)
		return
	}
	httpjson.OK(w, m)
}

// Create handles POST /organizations/{slug}/members.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	var req memberRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	m, msg := req.toModel()
	if msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := memberstore.New(db).Create(ctx, m)
	if err != nil {
		if errors.Is(err, memberstore.ErrDuplicateMember) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpjson.InternalError(w, h.Log, "members: create", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// Update handles PUT /organizations/{slug}/members/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	id, ok := memberID(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	m, msg := req.toModel()
	if msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := memberstore.New(db).Update(ctx, id, m); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpjson.InternalError(w, h.Log, "members: update", err)
		return
	}
	httpjson.OK(w, map[string]string{"status": "updated"})
}

// Delete handles DELETE /organizations/{slug}/members/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	id, ok := memberID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := memberstore.New(db).Delete(ctx, id)
	if err != nil {
		httpjson.InternalError(w, h.Log, "members: delete", err)
		return
	}
	if n == 0 {
		httpjson.Error(w, http.StatusNotFound, "member not found")
		return
	}
	httpjson.OK(w, map[string]string{"status": "deleted"})
}

func memberID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid member id")
		return primitive.NilObjectID, false
	}
	return id, true
}
