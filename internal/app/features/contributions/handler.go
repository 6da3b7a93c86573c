// internal/app/features/contributions/handler.go

// Package contributions records, lists, and voids dues payments in the
// resolved tenant's ledger. Voiding never deletes; voided rows stay for
// audit and drop out of totals.
package contributions

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/dueshub/internal/app/store/audit"
	contributionstore "github.com/dalemusser/dueshub/internal/app/store/contributions"
	memberstore "github.com/dalemusser/dueshub/internal/app/store/members"
	"github.com/dalemusser/dueshub/internal/app/system/auditlog"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
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
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Audit: auditLog, Log: logger}
}

type recordRequest struct {
	MemberID    string `json:"member_id"`
	AmountCents int64  `json:"amount_cents"`
	Period      string `json:"period"`
	Method      string `json:"method"`
	Notes       string `json:"notes"`
}

// Record handles POST /organizations/{slug}/contributions.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	user, _ := auth.CurrentUser(r)

	var req recordRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid member id")
		return
	}
	switch req.Method {
	case models.PayMethodCash, models.PayMethodCheck, models.PayMethodTransfer, models.PayMethodOther:
	default:
		httpjson.Error(w, http.StatusBadRequest, "method must be cash, check, transfer, or other")
		return
	}
	if req.Period == "" {
		httpjson.Error(w, http.StatusBadRequest, "period is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// The payment must reference a real roster member.
	if _, err := memberstore.New(db).GetByID(ctx, memberID); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpjson.InternalError(w, h.Log, "contributions: fetch member", err)
		return
	}

	recordedBy := ""
	if user != nil {
		recordedBy = user.ID
	}
	c, err := contributionstore.New(db).Record(ctx, models.Contribution{
		MemberID:    memberID,
		AmountCents: req.AmountCents,
		Period:      req.Period,
		Method:      req.Method,
		Notes:       htmlsanitize.Sanitize(req.Notes),
		RecordedBy:  recordedBy,
	})
	if err != nil {
		if errors.Is(err, contributionstore.ErrBadAmount) {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpjson.InternalError(w, h.Log, "contributions: record", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, c)
}

// List handles GET /organizations/{slug}/contributions with optional
// ?member= and ?period= filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	page := paging.Parse(r)

	var f contributionstore.Filter
	if raw := r.URL.Query().Get("member"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid member id")
			return
		}
		f.MemberID = id
	}
	f.Period = r.URL.Query().Get("period")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cs, err := contributionstore.New(db).List(ctx, f, page.Limit, page.Offset)
	if err != nil {
		httpjson.InternalError(w, h.Log, "contributions: list", err)
		return
	}
	httpjson.OK(w, map[string]any{"contributions": cs})
}

// Get handles GET /organizations/{slug}/contributions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid contribution id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := contributionstore.New(db).GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "contribution not found")
			return
		}
		httpjson.InternalError(w, h.Log, "contributions: get", err)
		return
	}
	httpjson.OK(w, c)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

// Void handles POST /organizations/{slug}/contributions/{id}/void.
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	info := tenant.FromRequest(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid contribution id")
		return
	}
	var req voidRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = contributionstore.New(info.DB()).Void(ctx, id, htmlsanitize.PlainText(req.Reason))
	switch {
	case err == nil:
	case errors.Is(err, contributionstore.ErrAlreadyVoided):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	case err == mongo.ErrNoDocuments:
		httpjson.Error(w, http.StatusNotFound, "contribution not found")
		return
	default:
		httpjson.InternalError(w, h.Log, "contributions: void", err)
		return
	}

	if user, ok := auth.CurrentUser(r); ok {
		if actorID, err := primitive.ObjectIDFromHex(user.ID); err == nil {
			h.Audit.Admin(ctx, r, audit.EventContributionVoid, &actorID, info.Org.Slug, "voided "+id.Hex())
		}
	}
	httpjson.OK(w, map[string]string{"status": "voided"})
}
