// internal/app/features/reports/handler.go

// Package reports produces contribution and expense summaries plus CSV
// exports of the tenant ledgers. Signed-in users export through the tenant
// routes; headless clients (accounting tools on a schedule) use a bearer
// token scoped to one organization.
package reports

import (
	"context"
	"errors"
	"net/http"

	contributionstore "github.com/dalemusser/dueshub/internal/app/store/contributions"
	expensestore "github.com/dalemusser/dueshub/internal/app/store/expenses"
	memberstore "github.com/dalemusser/dueshub/internal/app/store/members"
	"github.com/dalemusser/dueshub/internal/app/system/apitoken"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/csvutil"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Registry *tenant.Registry
	Tokens   *apitoken.Issuer
	Log      *zap.Logger
}

func NewHandler(registry *tenant.Registry, tokens *apitoken.Issuer, logger *zap.Logger) *Handler {
	return &Handler{Registry: registry, Tokens: tokens, Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| JSON summaries                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ContributionSummary handles GET /organizations/{slug}/reports/contributions.
func (h *Handler) ContributionSummary(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	totals, err := contributionstore.New(db).TotalsByPeriod(ctx)
	if err != nil {
		httpjson.InternalError(w, h.Log, "reports: contribution totals", err)
		return
	}
	httpjson.OK(w, map[string]any{"totals_by_period": totals})
}

// ExpenseSummary handles GET /organizations/{slug}/reports/expenses?period=.
func (h *Handler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	spend, err := expensestore.New(db).SpendByCategory(ctx, r.URL.Query().Get("period"))
	if err != nil {
		httpjson.InternalError(w, h.Log, "reports: expense spend", err)
		return
	}
	httpjson.OK(w, map[string]any{"spend_by_category": spend})
}

/*─────────────────────────────────────────────────────────────────────────────*
| CSV export (session)                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// ContributionsCSV handles GET /organizations/{slug}/reports/contributions.csv.
func (h *Handler) ContributionsCSV(w http.ResponseWriter, r *http.Request) {
	info := tenant.FromRequest(r)
	h.writeContributionsCSV(w, r, info.Org.Slug, info.DB(), r.URL.Query().Get("period"))
}

// ExpensesCSV handles GET /organizations/{slug}/reports/expenses.csv.
func (h *Handler) ExpensesCSV(w http.ResponseWriter, r *http.Request) {
	info := tenant.FromRequest(r)
	h.writeExpensesCSV(w, r, info.Org.Slug, info.DB(), r.URL.Query().Get("period"))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Export tokens and the headless endpoint                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// IssueExportToken handles POST /organizations/{slug}/reports/export-token:
// a bearer token scoped to the resolved organization, for clients that
// cannot hold a browser session.
func (h *Handler) IssueExportToken(w http.ResponseWriter, r *http.Request) {
	info := tenant.FromRequest(r)
	user, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	token, err := h.Tokens.Issue(user.ID, info.Org.Slug)
	if err != nil {
		httpjson.InternalError(w, h.Log, "reports: issue export token", err)
		return
	}
	httpjson.OK(w, map[string]string{"token": token, "organization": info.Org.Slug})
}

// Export handles GET /api/export/{slug}/{ledger}.csv with a bearer token.
// The route sits outside the session middleware; the token alone decides
// access, and only for the organization it was issued for.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	raw := apitoken.FromRequest(r)
	if raw == "" {
		httpjson.Error(w, http.StatusUnauthorized, "bearer token required")
		return
	}
	userID, tokenSlug, err := h.Tokens.Verify(raw)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	slug := chi.URLParam(r, "slug")
	if slug != tokenSlug {
		// Same body as an unknown organization.
		httpjson.Error(w, http.StatusNotFound, "organization not found")
		return
	}

	// Headless exports share the tenant machinery under a dedicated session
	// key, so repeated pulls reuse one connection and the reaper cleans up.
	mgr := h.Registry.Manager("export:" + userID)
	org, err := mgr.LoadOrganization(r.Context(), slug)
	if err != nil {
		h.writeResolveError(w, slug, err)
		return
	}
	conn, err := mgr.Activate(r.Context(), org)
	if err != nil {
		h.writeResolveError(w, slug, err)
		return
	}

	period := r.URL.Query().Get("period")
	switch chi.URLParam(r, "ledger") {
	case "contributions":
		h.writeContributionsCSV(w, r, slug, conn.DB(), period)
	case "expenses":
		h.writeExpensesCSV(w, r, slug, conn.DB(), period)
	default:
		httpjson.Error(w, http.StatusNotFound, "unknown ledger")
	}
}

func (h *Handler) writeResolveError(w http.ResponseWriter, slug string, err error) {
	switch {
	case errors.Is(err, tenant.ErrOrgNotFound), errors.Is(err, tenant.ErrAccessDenied):
		httpjson.Error(w, http.StatusNotFound, "organization not found")
	case errors.Is(err, tenant.ErrBadConnectionConfig):
		h.Log.Error("export: tenant misconfigured", zap.String("slug", slug), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "organization is not set up correctly")
	default:
		h.Log.Warn("export: tenant resolution failed", zap.String("slug", slug), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "organization backend unavailable")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| CSV plumbing                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) writeContributionsCSV(w http.ResponseWriter, r *http.Request, slug string, db *mongo.Database, period string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Export())
	defer cancel()

	rows, err := contributionstore.New(db).ListAll(ctx, contributionstore.Filter{Period: period})
	if err != nil {
		httpjson.InternalError(w, h.Log, "reports: list contributions", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.MemberID)
	}
	names, err := memberstore.New(db).NamesByIDs(ctx, ids)
	if err != nil {
		httpjson.InternalError(w, h.Log, "reports: member names", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+slug+`-contributions.csv"`)
	if err := csvutil.WriteContributions(w, rows, names); err != nil {
		h.Log.Warn("reports: write contributions csv", zap.Error(err))
	}
}

func (h *Handler) writeExpensesCSV(w http.ResponseWriter, r *http.Request, slug string, db *mongo.Database, period string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Export())
	defer cancel()

	rows, err := expensestore.New(db).ListAllExpenses(ctx, period)
	if err != nil {
		httpjson.InternalError(w, h.Log, "reports: list expenses", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+slug+`-expenses.csv"`)
	if err := csvutil.WriteExpenses(w, rows); err != nil {
		h.Log.Warn("reports: write expenses csv", zap.Error(err))
	}
}
