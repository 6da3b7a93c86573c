// internal/app/features/expenses/handler.go

// Package expenses manages the tenant's spending ledger and per-category
// budgets, including the budget-remaining view treasurers work from.
package expenses

import (
	"context"
	"errors"
	"net/http"
	"strings"

	expensestore "github.com/dalemusser/dueshub/internal/app/store/expenses"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/paging"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type expenseRequest struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

// Add handles POST /organizations/{slug}/expenses.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	var req expenseRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || req.Period == "" {
		httpjson.Error(w, http.StatusBadRequest, "category and period are required")
		return
	}

	recordedBy := ""
	if user, ok := auth.CurrentUser(r); ok {
		recordedBy = user.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := expensestore.New(db).AddExpense(ctx, models.Expense{
		Category:    req.Category,
		AmountCents: req.AmountCents,
		Period:      req.Period,
		Description: htmlsanitize.Sanitize(req.Description),
		RecordedBy:  recordedBy,
	})
	if err != nil {
		if errors.Is(err, expensestore.ErrBadAmount) {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpjson.InternalError(w, h.Log, "expenses: add", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, e)
}

// List handles GET /organizations/{slug}/expenses with optional ?period=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	es, err := expensestore.New(db).ListExpenses(ctx, r.URL.Query().Get("period"), page.Limit, page.Offset)
	if err != nil {
		httpjson.InternalError(w, h.Log, "expenses: list", err)
		return
	}
	httpjson.OK(w, map[string]any{"expenses": es})
}

// Delete handles DELETE /organizations/{slug}/expenses/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := expensestore.New(db).DeleteExpense(ctx, id)
	if err != nil {
		httpjson.InternalError(w, h.Log, "expenses: delete", err)
		return
	}
	if n == 0 {
		httpjson.Error(w, http.StatusNotFound, "expense not found")
		return
	}
	httpjson.OK(w, map[string]string{"status": "deleted"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Budgets                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type budgetRequest struct {
	Category   string `json:"category"`
	Period     string `json:"period"`
	LimitCents int64  `json:"limit_cents"`
}

// SetBudget handles PUT /organizations/{slug}/expenses/budgets. Setting a
// budget for an existing (category, period) replaces its limit.
func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	var req budgetRequest
	if !httpjson.Decode(w, r, &req) {
		return
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || req.Period == "" {
		httpjson.Error(w, http.StatusBadRequest, "category and period are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	b, err := expensestore.New(db).SetBudget(ctx, models.Budget{
		Category:   req.Category,
		Period:     req.Period,
		LimitCents: req.LimitCents,
	})
	if err != nil {
		if errors.Is(err, expensestore.ErrBadAmount) {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpjson.InternalError(w, h.Log, "expenses: set budget", err)
		return
	}
	httpjson.OK(w, b)
}

type budgetStatus struct {
	Category       string `json:"category"`
	Period         string `json:"period"`
	LimitCents     int64  `json:"limit_cents"`
	SpentCents     int64  `json:"spent_cents"`
	RemainingCents int64  `json:"remaining_cents"`
}

// Budgets handles GET /organizations/{slug}/expenses/budgets?period=: each
// budget joined with its spend, remaining going negative on overruns.
func (h *Handler) Budgets(w http.ResponseWriter, r *http.Request) {
	db := tenant.FromRequest(r).DB()
	period := r.URL.Query().Get("period")
	if period == "" {
		httpjson.Error(w, http.StatusBadRequest, "period is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := expensestore.New(db)
	budgets, err := store.ListBudgets(ctx, period)
	if err != nil {
		httpjson.InternalError(w, h.Log, "expenses: list budgets", err)
		return
	}
	spend, err := store.SpendByCategory(ctx, period)
	if err != nil {
		httpjson.InternalError(w, h.Log, "expenses: spend by category", err)
		return
	}
	spent := make(map[string]int64, len(spend))
	for _, s := range spend {
		spent[s.Category] = s.AmountCents
	}

	out := make([]budgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetStatus{
			Category:       b.Category,
			Period:         b.Period,
			LimitCents:     b.LimitCents,
			SpentCents:     spent[b.Category],
			RemainingCents: b.LimitCents - spent[b.Category],
		})
	}
	httpjson.OK(w, map[string]any{"budgets": out})
}
