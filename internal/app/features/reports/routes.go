// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// Routes serves the in-tenant report surface; mounted under
// /organizations/{slug}/reports behind the tenant middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/contributions", h.ContributionSummary)
	r.Get("/contributions.csv", h.ContributionsCSV)
	r.Get("/expenses", h.ExpenseSummary)
	r.Get("/expenses.csv", h.ExpensesCSV)
	r.Post("/export-token", h.IssueExportToken)
	return r
}

// ExportRoutes serves the token-guarded headless export; mounted under
// /api/export outside the session middleware.
func ExportRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}/{ledger}.csv", h.Export)
	return r
}
