// internal/app/features/expenses/routes.go
package expenses

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the expense subrouter. Reads are open to any member of the
// organization; write guards adding, deleting, and budget changes.
func Routes(h *Handler, write func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/budgets", h.Budgets)
	r.With(write).Post("/", h.Add)
	r.With(write).Put("/budgets", h.SetBudget)
	r.With(write).Delete("/{id}", h.Delete)
	return r
}
