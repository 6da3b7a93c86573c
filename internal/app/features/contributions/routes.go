// internal/app/features/contributions/routes.go
package contributions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the contribution subrouter. Any member of the organization
// can read the ledger; write guards recording and voiding.
func Routes(h *Handler, write func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(write).Post("/", h.Record)
	r.With(write).Post("/{id}/void", h.Void)
	return r
}
