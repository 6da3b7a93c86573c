// internal/app/features/members/routes.go
package members

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the roster subrouter. Any member of the organization can
// browse the roster; write guards roster changes.
func Routes(h *Handler, write func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(write).Post("/", h.Create)
	r.With(write).Put("/{id}", h.Update)
	r.With(write).Delete("/{id}", h.Delete)
	return r
}
