// internal/app/features/directoryapi/routes.go
package directoryapi

import "github.com/go-chi/chi/v5"

// Routes serves the signed-in user's directory surface; mounted under
// /api/my.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/organizations", h.ListMine)
	return r
}

// AdminRoutes serves organization management; mounted under
// /api/admin/organizations behind the site-admin guard.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListAll)
	r.Post("/", h.CreateOrg)
	r.Put("/{slug}/connection", h.UpdateConnection)
	r.Put("/{slug}/name", h.Rename)
	r.Put("/{slug}/status", h.SetStatus)
	r.Post("/{slug}/memberships", h.Grant)
	r.Delete("/{slug}/memberships/{userID}", h.Revoke)
	return r
}
