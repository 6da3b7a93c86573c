// internal/app/features/login/routes.go
package login

import (
	"time"

	"github.com/dalemusser/dueshub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes returns the login subrouter. Attempts are rate limited per client
// IP to slow down credential stuffing.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	limiter := ratelimit.New(10, time.Minute)
	r.With(limiter.Middleware).Post("/", h.HandleLogin)
	return r
}
