// internal/app/system/orgrole/orgrole.go

// Package orgrole guards tenant routes with the membership roles stored in
// the central directory.
package orgrole

import (
	"net/http"

	directorystore "github.com/dalemusser/dueshub/internal/app/store/directory"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Require returns middleware that admits only users holding one of the given
// roles in the request's resolved organization. With no roles listed, any
// membership is enough. Site administrators always pass. A user with no
// membership gets the same 404 as a nonexistent organization.
func Require(dir *directorystore.Store, logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.CurrentUser(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "sign in required")
				return
			}
			info := tenant.FromRequest(r)
			if info == nil {
				httpjson.Error(w, http.StatusNotFound, "organization not found")
				return
			}
			if user.SiteAdmin {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := primitive.ObjectIDFromHex(user.ID)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "sign in required")
				return
			}
			m, found, err := dir.GetMembership(r.Context(), userID, info.Org.Slug)
			if err != nil {
				httpjson.InternalError(w, logger, "orgrole: fetch membership", err)
				return
			}
			if !found {
				httpjson.Error(w, http.StatusNotFound, "organization not found")
				return
			}
			if len(allowed) > 0 && !allowed[m.Role] {
				httpjson.Error(w, http.StatusForbidden, "your role does not allow this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
