// internal/app/system/tenant/resolver.go
package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ctxKey string

const tenantKey ctxKey = "tenant"

// Info holds the resolved tenant for the current request.
type Info struct {
	Org  models.Organization
	Conn *Conn
}

// DB returns the tenant database for the request.
func (i *Info) DB() *mongo.Database { return i.Conn.DB() }

// ExtractSlug parses the organization slug from a request path of the form
// /organizations/{slug}/..., falling back to a ?slug= query parameter when
// the path does not match. Returns false if neither source yields a slug.
func ExtractSlug(path string, query url.Values) (string, bool) {
	const prefix = "/organizations/"
	if strings.HasPrefix(path, prefix) {
		rest := strings.TrimPrefix(path, prefix)
		slug := rest
		if idx := strings.IndexByte(rest, '/'); idx != -1 {
			slug = rest[:idx]
		}
		if ValidSlug(slug) {
			return slug, true
		}
	}
	if slug := query.Get("slug"); ValidSlug(slug) {
		return slug, true
	}
	return "", false
}

// ValidSlug accepts the URL-safe identifiers the directory stores: lowercase
// letters, digits, and hyphens, not starting or ending with a hyphen.
func ValidSlug(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
			continue
		}
		return false
	}
	return true
}

// SessionIDFunc yields the logical session ID for a request, or "" when the
// request has no session.
type SessionIDFunc func(r *http.Request) string

// Middleware resolves the tenant for each request and injects it into the
// request context.
//
// For each request it extracts the slug, fetches the session's Manager from
// the registry, and drives LoadOrganization then Activate. Error mapping:
//
//   - no slug or no session: 404 with a pointer to the organization picker
//   - ErrOrgNotFound, ErrAccessDenied: 404 (access failures are presented
//     as not-found so org existence is not leaked)
//   - ErrBadConnectionConfig: 503, logged for operators
//   - anything else (transient): 502; a fresh navigation may succeed
//
// A failed resolution is terminal for the request; there is no retry here.
func Middleware(reg *Registry, sessionID SessionIDFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug, ok := ExtractSlug(r.URL.Path, r.URL.Query())
			if !ok {
				httpjson.Error(w, http.StatusNotFound, "no organization in request; choose one from /api/my/organizations")
				return
			}

			sid := sessionID(r)
			if sid == "" {
				httpjson.Error(w, http.StatusUnauthorized, "sign in required")
				return
			}

			mgr := reg.Manager(sid)
			org, err := mgr.LoadOrganization(r.Context(), slug)
			if err != nil {
				writeResolveError(w, slug, err, logger)
				return
			}
			conn, err := mgr.Activate(r.Context(), org)
			if err != nil {
				writeResolveError(w, slug, err, logger)
				return
			}

			r = withTenant(r, &Info{Org: org, Conn: conn})
			next.ServeHTTP(w, r)
		})
	}
}

func writeResolveError(w http.ResponseWriter, slug string, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, ErrOrgNotFound), errors.Is(err, ErrAccessDenied):
		// Deliberately identical responses.
		httpjson.Error(w, http.StatusNotFound, "organization not found")
	case errors.Is(err, ErrBadConnectionConfig):
		logger.Error("tenant misconfigured", zap.String("slug", slug), zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "organization is not set up correctly; contact support")
	case errors.Is(err, ErrSuperseded):
		httpjson.Error(w, http.StatusConflict, "a newer organization switch is in progress")
	default:
		logger.Warn("tenant resolution failed", zap.String("slug", slug), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "organization backend unavailable; try again")
	}
}

// FromRequest returns the tenant info from the request context.
// Returns nil if no tenant is set.
func FromRequest(r *http.Request) *Info {
	if ti, ok := r.Context().Value(tenantKey).(*Info); ok {
		return ti
	}
	return nil
}

// FromContext returns the tenant info from the context.
func FromContext(ctx context.Context) *Info {
	if ti, ok := ctx.Value(tenantKey).(*Info); ok {
		return ti
	}
	return nil
}

// withTenant adds tenant info to the request context.
func withTenant(r *http.Request, ti *Info) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), tenantKey, ti))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Test Helpers                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// WithTestTenant returns a request with tenant context set for testing.
// Exported for use in handler tests only.
func WithTestTenant(r *http.Request, org models.Organization, conn *Conn) *http.Request {
	return withTenant(r, &Info{Org: org, Conn: conn})
}

// NewTestConn wraps a database in a Conn for handler tests.
func NewTestConn(slug string, db *mongo.Database) *Conn {
	return &Conn{Slug: slug, handle: testHandle{db: db}}
}

type testHandle struct{ db *mongo.Database }

func (h testHandle) DB() *mongo.Database { return h.db }

func (h testHandle) Close(context.Context) error { return nil }
