// internal/app/system/auth/auth.go

// Package auth provides cookie-session authentication for the JSON API.
// Each signed-in browser gets a random session ID; that ID is also the key
// under which the tenant registry tracks the session's active organization.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/dueshub/internal/app/system/httpjson"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey    = "is_authenticated"
	sessionIDKey = "session_id"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	siteAdminKey = "site_admin"
)

// SessionUser is what we cache in the session and inject into r.Context().
type SessionUser struct {
	ID        string
	SessionID string
	Name      string
	Email     string
	SiteAdmin bool
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager wraps the cookie store and session name.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie store. Secure cookies are used in
// production; Lax SameSite works for the same-origin JSON API in both modes.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, name: sessionName, log: logger}, nil
}

// SignIn starts a session for user and returns the new session ID.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, user models.User) (string, error) {
	sess, _ := m.store.Get(r, m.name)
	sid := uuid.NewString()
	sess.Values[isAuthKey] = true
	sess.Values[sessionIDKey] = sid
	sess.Values[userIDKey] = user.ID.Hex()
	sess.Values[userNameKey] = user.FullName
	sess.Values[userEmailKey] = user.Email
	sess.Values[siteAdminKey] = user.IsSiteAdmin
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return sid, nil
}

// SignOut ends the session and returns the session ID that was active, so
// the caller can drop the tenant state tracked under it.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, _ := m.store.Get(r, m.name)
	sid := getString(sess, sessionIDKey)
	sess.Options.MaxAge = -1
	sess.Values = make(map[any]any)
	return sid, sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are logged in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.store.Get(r, m.name)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			admin, _ := sess.Values[siteAdminKey].(bool)
			u := &SessionUser{
				ID:        getString(sess, userIDKey),
				SessionID: getString(sess, sessionIDKey),
				Name:      getString(sess, userNameKey),
				Email:     getString(sess, userEmailKey),
				SiteAdmin: admin,
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// SessionID returns the logical session ID for the request, or "" when not
// signed in. Used by the tenant middleware as the registry key.
func (m *SessionManager) SessionID(r *http.Request) string {
	if u, ok := CurrentUser(r); ok {
		return u.SessionID
	}
	return ""
}

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			httpjson.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSiteAdmin ensures the signed-in user is a site administrator.
func RequireSiteAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "sign in required")
			return
		}
		if !u.SiteAdmin {
			httpjson.Error(w, http.StatusForbidden, "site administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| Test Helpers                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// WithTestUser returns a request with the user injected into context,
// bypassing the session middleware. Exported for tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}
