// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/dalemusser/dueshub/internal/app/features/authgoogle"
	contributionsfeature "github.com/dalemusser/dueshub/internal/app/features/contributions"
	dashboardfeature "github.com/dalemusser/dueshub/internal/app/features/dashboard"
	directoryapifeature "github.com/dalemusser/dueshub/internal/app/features/directoryapi"
	expensesfeature "github.com/dalemusser/dueshub/internal/app/features/expenses"
	healthfeature "github.com/dalemusser/dueshub/internal/app/features/health"
	loginfeature "github.com/dalemusser/dueshub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/dueshub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/dueshub/internal/app/features/members"
	reportsfeature "github.com/dalemusser/dueshub/internal/app/features/reports"
	auditstore "github.com/dalemusser/dueshub/internal/app/store/audit"
	directorystore "github.com/dalemusser/dueshub/internal/app/store/directory"
	userstore "github.com/dalemusser/dueshub/internal/app/store/users"
	"github.com/dalemusser/dueshub/internal/app/system/apitoken"
	"github.com/dalemusser/dueshub/internal/app/system/auditlog"
	"github.com/dalemusser/dueshub/internal/app/system/auth"
	"github.com/dalemusser/dueshub/internal/app/system/orgrole"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The route surface splits three ways:
//
//   - /api/*: the central directory surface (sign-in, organization picker,
//     administration). Session-backed, no tenant context.
//   - /organizations/{slug}/*: the per-organization surface. Each request
//     passes through the tenant middleware, which resolves the slug in the
//     directory and activates a dedicated database connection for the
//     session before any handler runs.
//   - /api/export/*: headless CSV pulls guarded by bearer tokens instead of
//     session cookies.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(deps.DirectoryDB)
	directory := directorystore.New(deps.DirectoryDB, logger)
	auditLog := auditlog.New(auditstore.New(deps.DirectoryDB), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	tokens, err := apitoken.NewIssuer(appCfg.APITokenSecret, appCfg.APITokenTTL)
	if err != nil {
		logger.Error("export token issuer init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.DirectoryClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// OAuth sign-in lives outside /api because Google redirects the browser
	// here directly.
	googleHandler := authgooglefeature.NewHandler(users, sessionMgr, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, appCfg.OAuthStateKey, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Central directory surface
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.Registry, auditLog, logger)
	dirHandler := directoryapifeature.NewHandler(directory, users, auditLog, logger)
	reportsHandler := reportsfeature.NewHandler(deps.Registry, tokens, logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/login", loginfeature.Routes(loginHandler))
		r.With(auth.RequireSignedIn).Mount("/logout", logoutfeature.Routes(logoutHandler))
		r.With(auth.RequireSignedIn).Mount("/my", directoryapifeature.Routes(dirHandler))
		r.With(auth.RequireSignedIn, auth.RequireSiteAdmin).
			Mount("/admin/organizations", directoryapifeature.AdminRoutes(dirHandler))

		// Bearer tokens, not session cookies, guard the export surface.
		r.Mount("/export", reportsfeature.ExportRoutes(reportsHandler))
	})

	// Per-organization surface. The tenant middleware resolves {slug} and
	// activates the session's connection; the role guards then admit by the
	// caller's membership in that organization.
	anyMember := orgrole.Require(directory, logger)
	ledgerWrite := orgrole.Require(directory, logger,
		models.MembershipRoleAdmin, models.MembershipRoleTreasurer)

	dashboardHandler := dashboardfeature.NewHandler(logger)
	membersHandler := membersfeature.NewHandler(logger)
	contributionsHandler := contributionsfeature.NewHandler(auditLog, logger)
	expensesHandler := expensesfeature.NewHandler(logger)

	r.Route("/organizations/{slug}", func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Use(tenant.Middleware(deps.Registry, sessionMgr.SessionID, logger))
		r.Use(anyMember)

		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))
		r.Mount("/members", membersfeature.Routes(membersHandler, ledgerWrite))
		r.Mount("/contributions", contributionsfeature.Routes(contributionsHandler, ledgerWrite))
		r.Mount("/expenses", expensesfeature.Routes(expensesHandler, ledgerWrite))
		r.Mount("/reports", reportsfeature.Routes(reportsHandler))
	})

	return r, nil
}
