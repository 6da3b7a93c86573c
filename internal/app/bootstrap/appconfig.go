// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, timeouts); AppConfig is everything specific to DuesHub: the central
// directory database, session cookies, OAuth credentials, export tokens, and
// the tenant registry's reaping schedule.
type AppConfig struct {
	// Central directory database. Per-organization databases are not
	// configured here; their connection details live in the directory's
	// organization records.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management
	SessionKey    string // secret for signing session cookies
	SessionName   string // cookie name (default: dueshub-session)
	SessionDomain string // cookie domain (blank means current host)

	// Base URL for OAuth callbacks
	BaseURL string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthStateKey      string // secret for signing the OAuth state cookie

	// Headless export tokens
	APITokenSecret string
	APITokenTTL    time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off" per category
	AuditLogAuth  string
	AuditLogAdmin string

	// Tenant session registry reaping
	TenantReapInterval time.Duration // how often idle sessions are swept
	TenantIdleTTL      time.Duration // idle time before a session is dropped

	// Site admin bootstrap: promotes/creates this account on startup
	SiteAdminEmail string
}
