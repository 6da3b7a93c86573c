// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for DuesHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: DUESHUB_MONGO_URI, DUESHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "Central directory MongoDB connection URI"},
	{Name: "mongo_database", Default: "dueshub_directory", Desc: "Central directory database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "dueshub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for OAuth callbacks"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "oauth_state_key", Default: "dev-only-oauth-state-0123456789ABCDEF", Desc: "Signing key for the OAuth state cookie"},

	// Headless export tokens
	{Name: "api_token_secret", Default: "dev-only-api-token-0123456789ABCDEF", Desc: "HMAC secret for headless export tokens"},
	{Name: "api_token_ttl", Default: "1h", Desc: "Export token lifetime (e.g., 30m, 1h)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Tenant session registry
	{Name: "tenant_reap_interval", Default: "1m", Desc: "How often idle tenant sessions are swept"},
	{Name: "tenant_idle_ttl", Default: "30m", Desc: "Idle time before a tenant session's connections are released"},

	// Site admin bootstrap
	{Name: "site_admin_email", Default: "", Desc: "Email of the site admin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, DUESHUB_* for app), and
// command-line flags, merged with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DUESHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		BaseURL: appValues.String("base_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		OAuthStateKey:      appValues.String("oauth_state_key"),

		APITokenSecret: appValues.String("api_token_secret"),
		APITokenTTL:    appValues.Duration("api_token_ttl", time.Hour),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		TenantReapInterval: appValues.Duration("tenant_reap_interval", time.Minute),
		TenantIdleTTL:      appValues.Duration("tenant_idle_ttl", 30*time.Minute),

		SiteAdminEmail: appValues.String("site_admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// DuesHub validates the directory MongoDB URI format to catch configuration
// errors early, before attempting to connect. Per-organization URIs are
// validated at provision time instead, since they live in directory records
// and can change while the app is running.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid directory MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid directory MongoDB URI: %w", err)
	}

	if appCfg.TenantIdleTTL <= 0 || appCfg.TenantReapInterval <= 0 {
		return fmt.Errorf("tenant_idle_ttl and tenant_reap_interval must be positive")
	}

	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret == "" {
		return fmt.Errorf("google_client_id is set but google_client_secret is empty")
	}

	return nil
}
