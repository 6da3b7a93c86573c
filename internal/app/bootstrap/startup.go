// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"github.com/dalemusser/dueshub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// promotes (or creates) the configured site admin and starts the tenant
// registry's idle-session reaper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SiteAdminEmail != "" {
		sctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		if err := ensureSiteAdmin(sctx, deps, appCfg.SiteAdminEmail, logger); err != nil {
			return fmt.Errorf("ensure site admin: %w", err)
		}
	}

	deps.Registry.Start()
	logger.Info("tenant registry started",
		zap.Duration("reap_interval", appCfg.TenantReapInterval),
		zap.Duration("idle_ttl", appCfg.TenantIdleTTL))

	return nil
}

// ensureSiteAdmin promotes the account with the given email to site admin,
// creating it if it does not exist. A created account has no password; the
// admin signs in with Google, matched by email.
func ensureSiteAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := deps.DirectoryDB.Collection("users")
	emailCI := text.Fold(email)

	var existing models.User
	err := users.FindOne(ctx, bson.M{"email_ci": emailCI}).Decode(&existing)
	switch {
	case err == nil:
		if existing.IsSiteAdmin {
			return nil
		}
		_, err := users.UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{"is_site_admin": true, "updated_at": time.Now().UTC()}})
		if err != nil {
			return fmt.Errorf("promote %s: %w", email, err)
		}
		logger.Info("promoted existing user to site admin", zap.String("email", email))
		return nil

	case err == mongo.ErrNoDocuments:
		now := time.Now().UTC()
		user := models.User{
			FullName:    "Site Admin",
			FullNameCI:  text.Fold("Site Admin"),
			Email:       email,
			EmailCI:     emailCI,
			AuthMethod:  models.AuthMethodGoogle,
			IsSiteAdmin: true,
			Status:      "active",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := users.InsertOne(ctx, user); err != nil {
			return fmt.Errorf("create site admin %s: %w", email, err)
		}
		logger.Info("created site admin account", zap.String("email", email))
		return nil

	default:
		return fmt.Errorf("look up %s: %w", email, err)
	}
}
