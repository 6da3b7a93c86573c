// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	directorystore "github.com/dalemusser/dueshub/internal/app/store/directory"
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"github.com/dalemusser/dueshub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB dials the central directory database and builds the tenant
// registry on top of it. Per-organization databases are not dialed here;
// the registry provisions them lazily as sessions resolve tenants.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect directory mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		if derr := client.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			logger.Warn("disconnect after failed directory ping", zap.Error(derr))
		}
		return DBDeps{}, fmt.Errorf("ping directory mongo: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected directory database",
		zap.String("database", appCfg.MongoDatabase))

	dir := directorystore.New(db, logger)
	prov := tenant.NewMongoProvisioner(logger)
	registry := tenant.NewRegistry(dir, prov, logger, appCfg.TenantReapInterval, appCfg.TenantIdleTTL)

	return DBDeps{
		DirectoryClient: client,
		DirectoryDB:     db,
		Registry:        registry,
	}, nil
}

// EnsureSchema creates the directory indexes the stores rely on.
// Per-organization databases get their indexes when an admin provisions
// them, not here.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	db := deps.DirectoryDB

	// One membership row per (user, organization).
	_, err := db.Collection("org_memberships").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "org_slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create org_memberships index: %w", err)
	}

	// Accounts are unique by folded email; google_sub is only present for
	// Google sign-in accounts, so that index is sparse.
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_sub", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	_, err = db.Collection("audit_events").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create audit_events index: %w", err)
	}

	logger.Info("directory indexes ensured")
	return nil
}
