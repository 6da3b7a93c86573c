// internal/app/system/tenant/provision.go
package tenant

import (
	"context"
	"fmt"

	"github.com/dalemusser/dueshub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handle is a live per-tenant backend handle. Implementations own their
// underlying client; Close disposes it.
type Handle interface {
	// DB returns the tenant's database. Valid until Close.
	DB() *mongo.Database
	// Close disposes the underlying client.
	Close(ctx context.Context) error
}

// Provisioner turns an organization's connection config into a live Handle.
// Implementations must validate the config before dialing and report config
// problems with ErrBadConnectionConfig.
type Provisioner interface {
	Provision(ctx context.Context, org models.Organization) (Handle, error)
}

// MongoProvisioner dials a dedicated Mongo client per organization using the
// URI and database name from the org's connection config.
type MongoProvisioner struct {
	Log *zap.Logger
}

// NewMongoProvisioner constructs a MongoProvisioner.
func NewMongoProvisioner(logger *zap.Logger) *MongoProvisioner {
	return &MongoProvisioner{Log: logger}
}

// Provision validates the config, connects, and pings the deployment so that
// a dead backend surfaces here rather than on the first query.
func (p *MongoProvisioner) Provision(ctx context.Context, org models.Organization) (Handle, error) {
	cfg := org.Connection
	if cfg.URI == "" || cfg.Database == "" {
		return nil, fmt.Errorf("org %q: %w", org.Slug, ErrBadConnectionConfig)
	}
	if err := wafflemongo.ValidateURI(cfg.URI); err != nil {
		return nil, fmt.Errorf("org %q: %w: %v", org.Slug, ErrBadConnectionConfig, err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("org %q: %w: %v", org.Slug, ErrTenantUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if derr := client.Disconnect(context.WithoutCancel(ctx)); derr != nil {
			p.Log.Warn("disconnect after failed ping", zap.String("slug", org.Slug), zap.Error(derr))
		}
		return nil, fmt.Errorf("org %q: %w: %v", org.Slug, ErrTenantUnavailable, err)
	}

	p.Log.Info("provisioned tenant connection",
		zap.String("slug", org.Slug),
		zap.String("database", cfg.Database))

	return &mongoHandle{client: client, db: client.Database(cfg.Database)}, nil
}

type mongoHandle struct {
	client *mongo.Client
	db     *mongo.Database
}

func (h *mongoHandle) DB() *mongo.Database { return h.db }

func (h *mongoHandle) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}
