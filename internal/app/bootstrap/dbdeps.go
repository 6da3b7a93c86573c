// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/dueshub/internal/app/system/tenant"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Only the central directory connection lives here. Per-organization
// databases are dialed on demand by the tenant registry, which is bundled
// alongside the directory client so Shutdown can release every live tenant
// connection.
type DBDeps struct {
	DirectoryClient *mongo.Client
	DirectoryDB     *mongo.Database
	Registry        *tenant.Registry
}
