// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down tenant connections and the directory client.
// The registry is drained first so every per-organization client is released
// before the directory goes away.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Registry != nil {
		deps.Registry.Stop()
		deps.Registry.CloseAll(ctx)
	}

	if deps.DirectoryClient != nil {
		logger.Info("disconnecting directory MongoDB client")
		if err := deps.DirectoryClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
