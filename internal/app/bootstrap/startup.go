package bootstrap

import (
	"context"

	apikeystore "github.com/dalemusser/valuesdao/internal/app/store/apikeys"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup applies timeout overrides and provisions the bootstrap API key.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		c := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Duration("ping", c.Ping),
			zap.Duration("short", c.Short),
			zap.Duration("medium", c.Medium),
			zap.Duration("long", c.Long),
			zap.Duration("mint", c.Mint))
	}
	if deps.Chain != nil && appCfg.MintLockTTL <= timeouts.Mint() {
		// Attempts are cut off at the lock TTL, so a long mint timeout only
		// shortens them.
		logger.Warn("mint_lock_ttl is not longer than the mint timeout",
			zap.Duration("mint_lock_ttl", appCfg.MintLockTTL),
			zap.Duration("mint_timeout", timeouts.Mint()))
	}

	if appCfg.BootstrapAPIKey != "" {
		if err := ensureServiceKey(ctx, deps, appCfg.BootstrapAPIKey, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureServiceKey makes raw a usable READ+WRITE key. An existing key with
// the same prefix is re-activated.
func ensureServiceKey(ctx context.Context, deps DBDeps, raw string, logger *zap.Logger) error {
	created, err := apikeystore.New(deps.MongoDatabase).Ensure(ctx, "bootstrap", raw, []string{models.ScopeRead, models.ScopeWrite})
	if err != nil {
		logger.Error("provision bootstrap api key", zap.Error(err))
		return err
	}
	logger.Info("bootstrap api key ready", zap.Bool("created", created))
	return nil
}
