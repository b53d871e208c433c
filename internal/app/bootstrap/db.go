package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/valuesdao/internal/app/clients/chain"
	"github.com/dalemusser/valuesdao/internal/app/system/indexes"
	"github.com/dalemusser/valuesdao/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

// ConnectDB opens MongoDB and, when configured, the chain RPC connection.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Limiters:      &ratelimit.Group{},
	}

	if appCfg.ChainRPCURL == "" {
		logger.Warn("chain_rpc_url not set; minting disabled")
		return deps, nil
	}
	c, err := chain.Dial(cctx, appCfg.ChainRPCURL, chain.Config{
		PrivateKey: appCfg.ChainPrivateKey,
		Contract:   appCfg.ChainContract,
		ChainID:    appCfg.ChainID,
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}
	logger.Info("chain client ready",
		zap.String("minter", c.From().Hex()),
		zap.String("contract", appCfg.ChainContract))
	deps.Chain = c
	return deps, nil
}

// EnsureSchema creates every collection index.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
