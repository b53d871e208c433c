package bootstrap

import (
	"github.com/dalemusser/valuesdao/internal/app/clients/chain"
	"github.com/dalemusser/valuesdao/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the back-end connections opened in ConnectDB.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Chain is nil when minting is disabled.
	Chain *chain.Client

	// Limiters owns the rate limiters BuildHandler creates; Shutdown stops
	// them.
	Limiters *ratelimit.Group
}
