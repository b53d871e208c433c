// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	apikeystore "github.com/dalemusser/valuesdao/internal/app/store/apikeys"
	"github.com/dalemusser/valuesdao/internal/app/store/mintlocks"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
)

// indexer is implemented by every store that owns indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	targets := []struct {
		name string
		idx  indexer
	}{
		{"users", userstore.New(db)},
		{"api_keys", apikeystore.New(db)},
		{"mint_locks", mintlocks.New(db)},
		{string(rosterstore.Farcon), rosterstore.New(db, rosterstore.Farcon)},
		{string(rosterstore.FarcasterMeetup), rosterstore.New(db, rosterstore.FarcasterMeetup)},
	}

	var problems []string
	for _, t := range targets {
		if err := t.idx.EnsureIndexes(ctx); err != nil {
			problems = append(problems, t.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
