// internal/app/store/mintlocks/store.go
package mintlocks

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Lock is a held per-fid mint lock.
type Lock struct {
	FID       int64     `bson:"fid"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store guards mint attempts so at most one runs per fid at a time.
type Store struct {
	c *mongo.Collection
}

// New creates a new mint lock Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mint_locks")}
}

// EnsureIndexes creates the unique fid index and the TTL cleanup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "fid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_mint_lock_fid"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_mint_lock_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Acquire takes the lock for fid for ttl. ok is false if another attempt
// holds an unexpired lock. The returned token is needed to release it.
func (s *Store) Acquire(ctx context.Context, fid int64, ttl time.Duration) (token string, ok bool, err error) {
	now := time.Now().UTC()

	// The TTL monitor runs about once a minute; clear a stale lock ourselves.
	if _, err := s.c.DeleteOne(ctx, bson.M{"fid": fid, "expires_at": bson.M{"$lte": now}}); err != nil {
		return "", false, err
	}

	lock := Lock{
		FID:       fid,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, lock); err != nil {
		if wafflemongo.IsDup(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return lock.Token, true, nil
}

// Release drops the lock if token still owns it.
func (s *Store) Release(ctx context.Context, fid int64, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"fid": fid, "token": token})
	return err
}
