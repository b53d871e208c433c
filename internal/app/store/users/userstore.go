package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches the identity key.
	ErrNotFound = errors.New("user not found")
	// ErrIdentityConflict is returned when creating a record would reuse an
	// identity field (usually email) that belongs to another user.
	ErrIdentityConflict = errors.New("identity already belongs to another user")
	errBadSource        = errors.New(`source must be "warpcast"|"twitter"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates one unique sparse index per identity field so each
// identity key maps to at most one record.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "farcaster", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_users_farcaster"),
		},
		{
			Keys:    bson.D{{Key: "twitter", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_users_twitter"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Get loads the user matching key. Returns ErrNotFound if none exists.
func (s *Store) Get(ctx context.Context, key identity.Key) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, key.Filter()).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ResolveOrCreate returns the user for key, creating it if it does not exist.
// email, if non-empty, is recorded only when the record is created.
// created reports whether this call inserted the record.
//
// A duplicate-key error means either a concurrent request created the same
// record (the winner is re-read) or email belongs to someone else
// (ErrIdentityConflict).
func (s *Store) ResolveOrCreate(ctx context.Context, key identity.Key, email string) (u *models.User, created bool, err error) {
	now := time.Now().UTC()

	onInsert := key.OnInsert()
	if _, isEmail := key.(identity.Email); !isEmail && email != "" {
		onInsert["email"] = email
	}
	onInsert["minted_values"] = bson.A{}
	onInsert["ai_generated_values"] = bson.M{}
	onInsert["created_at"] = now
	onInsert["updated_at"] = now

	res, err := s.c.UpdateOne(ctx, key.Filter(), bson.M{"$setOnInsert": onInsert}, options.Update().SetUpsert(true))
	if err != nil {
		if !wafflemongo.IsDup(err) {
			return nil, false, err
		}
		existing, getErr := s.Get(ctx, key)
		if errors.Is(getErr, ErrNotFound) {
			return nil, false, ErrIdentityConflict
		}
		return existing, false, getErr
	}

	u, err = s.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return u, res.UpsertedCount > 0, nil
}

// GetByFIDs loads all users whose Farcaster fid is in fids with a single
// query and returns them keyed by fid.
func (s *Store) GetByFIDs(ctx context.Context, fids []int64) (map[int64]models.User, error) {
	out := make(map[int64]models.User, len(fids))
	if len(fids) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"farcaster": bson.M{"$in": fids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		if u.Farcaster != nil {
			out[*u.Farcaster] = u
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetGeneratedValues replaces the generated values for one source and
// returns the updated user. Values for other sources are untouched.
func (s *Store) SetGeneratedValues(ctx context.Context, id primitive.ObjectID, source string, values []string) (*models.User, error) {
	if source != models.SourceWarpcast && source != models.SourceTwitter {
		return nil, errBadSource
	}
	if values == nil {
		values = []string{}
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"ai_generated_values." + source: values,
			"updated_at":                    time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AppendMintedValue appends mv to the user's minted values and returns the
// updated user. Duplicate values are allowed.
func (s *Store) AppendMintedValue(ctx context.Context, key identity.Key, mv models.MintedValue) (*models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		key.Filter(),
		bson.M{
			"$push": bson.M{"minted_values": mv},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
