package apikeys

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Key statuses.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// ErrNotFound is returned when no key has the given prefix.
var ErrNotFound = errors.New("api key not found")

var (
	errNoScopes  = errors.New("api key needs at least one scope")
	errMalformed = errors.New(`api key must look like "<prefix>.<secret>"`)
)

// Store manages API keys in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a new API key Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("api_keys")}
}

// EnsureIndexes creates the unique prefix index used for lookups.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "prefix", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_api_key_prefix"),
	})
	return err
}

// Create issues a key and returns the raw "<prefix>.<secret>" string.
// The raw key is not stored and cannot be recovered later.
func (s *Store) Create(ctx context.Context, name string, scopes []string) (string, models.APIKey, error) {
	if len(scopes) == 0 {
		return "", models.APIKey{}, errNoScopes
	}

	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", models.APIKey{}, err
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", models.APIKey{}, err
	}

	k := models.APIKey{
		ID:         primitive.NewObjectID(),
		Name:       strings.TrimSpace(name),
		Prefix:     prefix,
		SecretHash: string(hash),
		Scopes:     scopes,
		Status:     StatusActive,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, k); err != nil {
		return "", models.APIKey{}, err
	}
	return prefix + "." + secret, k, nil
}

// GetByPrefix loads a key by its public prefix.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) (models.APIKey, error) {
	var k models.APIKey
	err := s.c.FindOne(ctx, bson.M{"prefix": prefix}).Decode(&k)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.APIKey{}, ErrNotFound
	}
	return k, err
}

// Revoke marks a key as revoked. Revoked keys fail validation.
func (s *Store) Revoke(ctx context.Context, prefix string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"prefix": prefix}, bson.M{"$set": bson.M{"status": StatusRevoked}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure makes raw a usable key with the given scopes. A missing record is
// created; an existing record with the same prefix is re-activated and its
// hash and scopes replaced. created reports whether a record was inserted.
func (s *Store) Ensure(ctx context.Context, name, raw string, scopes []string) (created bool, err error) {
	if len(scopes) == 0 {
		return false, errNoScopes
	}
	prefix, secret, ok := strings.Cut(strings.TrimSpace(raw), ".")
	if !ok || prefix == "" || secret == "" {
		return false, errMalformed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"prefix": prefix},
		bson.M{
			"$set": bson.M{
				"name":        strings.TrimSpace(name),
				"secret_hash": string(hash),
				"scopes":      scopes,
				"status":      StatusActive,
			},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
