package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	apikeystore "github.com/dalemusser/valuesdao/internal/app/store/apikeys"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateFarcasterUser creates a user linked to fid with the given minted values.
func (f *Fixtures) CreateFarcasterUser(ctx context.Context, fid int64, minted ...string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Farcaster:    &fid,
		MintedValues: MintedValues(minted...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateEmailUser creates a user identified only by email.
func (f *Fixtures) CreateEmailUser(ctx context.Context, email string, minted ...string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        &email,
		MintedValues: MintedValues(minted...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateRosterEntries inserts entries into the named roster collection.
func (f *Fixtures) CreateRosterEntries(ctx context.Context, roster rosterstore.Name, entries ...models.RosterEntry) {
	f.t.Helper()

	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	if len(docs) == 0 {
		return
	}
	if _, err := f.db.Collection(string(roster)).InsertMany(ctx, docs); err != nil {
		f.t.Fatalf("failed to create roster entries: %v", err)
	}
}

// CreateAPIKey issues an API key with the given scopes and returns the raw key.
func (f *Fixtures) CreateAPIKey(ctx context.Context, name string, scopes ...string) string {
	f.t.Helper()

	raw, _, err := apikeystore.New(f.db).Create(ctx, name, scopes)
	if err != nil {
		f.t.Fatalf("failed to create api key: %v", err)
	}
	return raw
}

// MintedValues builds minted value records for the given labels.
func MintedValues(values ...string) []models.MintedValue {
	out := make([]models.MintedValue, 0, len(values))
	for _, v := range values {
		out = append(out, models.MintedValue{
			Value:    v,
			Metadata: models.ValueMetadata{Name: v},
			CID:      "https://gateway.pinata.cloud/ipfs/Qm" + v,
		})
	}
	return out
}
