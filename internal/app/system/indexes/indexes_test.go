package indexes_test

import (
	"testing"

	"github.com/dalemusser/valuesdao/internal/app/system/indexes"
	"github.com/dalemusser/valuesdao/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once; a second run must succeed.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUserIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection("users").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	indexNames := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		if name, ok := idx["name"].(string); ok {
			indexNames[name] = true
		}
	}

	for _, want := range []string{"uniq_users_email", "uniq_users_farcaster", "uniq_users_twitter"} {
		if !indexNames[want] {
			t.Errorf("expected index %q to exist", want)
		}
	}
}

func TestEnsureAll_CreatesMintLockTTL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection("mint_locks").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		if idx["name"] == "idx_mint_lock_ttl" {
			found = true
			if _, ok := idx["expireAfterSeconds"]; !ok {
				t.Error("expected TTL index to have expireAfterSeconds")
			}
		}
	}
	if !found {
		t.Error("expected idx_mint_lock_ttl to exist")
	}
}
