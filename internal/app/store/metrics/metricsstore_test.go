package metricsstore_test

import (
	"strings"
	"testing"
	"time"

	metricsstore "github.com/dalemusser/valuesdao/internal/app/store/metrics"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/dalemusser/valuesdao/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFetchCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchCounts(ctx, db)
	if counts != (metricsstore.Counts{}) {
		t.Errorf("expected all zero, got %+v", counts)
	}
}

func TestFetchCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateFarcasterUser(ctx, 1, "honesty", "grit")
	fx.CreateFarcasterUser(ctx, 2, "care")
	fx.CreateEmailUser(ctx, "a@example.com")
	fx.CreateRosterEntries(ctx, rosterstore.Farcon, models.RosterEntry{FID: "1"}, models.RosterEntry{FID: "2"})

	if _, err := db.Collection("users").UpdateByID(ctx, u.ID,
		bson.M{"$set": bson.M{"ai_generated_values.warpcast": []string{"a", "b", "c"}}}); err != nil {
		t.Fatalf("set generated values: %v", err)
	}
	if _, err := db.Collection("mint_locks").InsertOne(ctx,
		bson.M{"fid": int64(1), "token": "t", "expires_at": time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("insert lock: %v", err)
	}

	got := metricsstore.FetchCounts(ctx, db)
	want := metricsstore.Counts{
		Users:             3,
		WarpcastGenerated: 1,
		MintedValues:      3,
		MintsInProgress:   1,
		FarconEntries:     2,
	}
	if got != want {
		t.Errorf("counts = %+v, want %+v", got, want)
	}
}

func TestCollector_Exposition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateFarcasterUser(ctx, 7, "courage")

	reg := prometheus.NewRegistry()
	reg.MustRegister(metricsstore.NewCollector(db, 5*time.Second))

	expected := `
# HELP valuesdao_users Stored users.
# TYPE valuesdao_users gauge
valuesdao_users 1
# HELP valuesdao_minted_values Minted value records across all users.
# TYPE valuesdao_minted_values gauge
valuesdao_minted_values 1
`
	if err := promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "valuesdao_users", "valuesdao_minted_values"); err != nil {
		t.Error(err)
	}
}
