package roster_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	rosterfeature "github.com/dalemusser/valuesdao/internal/app/features/roster"
	alignsvc "github.com/dalemusser/valuesdao/internal/app/services/alignment"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/dalemusser/valuesdao/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	rosters := rosterstore.NewCatalog(db)
	scorer := alignsvc.NewScorer(userstore.New(db), rosters, nil, zap.NewNop())
	h := rosterfeature.NewHandler(rosters, scorer, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/api/farcon", rosterfeature.Routes(h))
	return r, testutil.NewFixtures(t, db)
}

func TestServeList(t *testing.T) {
	router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateRosterEntries(ctx, rosterstore.Farcon,
		models.RosterEntry{FID: "1", Username: "alice", Address: []string{"0xa"}},
		models.RosterEntry{FID: "2", Username: "bob"},
	)
	fx.CreateRosterEntries(ctx, rosterstore.FarcasterMeetup, models.RosterEntry{FID: "3", Username: "carol"})

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/api/farcon"))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Users []models.RosterEntry `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Users) != 2 || body.Users[0].Username != "alice" {
		t.Errorf("users = %+v", body.Users)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/api/farcon?fc_meetup=1"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"carol"`)
}

func TestServeAligned(t *testing.T) {
	router, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateFarcasterUser(ctx, 1, "honesty")
	fx.CreateFarcasterUser(ctx, 2, "honesty")
	fx.CreateFarcasterUser(ctx, 3, "courage")
	fx.CreateRosterEntries(ctx, rosterstore.Farcon,
		models.RosterEntry{FID: "3", Username: "Carol"},
		models.RosterEntry{FID: "1", Username: "me"},
		models.RosterEntry{FID: "2", Username: "Bob"},
	)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/api/farcon/aligned?fid=1"))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Users        []alignsvc.RankedEntry `json:"users"`
		IsPassHolder bool                   `json:"isPassHolder"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.IsPassHolder {
		t.Error("expected requester to be a pass holder")
	}
	if len(body.Users) != 3 {
		t.Fatalf("expected full roster, got %d", len(body.Users))
	}
	if body.Users[0].FID != "2" {
		t.Errorf("expected bob first, got %+v", body.Users[0])
	}
	if body.Users[1].FID != "3" || body.Users[2].FID != "1" {
		t.Errorf("unexpected order: %+v", body.Users)
	}
	if body.Users[2].Alignment != nil {
		t.Error("own entry should carry no alignment")
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/api/farcon/aligned?fid=1&q=car"))
	rec.AssertStatus(t, http.StatusOK)
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Users) != 1 || body.Users[0].Username != "Carol" {
		t.Errorf("filtered users = %+v", body.Users)
	}
}

func TestServeAligned_MissingRequester(t *testing.T) {
	router, _ := setup(t)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/api/farcon/aligned"))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Missing parameters")
}

type countingRosters struct {
	alignsvc.RosterLister
	calls int
}

func (c *countingRosters) List(ctx context.Context, name rosterstore.Name) ([]models.RosterEntry, error) {
	c.calls++
	return c.RosterLister.List(ctx, name)
}

func TestServeAligned_ReadsRosterOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateFarcasterUser(ctx, 1, "honesty")
	fx.CreateFarcasterUser(ctx, 2, "honesty")
	fx.CreateRosterEntries(ctx, rosterstore.Farcon, models.RosterEntry{FID: "2", Username: "bob"})

	rosters := &countingRosters{RosterLister: rosterstore.NewCatalog(db)}
	scorer := alignsvc.NewScorer(userstore.New(db), rosters, nil, zap.NewNop())
	h := rosterfeature.NewHandler(rosters, scorer, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeAligned(rec, testutil.NewRequest("GET", "/api/farcon/aligned?fid=1"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"bob"`)

	if rosters.calls != 1 {
		t.Errorf("roster read %d times, want 1", rosters.calls)
	}
}
