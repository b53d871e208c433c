package rosterstore_test

import (
	"testing"

	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/dalemusser/valuesdao/internal/testutil"
)

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateRosterEntries(ctx, rosterstore.Farcon,
		models.RosterEntry{FID: "1", Username: "alice", Image: "https://img/1", Address: []string{"0xabc"}},
		models.RosterEntry{FID: "2", Username: "bob", Image: "https://img/2"},
	)
	fixtures.CreateRosterEntries(ctx, rosterstore.FarcasterMeetup,
		models.RosterEntry{FID: "3", Username: "carol"},
	)

	got, err := rosterstore.New(db, rosterstore.Farcon).List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].FID != "1" || got[1].FID != "2" {
		t.Errorf("unexpected order: %v", got)
	}
	if got[1].Address == nil {
		t.Error("expected missing address to decode as empty slice")
	}

	meetup, err := rosterstore.NewCatalog(db).List(ctx, rosterstore.FarcasterMeetup)
	if err != nil {
		t.Fatalf("Catalog.List failed: %v", err)
	}
	if len(meetup) != 1 || meetup[0].Username != "carol" {
		t.Errorf("meetup roster: %v", meetup)
	}
}

func TestSelect(t *testing.T) {
	if rosterstore.Select(false) != rosterstore.Farcon {
		t.Error("expected default roster")
	}
	if rosterstore.Select(true) != rosterstore.FarcasterMeetup {
		t.Error("expected meetup roster")
	}
}
