package rosterstore

import (
	"context"

	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Name is the collection name of a pass-holder roster.
type Name string

const (
	// Farcon is the default roster.
	Farcon Name = "farcon"
	// FarcasterMeetup is the alternate roster selected with fc_meetup.
	FarcasterMeetup Name = "farcaster_meetups"
)

// Select returns the alternate roster when alternate is true, else the default.
func Select(alternate bool) Name {
	if alternate {
		return FarcasterMeetup
	}
	return Farcon
}

// Store reads one roster collection. Rosters are maintained outside this
// service and are read whole on every request.
type Store struct {
	c *mongo.Collection
}

// New returns a Store over the named roster.
func New(db *mongo.Database, name Name) *Store {
	return &Store{c: db.Collection(string(name))}
}

// Catalog lists any roster in a database by name. Services use it to pick
// the roster per request.
type Catalog struct {
	db *mongo.Database
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{db: db}
}

// List returns every entry of the named roster.
func (c *Catalog) List(ctx context.Context, name Name) ([]models.RosterEntry, error) {
	return New(c.db, name).List(ctx)
}

// EnsureIndexes creates the fid lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "fid", Value: 1}},
		Options: options.Index().SetName("idx_roster_fid"),
	})
	return err
}

// List returns every entry in stored (natural) order.
func (s *Store) List(ctx context.Context) ([]models.RosterEntry, error) {
	proj := options.Find().SetProjection(bson.M{"_id": 0, "__v": 0})
	cur, err := s.c.Find(ctx, bson.M{}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.RosterEntry{}
	for cur.Next(ctx) {
		var e models.RosterEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		if e.Address == nil {
			e.Address = []string{}
		}
		out = append(out, e)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
