package metricsstore

import (
	"context"
	"time"

	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is a snapshot of stored totals.
type Counts struct {
	Users             int64
	WarpcastGenerated int64 // users with generated warpcast values
	TwitterGenerated  int64 // users with generated twitter values
	MintedValues      int64 // minted value records across all users
	MintsInProgress   int64 // held mint locks
	FarconEntries     int64
	MeetupEntries     int64
}

// FetchCounts returns the current totals.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts
	users := db.Collection("users")

	count := func(c *mongo.Collection, filter bson.M) int64 {
		n, err := c.CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	out.Users = count(users, bson.M{})
	out.WarpcastGenerated = count(users, bson.M{"ai_generated_values.warpcast.0": bson.M{"$exists": true}})
	out.TwitterGenerated = count(users, bson.M{"ai_generated_values.twitter.0": bson.M{"$exists": true}})
	out.MintsInProgress = count(db.Collection("mint_locks"), bson.M{"expires_at": bson.M{"$gt": time.Now().UTC()}})
	out.FarconEntries = count(db.Collection(string(rosterstore.Farcon)), bson.M{})
	out.MeetupEntries = count(db.Collection(string(rosterstore.FarcasterMeetup)), bson.M{})
	out.MintedValues = sumMinted(ctx, users)

	return out
}

func sumMinted(ctx context.Context, users *mongo.Collection) int64 {
	cur, err := users.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"n":   bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$minted_values", bson.A{}}}}},
		}}},
	})
	if err != nil {
		return 0
	}
	defer cur.Close(ctx)

	var row struct {
		N int64 `bson:"n"`
	}
	if cur.Next(ctx) && cur.Decode(&row) == nil {
		return row.N
	}
	return 0
}

// Collector reports Counts as gauges, read from the database on each scrape.
type Collector struct {
	db      *mongo.Database
	timeout time.Duration

	users, generated, minted, inProgress, roster *prometheus.Desc
}

// NewCollector returns a collector querying db with the given per-scrape timeout.
func NewCollector(db *mongo.Database, timeout time.Duration) *Collector {
	return &Collector{
		db:         db,
		timeout:    timeout,
		users:      prometheus.NewDesc("valuesdao_users", "Stored users.", nil, nil),
		generated:  prometheus.NewDesc("valuesdao_users_with_generated_values", "Users with generated values, by source.", []string{"source"}, nil),
		minted:     prometheus.NewDesc("valuesdao_minted_values", "Minted value records across all users.", nil, nil),
		inProgress: prometheus.NewDesc("valuesdao_mints_in_progress", "Mint attempts currently holding a lock.", nil, nil),
		roster:     prometheus.NewDesc("valuesdao_roster_entries", "Entries per pass-holder roster.", []string{"roster"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.generated
	ch <- c.minted
	ch <- c.inProgress
	ch <- c.roster
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	n := FetchCounts(ctx, c.db)

	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(n.Users))
	ch <- prometheus.MustNewConstMetric(c.generated, prometheus.GaugeValue, float64(n.WarpcastGenerated), "warpcast")
	ch <- prometheus.MustNewConstMetric(c.generated, prometheus.GaugeValue, float64(n.TwitterGenerated), "twitter")
	ch <- prometheus.MustNewConstMetric(c.minted, prometheus.GaugeValue, float64(n.MintedValues))
	ch <- prometheus.MustNewConstMetric(c.inProgress, prometheus.GaugeValue, float64(n.MintsInProgress))
	ch <- prometheus.MustNewConstMetric(c.roster, prometheus.GaugeValue, float64(n.FarconEntries), string(rosterstore.Farcon))
	ch <- prometheus.MustNewConstMetric(c.roster, prometheus.GaugeValue, float64(n.MeetupEntries), string(rosterstore.FarcasterMeetup))
}
