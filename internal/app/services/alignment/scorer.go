package alignment

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/metrics"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.uber.org/zap"
)

// MessageUserNotFound marks a roster entry with no matching user record.
const MessageUserNotFound = "User not found"

// UserReader is the part of the user store the scorer needs.
type UserReader interface {
	Get(ctx context.Context, key identity.Key) (*models.User, error)
	GetByFIDs(ctx context.Context, fids []int64) (map[int64]models.User, error)
}

// RosterLister lists a roster by name.
type RosterLister interface {
	List(ctx context.Context, name rosterstore.Name) ([]models.RosterEntry, error)
}

// Result is the alignment of the requester with one roster entry.
type Result struct {
	FID       string   `json:"fid"`
	Alignment float64  `json:"alignment"`
	Messages  string   `json:"messages,omitempty"`
	Username  string   `json:"username"`
	Image     string   `json:"image"`
	Address   []string `json:"address"`
}

// Scorer computes roster rankings.
type Scorer struct {
	Users   UserReader
	Rosters RosterLister
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewScorer(users UserReader, rosters RosterLister, m *metrics.Metrics, logger *zap.Logger) *Scorer {
	return &Scorer{Users: users, Rosters: rosters, Metrics: m, Log: logger}
}

// Rank returns the requester's alignment with every entry of roster, sorted
// by alignment descending with ties kept in roster order. The requester's own
// entry is never included. Errors are *apperr.Error; no partial result is
// returned on failure.
func (s *Scorer) Rank(ctx context.Context, requester identity.Key, roster rosterstore.Name) ([]Result, error) {
	out, err := s.rank(ctx, requester, roster, func(ctx context.Context) ([]models.RosterEntry, error) {
		return s.Rosters.List(ctx, roster)
	})
	s.Metrics.Alignment(string(roster), outcome(err))
	return out, err
}

// RankEntries is Rank over a roster the caller has already loaded, so the
// ranking and anything the caller joins it with see the same snapshot.
// roster only labels logs and metrics.
func (s *Scorer) RankEntries(ctx context.Context, requester identity.Key, roster rosterstore.Name, entries []models.RosterEntry) ([]Result, error) {
	out, err := s.rank(ctx, requester, roster, func(context.Context) ([]models.RosterEntry, error) {
		return entries, nil
	})
	s.Metrics.Alignment(string(roster), outcome(err))
	return out, err
}

func (s *Scorer) rank(ctx context.Context, requester identity.Key, roster rosterstore.Name, load func(context.Context) ([]models.RosterEntry, error)) ([]Result, error) {
	user, err := s.Users.Get(ctx, requester)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apperr.NotFoundf(MessageUserNotFound)
	}
	if err != nil {
		s.Log.Error("alignment: load requester", zap.String("requester", requester.String()), zap.Error(err))
		return nil, apperr.InternalWrap("load requester", err)
	}
	sourceValues := user.MintedValueStrings()
	selfFID := user.FID()

	entries, err := load(ctx)
	if err != nil {
		s.Log.Error("alignment: list roster", zap.String("roster", string(roster)), zap.Error(err))
		return nil, apperr.InternalWrap("list roster", err)
	}

	fids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if n, ok := parseFID(e.FID); ok {
			fids = append(fids, n)
		}
	}
	partners, err := s.Users.GetByFIDs(ctx, fids)
	if err != nil {
		s.Log.Error("alignment: load roster users", zap.String("roster", string(roster)), zap.Error(err))
		return nil, apperr.InternalWrap("load roster users", err)
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		n, ok := parseFID(e.FID)
		if ok && selfFID != 0 && n == selfFID {
			continue
		}
		r := Result{FID: e.FID, Username: e.Username, Image: e.Image, Address: e.Address}
		if r.Address == nil {
			r.Address = []string{}
		}
		partner, found := partners[n]
		if !ok || !found {
			r.Messages = MessageUserNotFound
			results = append(results, r)
			continue
		}
		r.Alignment = Score(sourceValues, partner.MintedValueStrings())
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Alignment > results[j].Alignment
	})
	return results, nil
}

func parseFID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	if apperr.Is(err, apperr.NotFound) {
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
