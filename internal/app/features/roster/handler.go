package roster

import (
	"context"
	"encoding/json"
	"net/http"

	alignmentfeature "github.com/dalemusser/valuesdao/internal/app/features/alignment"
	alignsvc "github.com/dalemusser/valuesdao/internal/app/services/alignment"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.uber.org/zap"
)

// EntryRanker ranks a roster snapshot for a requester.
type EntryRanker interface {
	RankEntries(ctx context.Context, requester identity.Key, roster rosterstore.Name, entries []models.RosterEntry) ([]alignsvc.Result, error)
}

// Handler serves the pass-holder roster, plain or ranked for a requester.
type Handler struct {
	Rosters alignsvc.RosterLister
	Scorer  EntryRanker
	Log     *zap.Logger
}

func NewHandler(rosters alignsvc.RosterLister, scorer EntryRanker, logger *zap.Logger) *Handler {
	return &Handler{Rosters: rosters, Scorer: scorer, Log: logger}
}

type listResponse struct {
	Users  []models.RosterEntry `json:"users"`
	Status int                  `json:"status"`
}

type alignedResponse struct {
	Users        []alignsvc.RankedEntry `json:"users"`
	IsPassHolder bool                   `json:"isPassHolder"`
	Status       int                    `json:"status"`
}

// ServeList handles GET /api/farcon[?fc_meetup=1].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	name := rosterstore.Select(alignmentfeature.Flag(r.URL.Query().Get("fc_meetup")))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Rosters.List(ctx, name)
	if err != nil {
		h.Log.Error("roster list failed", zap.String("roster", string(name)), zap.Error(err))
		apperr.WriteJSON(w, apperr.InternalWrap("list roster", err))
		return
	}
	writeJSON(w, listResponse{Users: entries, Status: http.StatusOK})
}

// ServeAligned handles GET /api/farcon/aligned?fid=|email=[&fc_meetup=1][&q=term].
//
// The roster is read once, ranked for the requester, merged with the results
// and sorted by alignment; q filters by username. isPassHolder is true when
// the fid parameter appears on the roster.
func (h *Handler) ServeAligned(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requester, err := alignmentfeature.Requester(q)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	name := rosterstore.Select(alignmentfeature.Flag(q.Get("fc_meetup")))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "roster aligned")
	defer cancel()

	entries, err := h.Rosters.List(ctx, name)
	if err != nil {
		h.Log.Error("roster list failed", zap.String("roster", string(name)), zap.Error(err))
		apperr.WriteJSON(w, apperr.InternalWrap("list roster", err))
		return
	}
	results, err := h.Scorer.RankEntries(ctx, requester, name, entries)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	var passHolder bool
	if fid, ok := requester.(identity.FID); ok {
		passHolder = alignsvc.IsPassHolder(entries, fid.ID)
	}

	merged := alignsvc.FilterByUsername(alignsvc.Merge(entries, results), q.Get("q"))
	writeJSON(w, alignedResponse{Users: merged, IsPassHolder: passHolder, Status: http.StatusOK})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
