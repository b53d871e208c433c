package alignment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	alignsvc "github.com/dalemusser/valuesdao/internal/app/services/alignment"
	rosterstore "github.com/dalemusser/valuesdao/internal/app/store/roster"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"go.uber.org/zap"
)

// Ranker ranks a roster for a requester.
type Ranker interface {
	Rank(ctx context.Context, requester identity.Key, roster rosterstore.Name) ([]alignsvc.Result, error)
}

// Handler serves the alignment query.
type Handler struct {
	Scorer Ranker
	Log    *zap.Logger
}

func NewHandler(scorer Ranker, logger *zap.Logger) *Handler {
	return &Handler{Scorer: scorer, Log: logger}
}

type alignmentResponse struct {
	Holders []alignsvc.Result `json:"holders"`
	Status  int               `json:"status"`
}

// ServeAlignment handles GET /api/alignment?fid=|email=[&fc_meetup=1].
//
//	200 {"holders":[...], "status":200}
//	400 {"error":"Missing parameters", "status":400}
//	404 {"error":"User not found", "status":404}
func (h *Handler) ServeAlignment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requester, err := Requester(q)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}
	roster := rosterstore.Select(Flag(q.Get("fc_meetup")))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "alignment rank")
	defer cancel()

	holders, err := h.Scorer.Rank(ctx, requester, roster)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alignmentResponse{Holders: holders, Status: http.StatusOK})
}

// Flag reads a presence-style query flag. Empty, "0" and "false" are off.
func Flag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

// Requester reads the requester identity from fid or email query
// parameters. Errors are BadRequest.
func Requester(q url.Values) (identity.Key, error) {
	k, err := identity.ParseRequester(q.Get("email"), q.Get("fid"))
	if errors.Is(err, identity.ErrMissing) {
		return nil, apperr.BadRequestf("Missing parameters")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err.Error(), err)
	}
	return k, nil
}
