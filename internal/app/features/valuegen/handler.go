package valuegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	valuegensvc "github.com/dalemusser/valuesdao/internal/app/services/valuegen"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.uber.org/zap"
)

// Generator runs the value generation pipeline.
type Generator interface {
	Generate(ctx context.Context, sel identity.Selection) (*valuegensvc.Result, error)
}

// Handler serves value generation requests.
type Handler struct {
	Pipeline Generator
	Log      *zap.Logger
}

func NewHandler(p Generator, logger *zap.Logger) *Handler {
	return &Handler{Pipeline: p, Log: logger}
}

type generateResponse struct {
	Status int          `json:"status"`
	User   *models.User `json:"user"`
}

// ServeGenerate handles GET /api/v2/generate-user-value.
//
// Query: fid, or twitter with twitter_userId; email is optional and only
// recorded when the user is created. A fid takes precedence over twitter.
//
//	200 {"status":200, "user":{...}}
//	400 {"error":"User has less than 100 casts", "reason":"insufficient_casts", "status":400}
func (h *Handler) ServeGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := identity.ForGeneration(q.Get("email"), q.Get("fid"), q.Get("twitter"), q.Get("twitter_userId"))
	if err != nil {
		apperr.WriteJSON(w, selectionError(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "generate user values")
	defer cancel()

	res, err := h.Pipeline.Generate(ctx, sel)
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			h.Log.Error("value generation failed", zap.String("identity", sel.Key.String()), zap.Error(err))
		}
		apperr.WriteJSON(w, err)
		return
	}

	h.Log.Info("values generated",
		zap.String("identity", sel.Key.String()),
		zap.String("source", sel.Source),
		zap.Bool("persisted", res.Persisted),
		zap.Int("count", len(res.Generated)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(generateResponse{Status: http.StatusOK, User: res.User})
}

func selectionError(err error) error {
	switch {
	case errors.Is(err, identity.ErrMissing):
		return apperr.BadRequestf("farcaster fid or Twitter handle is required")
	case errors.Is(err, identity.ErrTwitterUserIDRequired):
		return apperr.BadRequestf("twitter_userId is required with a Twitter handle")
	default:
		return apperr.Wrap(apperr.BadRequest, err.Error(), err)
	}
}
