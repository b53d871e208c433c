// Package mintframe serves the Farcaster frame that previews a user's
// generated values and mints them on the frame's button press.
package mintframe

import (
	"context"
	"net/http"

	"github.com/dalemusser/valuesdao/internal/app/services/mint"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Orchestrator is the mint workflow the frame drives.
type Orchestrator interface {
	Preview(ctx context.Context, fid int64) mint.Preview
	Mint(ctx context.Context, fid int64) (*mint.Minted, error)
}

type Handler struct {
	Mint Orchestrator
	Log  *zap.Logger
}

func NewHandler(o Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{Mint: o, Log: logger}
}

func (h *Handler) fid(w http.ResponseWriter, r *http.Request) (int64, bool) {
	k, err := identity.ParseFID(chi.URLParam(r, "fid"))
	if err != nil {
		apperr.WriteJSON(w, apperr.BadRequestf("fid must be a positive integer"))
		return 0, false
	}
	return k.ID, true
}

// ServePreview handles GET /frames/ai/mint-values/{fid}. A user without
// values still gets a frame, with an empty image.
func (h *Handler) ServePreview(w http.ResponseWriter, r *http.Request) {
	fid, ok := h.fid(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p := h.Mint.Preview(ctx, fid)
	if err := render(w, "preview", p); err != nil {
		h.Log.Error("render preview frame", zap.Int64("fid", fid), zap.Error(err))
	}
}

// ServeMint handles POST /frames/ai/mint-values/{fid}: one mint attempt,
// then the frame linking to the transaction.
func (h *Handler) ServeMint(w http.ResponseWriter, r *http.Request) {
	fid, ok := h.fid(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Mint(), h.Log, "mint values")
	defer cancel()

	m, err := h.Mint.Mint(ctx, fid)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	if err := render(w, "minted", m); err != nil {
		h.Log.Error("render minted frame",
			zap.Int64("fid", fid),
			zap.String("tx_hash", m.TxHash),
			zap.Error(err))
	}
}
