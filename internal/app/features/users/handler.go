package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/valuesdao/internal/app/store/users"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/app/system/htmlsanitize"
	"github.com/dalemusser/valuesdao/internal/app/system/inputval"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/valuesdao/internal/domain/identity"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// Store is the part of the user store these endpoints use.
type Store interface {
	Get(ctx context.Context, key identity.Key) (*models.User, error)
	AppendMintedValue(ctx context.Context, key identity.Key, mv models.MintedValue) (*models.User, error)
}

// Handler serves user lookups and minted-value records.
type Handler struct {
	Users Store
	Log   *zap.Logger
}

func NewHandler(users Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

type userResponse struct {
	Status int          `json:"status"`
	User   *models.User `json:"user"`
}

// ServeUser handles GET /api/user?fid=|email=|twitter=.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	key, err := lookupKey(r)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Get(ctx, key)
	if errors.Is(err, userstore.ErrNotFound) {
		apperr.WriteJSON(w, apperr.NotFoundf("User not found"))
		return
	}
	if err != nil {
		h.Log.Error("user lookup failed", zap.String("identity", key.String()), zap.Error(err))
		apperr.WriteJSON(w, apperr.InternalWrap("load user", err))
		return
	}
	writeJSON(w, userResponse{Status: http.StatusOK, User: u})
}

// valueRequest is the body of POST /api/value.
type valueRequest struct {
	Name  string `json:"name"`
	Value struct {
		Metadata models.ValueMetadata `json:"metadata"`
		CID      string               `json:"cid"`
	} `json:"value"`
}

// valueInput holds the sanitized fields checked before a value is stored.
type valueInput struct {
	Name  string `validate:"required,max=128" label:"name"`
	Image string `validate:"omitempty,httpurl,max=2048" label:"metadata.image"`
	CID   string `validate:"max=512" label:"cid"`
}

// ServeAddValue handles POST /api/value?fid=|email=|twitter=. It records a
// value the caller has minted. The same value may be recorded more than once.
func (h *Handler) ServeAddValue(w http.ResponseWriter, r *http.Request) {
	key, err := lookupKey(r)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	var req valueRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.BadRequestf("Invalid request body"))
		return
	}
	mv := models.MintedValue{
		Value: htmlsanitize.PlainText(req.Name),
		Metadata: models.ValueMetadata{
			Name:        htmlsanitize.PlainText(req.Value.Metadata.Name),
			Description: htmlsanitize.PlainText(req.Value.Metadata.Description),
			Image:       strings.TrimSpace(req.Value.Metadata.Image),
		},
		CID: strings.TrimSpace(req.Value.CID),
	}
	if res := inputval.Validate(valueInput{Name: mv.Value, Image: mv.Metadata.Image, CID: mv.CID}); res.HasErrors() {
		apperr.WriteJSON(w, apperr.BadRequestf("%s", res.First()))
		return
	}
	if mv.Metadata.Name == "" {
		mv.Metadata.Name = mv.Value
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.AppendMintedValue(ctx, key, mv)
	if errors.Is(err, userstore.ErrNotFound) {
		apperr.WriteJSON(w, apperr.NotFoundf("User not found"))
		return
	}
	if err != nil {
		h.Log.Error("append minted value failed", zap.String("identity", key.String()), zap.Error(err))
		apperr.WriteJSON(w, apperr.InternalWrap("save value", err))
		return
	}
	h.Log.Info("minted value recorded", zap.String("identity", key.String()), zap.String("value", mv.Value), zap.String("cid", mv.CID))
	writeJSON(w, userResponse{Status: http.StatusOK, User: u})
}

func lookupKey(r *http.Request) (identity.Key, error) {
	q := r.URL.Query()
	key, err := identity.FromQuery(q.Get("email"), q.Get("fid"), q.Get("twitter"))
	if errors.Is(err, identity.ErrMissing) {
		return nil, apperr.BadRequestf("Missing parameters")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err.Error(), err)
	}
	return key, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
