// Package auth authenticates API callers by the x-api-key header.
//
// Keys have the form "<prefix>.<secret>". The prefix is stored in clear and
// used for lookup; only a bcrypt hash of the secret is stored.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apikeystore "github.com/dalemusser/valuesdao/internal/app/store/apikeys"
	"github.com/dalemusser/valuesdao/internal/app/system/apperr"
	"github.com/dalemusser/valuesdao/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HeaderAPIKey carries the raw key.
const HeaderAPIKey = "x-api-key"

/*─────────────────────────────────────────────────────────────────────────────*
| Validation                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// KeyLookup loads a stored key by prefix.
type KeyLookup interface {
	GetByPrefix(ctx context.Context, prefix string) (models.APIKey, error)
}

// Validator checks raw keys against the key store.
type Validator struct {
	keys KeyLookup
	log  *zap.Logger
}

func NewValidator(keys KeyLookup, logger *zap.Logger) *Validator {
	return &Validator{keys: keys, log: logger}
}

// Validate returns the key for raw if it is active and grants scope.
// Missing or unknown keys are Unauthorized; a valid key without the scope is
// Forbidden.
func (v *Validator) Validate(ctx context.Context, raw, scope string) (*models.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.New(apperr.Unauthorized, "API key is required")
	}
	prefix, secret, ok := strings.Cut(raw, ".")
	if !ok || prefix == "" || secret == "" {
		return nil, apperr.New(apperr.Unauthorized, "Invalid API key")
	}

	k, err := v.keys.GetByPrefix(ctx, prefix)
	if errors.Is(err, apikeystore.ErrNotFound) {
		return nil, apperr.New(apperr.Unauthorized, "Invalid API key")
	}
	if err != nil {
		v.log.Error("api key lookup failed", zap.String("prefix", prefix), zap.Error(err))
		return nil, apperr.InternalWrap("api key lookup", err)
	}
	if k.Status != apikeystore.StatusActive {
		return nil, apperr.New(apperr.Unauthorized, "API key is revoked")
	}
	if bcrypt.CompareHashAndPassword([]byte(k.SecretHash), []byte(secret)) != nil {
		return nil, apperr.New(apperr.Unauthorized, "Invalid API key")
	}
	if !k.HasScope(scope) {
		return nil, apperr.New(apperr.Forbidden, "API key does not have "+scope+" scope")
	}
	return &k, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentKeyKey ctxKey = "currentAPIKey"

// CurrentKey returns the validated key injected by RequireScope.
func CurrentKey(r *http.Request) (*models.APIKey, bool) {
	k, ok := r.Context().Value(currentKeyKey).(*models.APIKey)
	return k, ok
}

// RequireScope rejects requests whose x-api-key does not grant scope.
// Rejections are written as JSON {"error", "status"}.
func (v *Validator) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k, err := v.Validate(r.Context(), r.Header.Get(HeaderAPIKey), scope)
			if err != nil {
				apperr.WriteJSON(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), currentKeyKey, k)))
		})
	}
}
