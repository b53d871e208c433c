package users

import (
	"net/http"

	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// ScopeGuard returns middleware that requires an API key with scope.
type ScopeGuard func(scope string) func(http.Handler) http.Handler

// Routes returns a subrouter mounted under /api/user.
func Routes(h *Handler, require ScopeGuard) chi.Router {
	r := chi.NewRouter()
	r.With(require(models.ScopeRead)).Get("/", h.ServeUser)
	return r
}

// ValueRoutes returns a subrouter mounted under /api/value.
func ValueRoutes(h *Handler, require ScopeGuard) chi.Router {
	r := chi.NewRouter()
	r.With(require(models.ScopeWrite)).Post("/", h.ServeAddValue)
	return r
}
