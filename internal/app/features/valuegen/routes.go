package valuegen

import (
	"net/http"

	"github.com/dalemusser/valuesdao/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter mounted under /api/v2/generate-user-value.
// requireScope guards the endpoint with a READ API key; limit, if non-nil,
// throttles callers before any work is done.
func Routes(h *Handler, requireScope func(string) func(http.Handler) http.Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireScope(models.ScopeRead))
	if limit != nil {
		r.Use(limit)
	}
	r.Get("/", h.ServeGenerate)
	return r
}
