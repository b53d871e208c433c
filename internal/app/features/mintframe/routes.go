package mintframe

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter mounted under /frames/ai/mint-values.
// limit, if non-nil, throttles mint submissions only.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{fid}", h.ServePreview)
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/{fid}", h.ServeMint)
	})
	return r
}
