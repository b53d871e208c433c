package alignment

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/alignment.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeAlignment)
	return r
}
