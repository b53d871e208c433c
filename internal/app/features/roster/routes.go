package roster

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/farcon.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/aligned", h.ServeAligned)
	return r
}
