// internal/app/features/waiting/routes.go
package waiting

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeWaiting)
	return r
}
