// internal/app/features/profilecheck/routes.go
package profilecheck

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeCheck)
	return r
}
