// internal/app/features/debug/routes.go
package debug

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/rolestate", h.ServeRoleState)
	return r
}
