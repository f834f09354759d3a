// internal/app/features/home/handler.go
package home

import (
	"encoding/json"
	"net/http"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
)

// Handler serves the root landing payload.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ServeHome answers GET /. Signed-in users get their landing route;
// everyone else is pointed at login.
func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if u, ok := auth.CurrentUser(r); ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"authenticated": true,
			"name":          u.Name,
			"role":          u.Role.String(),
			"redirect_to":   rolestate.RouteFor(u.Role),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"authenticated": false,
		"redirect_to":   "/login",
	})
}
