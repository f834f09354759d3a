// internal/app/features/waiting/handler.go
package waiting

import (
	"encoding/json"
	"net/http"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Handler serves the wait-list holding area: profile complete, role not
// yet granted by an admin.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ServeWaiting answers GET /waiting.
func (h *Handler) ServeWaiting(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, ok := auth.CurrentUser(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "not authenticated", "redirect_to": "/login"})
		return
	}

	// Users who should not be here get pointed at their real landing.
	if u.Role != models.RoleWaitListed {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"waiting":     false,
			"redirect_to": rolestate.RouteFor(u.Role),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"waiting": true,
		"name":    u.Name,
		"message": "Your registration is complete and awaiting review.",
	})
}
