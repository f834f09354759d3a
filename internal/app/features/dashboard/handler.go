// internal/app/features/dashboard/handler.go
package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Handler serves the role-scoped dashboard landing payload. The screens
// themselves live in the frontend; this endpoint only confirms the
// caller is allowed to be on the requested dashboard.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type landingResponse struct {
	Role       string `json:"role,omitempty"`
	Name       string `json:"name,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ServeLanding answers GET /dashboard/{role}. A caller on the wrong
// dashboard is pointed at the right one rather than shown an error.
func (h *Handler) ServeLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	u, ok := auth.CurrentUser(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(landingResponse{Error: "not authenticated", RedirectTo: "/login"})
		return
	}

	requested, valid := models.ParseRole(chi.URLParam(r, "role"))
	if !valid || !requested.Granted() {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(landingResponse{Error: "no such dashboard"})
		return
	}

	if u.Role != requested {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(landingResponse{
			Error:      "wrong dashboard for your role",
			RedirectTo: rolestate.RouteFor(u.Role),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(landingResponse{
		Role: u.Role.String(),
		Name: u.Name,
	})
}
