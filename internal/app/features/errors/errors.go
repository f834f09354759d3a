// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
)

// Handler is the errors feature handler: the JSON endpoints the auth
// middleware redirects browsers to.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden answers GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)

	signedIn := false
	role := ""
	if u, ok := auth.CurrentUser(r); ok {
		signedIn = true
		role = u.Role.String()
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":     "You don't have permission to view this page.",
		"signed_in": signedIn,
		"role":      role,
	})
}

// Unauthorized answers GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":       "Please sign in to continue.",
		"redirect_to": "/login",
	})
}
