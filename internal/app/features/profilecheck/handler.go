// internal/app/features/profilecheck/handler.go
package profilecheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/app/system/timeouts"
	"github.com/otman-dev/farmlab/internal/app/system/transfertoken"
)

// Evaluator runs a reconciliation pass for an identity.
type Evaluator interface {
	Evaluate(ctx context.Context, email string) (rolestate.Decision, error)
}

type Handler struct {
	Roles  Evaluator
	Tokens *transfertoken.Codec
	Log    *zap.Logger
}

func NewHandler(roles Evaluator, tokens *transfertoken.Codec, logger *zap.Logger) *Handler {
	return &Handler{Roles: roles, Tokens: tokens, Log: logger}
}

type checkResponse struct {
	IsComplete    bool     `json:"isComplete"`
	Role          string   `json:"role,omitempty"`
	ForceRedirect bool     `json:"forceRedirect,omitempty"`
	RedirectTo    string   `json:"redirectTo,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// ServeCheck answers "is this profile complete, and where should the
// client go next." Running it also applies any pending corrective write,
// so the answer reflects the repaired record, not the stale one.
// GET /api/profile/check
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var su *auth.SessionUser
	if u, ok := auth.CurrentUser(r); ok {
		su = u
	}
	tok, _ := h.Tokens.FromRequest(r, "")

	email, channel, err := rolestate.ResolveIdentity(su, tok)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(checkResponse{Error: "not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	decision, err := h.Roles.Evaluate(ctx, email)
	switch {
	case errors.Is(err, rolestate.ErrUserNotFound):
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(checkResponse{Error: "user not found"})
		return
	case errors.Is(err, rolestate.ErrUnavailable):
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(checkResponse{Error: "service unavailable, try again"})
		return
	case err != nil:
		h.Log.Error("profile check failed", zap.String("email", email), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(checkResponse{Error: "internal error"})
		return
	}

	h.Log.Debug("profile check",
		zap.String("email", email),
		zap.String("channel", channel),
		zap.String("role", decision.Role.String()),
		zap.Bool("complete", decision.Complete.Complete),
		zap.Bool("forced", decision.Forced))

	_ = json.NewEncoder(w).Encode(checkResponse{
		IsComplete:    decision.Complete.Complete,
		Role:          decision.Role.String(),
		ForceRedirect: decision.Forced,
		RedirectTo:    decision.RedirectTo,
		MissingFields: decision.Complete.MissingFields,
	})
}
