// internal/app/features/debug/handler.go
package debug

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/app/system/timeouts"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// UserStore exposes the reads the inspector needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ResponseStore reads the latest registration response.
type ResponseStore interface {
	LatestByEmail(ctx context.Context, email string) (*models.RegistrationResponse, error)
}

// Handler exposes a read-only view of the role state machine for a
// given user. Admin only; it runs the pure reconciler WITHOUT applying
// the delta, so operators can see what the next evaluation would do.
type Handler struct {
	Users     UserStore
	Responses ResponseStore
	Log       *zap.Logger
}

func NewHandler(users UserStore, responses ResponseStore, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Responses: responses, Log: logger}
}

type stateResponse struct {
	Email          string                       `json:"email"`
	RecordRole     string                       `json:"record_role"`
	Completeness   rolestate.Completeness       `json:"completeness"`
	PendingChange  string                       `json:"pending_change"`
	Decision       rolestate.Decision           `json:"decision"`
	LatestResponse *models.RegistrationResponse `json:"latest_response,omitempty"`
	Error          string                       `json:"error,omitempty"`
}

func deltaName(k rolestate.DeltaKind) string {
	switch k {
	case rolestate.DeltaForceUnassigned:
		return "force_unassigned"
	case rolestate.DeltaRepairWaitListed:
		return "repair_wait_listed"
	default:
		return "none"
	}
}

// ServeRoleState answers GET /api/debug/rolestate?email=...
func (h *Handler) ServeRoleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	email := normalize.Email(r.URL.Query().Get("email"))
	if email == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(stateResponse{Error: "email query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		h.Log.Error("rolestate inspect: user read failed", zap.String("email", email), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(stateResponse{Error: "service unavailable, try again"})
		return
	}
	if u == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(stateResponse{Error: "user not found"})
		return
	}

	latest, err := h.Responses.LatestByEmail(ctx, email)
	if err != nil {
		h.Log.Error("rolestate inspect: response read failed", zap.String("email", email), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(stateResponse{Error: "service unavailable, try again"})
		return
	}

	delta, decision := rolestate.Reconcile(rolestate.Observations{
		Record:         u,
		LatestResponse: latest,
	})

	_ = json.NewEncoder(w).Encode(stateResponse{
		Email:          email,
		RecordRole:     u.Role.String(),
		Completeness:   rolestate.EvaluateCompleteness(u, latest),
		PendingChange:  deltaName(delta.Kind),
		Decision:       decision,
		LatestResponse: latest,
	})
}
