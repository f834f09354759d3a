// internal/app/features/logout/handler.go
package logout

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/system/auditlog"
	"github.com/otman-dev/farmlab/internal/app/system/auth"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, AuditLog: audit, Log: logger}
}

// HandleLogout clears the session. POST /logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.Email)
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: session clear failed", zap.Error(err))
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"redirect_to": "/login",
	})
}
