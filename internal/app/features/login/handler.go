// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/system/auditlog"
	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/authutil"
	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/app/system/timeouts"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// genericLoginError is the one message every credential failure gets:
// unknown email, wrong password, and an out-of-set role must be
// indistinguishable to the caller.
const genericLoginError = "Invalid email or password"

// UserGetter is the slice of the user store the login path needs.
type UserGetter interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	Users      UserGetter
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(users UserGetter, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success    bool   `json:"success"`
	Role       string `json:"role,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ServeLogin answers GET /login for API clients that followed an auth
// redirect.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(loginResponse{Error: "authentication required"})
}

// HandleLoginPost verifies credentials and establishes a session.
// POST /login
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(loginResponse{Error: "invalid request body"})
		return
	}

	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		h.rejectGeneric(w, r, email, "missing credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.rejectGeneric(w, r, email, "user not found")
		return
	}
	if err != nil {
		h.Log.Error("login: user lookup failed", zap.String("email", email), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(loginResponse{Error: "service unavailable, try again"})
		return
	}

	if u.OAuthAccount || u.PasswordHash == nil {
		h.rejectGeneric(w, r, email, "no password credential")
		return
	}
	if !authutil.CheckPassword(req.Password, *u.PasswordHash) {
		h.rejectGeneric(w, r, email, "wrong password")
		return
	}
	if !u.Role.Valid() {
		h.rejectGeneric(w, r, email, "role outside the closed set")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.Log.Error("login: session write failed", zap.String("email", email), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(loginResponse{Error: "could not establish session"})
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, email, u.Role)

	_ = json.NewEncoder(w).Encode(loginResponse{
		Success:    true,
		Role:       u.Role.String(),
		RedirectTo: rolestate.RouteFor(u.Role),
	})
}

// rejectGeneric writes the byte-identical 401 shared by every credential
// failure. The real reason goes to the audit trail only.
func (h *Handler) rejectGeneric(w http.ResponseWriter, r *http.Request, email, reason string) {
	h.AuditLog.LoginFailed(r.Context(), r, email, reason)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(loginResponse{Error: genericLoginError})
}
