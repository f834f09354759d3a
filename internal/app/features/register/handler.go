// internal/app/features/register/handler.go
package register

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	userstore "github.com/otman-dev/farmlab/internal/app/store/users"
	"github.com/otman-dev/farmlab/internal/app/system/auditlog"
	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/authutil"
	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/app/system/timeouts"
	"github.com/otman-dev/farmlab/internal/app/system/transfertoken"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Field names as they appear in validation error messages. Country gets
// its own message because it is the field OAuth providers never supply.
const (
	msgMissingFullName  = "Missing required field: Full Name"
	msgMissingCountry   = "Missing required field: Country"
	msgMissingInterests = "Missing required field: Interest Roles"
)

// UserStore is the slice of the user store registration needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	CompleteRegistration(ctx context.Context, email string, upd userstore.CompletionUpdate) error
}

// ResponseStore appends registration response snapshots.
type ResponseStore interface {
	Insert(ctx context.Context, resp models.RegistrationResponse) (models.RegistrationResponse, error)
}

type Handler struct {
	Users     UserStore
	Responses ResponseStore
	Tokens    *transfertoken.Codec
	AuditLog  *auditlog.Logger
	Log       *zap.Logger

	sanitize *bluemonday.Policy
	now      func() time.Time
}

func NewHandler(users UserStore, responses ResponseStore, tokens *transfertoken.Codec, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:     users,
		Responses: responses,
		Tokens:    tokens,
		AuditLog:  audit,
		Log:       logger,
		sanitize:  bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

type errorResponse struct {
	Error      string `json:"error"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, redirectTo string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, RedirectTo: redirectTo})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register: direct credential signup                                     |
*─────────────────────────────────────────────────────────────────────────────*/

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type signupResponse struct {
	Success    bool   `json:"success"`
	RedirectTo string `json:"redirect_to"`
}

// HandleSignup creates a credential account. The new account starts
// unassigned and still has to pass through profile completion.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	email := normalize.Email(req.Email)
	if !authutil.IsValidEmail(email) {
		writeError(w, http.StatusBadRequest, "a valid email is required", "")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("signup: hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, err = h.Users.Create(ctx, models.User{
		Email:        email,
		FullName:     h.sanitize.Sanitize(strings.TrimSpace(req.FullName)),
		PasswordHash: &hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		writeError(w, http.StatusConflict, "an account with this email already exists", "/login")
		return
	}
	if err != nil {
		h.Log.Error("signup: create failed", zap.String("email", email), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable, try again", "")
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(signupResponse{
		Success:    true,
		RedirectTo: rolestate.RouteCompleteProfile,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register/complete: profile completion intake                           |
*─────────────────────────────────────────────────────────────────────────────*/

type completeRequest struct {
	Email         string   `json:"email,omitempty"`
	FullName      string   `json:"full_name"`
	Country       string   `json:"country"`
	InterestRoles []string `json:"interest_roles"`
	Phone         string   `json:"phone,omitempty"`
	Password      string   `json:"password,omitempty"`
	Token         string   `json:"token,omitempty"`
}

type completeResponse struct {
	Success      bool   `json:"success"`
	PreviousRole string `json:"previousRole"`
	CurrentRole  string `json:"currentRole"`
	RedirectTo   string `json:"redirectTo"`
}

// HandleComplete accepts a profile-completion submission, merges it into
// the user record, advances the role from unassigned to wait_listed, and
// appends a response snapshot.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	var su *auth.SessionUser
	if u, ok := auth.CurrentUser(r); ok {
		su = u
	}
	tok, _ := h.Tokens.FromRequest(r, req.Token)

	email, channel, err := rolestate.ResolveIdentity(su, tok)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authenticated", "")
		return
	}

	// A body-declared email must match the acting identity. This is the
	// cross-identity substitution check for the token path.
	if req.Email != "" && normalize.Email(req.Email) != normalize.Email(email) {
		writeError(w, http.StatusForbidden, "identity mismatch", "")
		return
	}

	sub, msg := h.validate(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		h.Log.Error("complete: user read failed", zap.String("email", email), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable, try again", "")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found", "")
		return
	}

	// Guard: completion is only a self-transition out of unassigned. The
	// persisted record decides; a token can authenticate the identity but
	// never reopens a finished registration.
	if u.Role != models.RoleUnassigned {
		writeError(w, http.StatusConflict, "profile already completed", rolestate.RouteFor(u.Role))
		return
	}

	upd := userstore.CompletionUpdate{
		FullName:      sub.fullName,
		Country:       sub.country,
		InterestRoles: sub.interests,
		Phone:         sub.phone,
		At:            h.now().UTC(),
	}
	if req.Password != "" && !u.OAuthAccount {
		hash, herr := authutil.HashPassword(req.Password)
		if herr != nil {
			h.Log.Error("complete: hash failed", zap.Error(herr))
			writeError(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		upd.PasswordHash = &hash
	}

	if err := h.Users.CompleteRegistration(ctx, email, upd); err != nil {
		h.Log.Error("complete: user update failed", zap.String("email", email), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable, try again", "")
		return
	}

	_, err = h.Responses.Insert(ctx, models.RegistrationResponse{
		Email:         email,
		FullName:      sub.fullName,
		Country:       sub.country,
		InterestRoles: sub.interests,
		Phone:         sub.phone,
		PreviousRole:  models.RoleUnassigned,
		NewRole:       models.RoleWaitListed,
		AuthChannel:   channel,
		SubmittedAt:   upd.At,
	})
	if err != nil {
		// The role write landed but the snapshot did not. Verify the
		// record and re-write if the first write was lost too; never
		// report success over a record the evaluator would call
		// incomplete.
		h.Log.Error("complete: response insert failed", zap.String("email", email), zap.Error(err))
		if rerr := h.repairAfterInsertFailure(ctx, r, email, upd); rerr != nil {
			writeError(w, http.StatusServiceUnavailable, "service unavailable, try again", "")
			return
		}
	}

	h.AuditLog.RegistrationCompleted(ctx, r, email, models.RoleUnassigned, models.RoleWaitListed, channel)

	_ = json.NewEncoder(w).Encode(completeResponse{
		Success:      true,
		PreviousRole: models.RoleUnassigned.String(),
		CurrentRole:  models.RoleWaitListed.String(),
		RedirectTo:   rolestate.RouteWaiting,
	})
}

// repairAfterInsertFailure re-reads the record after a failed snapshot
// insert and re-applies the completion write if it did not persist.
func (h *Handler) repairAfterInsertFailure(ctx context.Context, r *http.Request, email string, upd userstore.CompletionUpdate) error {
	u, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u != nil && u.Role == models.RoleWaitListed && u.RegistrationCompleted {
		h.AuditLog.RegistrationRepair(ctx, r, email, "response insert failed; user record intact")
		return nil
	}

	h.Log.Warn("complete: role write did not persist, re-writing",
		zap.String("email", email))
	if err := h.Users.CompleteRegistration(ctx, email, upd); err != nil {
		return err
	}
	h.AuditLog.RegistrationRepair(ctx, r, email, "response insert failed; user record re-written")
	return nil
}

type submission struct {
	fullName  string
	country   string
	interests []string
	phone     string
}

// validate sanitizes and checks the mandatory intake fields, returning
// the cleaned submission or the message for the first missing field.
func (h *Handler) validate(req completeRequest) (submission, string) {
	var sub submission
	sub.fullName = h.sanitize.Sanitize(strings.TrimSpace(req.FullName))
	sub.country = h.sanitize.Sanitize(normalize.Country(req.Country))
	sub.phone = h.sanitize.Sanitize(strings.TrimSpace(req.Phone))
	for _, ir := range req.InterestRoles {
		if cleaned := h.sanitize.Sanitize(strings.TrimSpace(ir)); cleaned != "" {
			sub.interests = append(sub.interests, cleaned)
		}
	}

	if sub.fullName == "" {
		return sub, msgMissingFullName
	}
	if sub.country == "" {
		return sub, msgMissingCountry
	}
	if len(sub.interests) == 0 {
		return sub, msgMissingInterests
	}
	return sub, ""
}
