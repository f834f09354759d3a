// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/otman-dev/farmlab/internal/app/store/oauthstate"
	userstore "github.com/otman-dev/farmlab/internal/app/store/users"
	"github.com/otman-dev/farmlab/internal/app/system/auditlog"
	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/app/system/timeouts"
	"github.com/otman-dev/farmlab/internal/app/system/transfertoken"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Tokens     *transfertoken.Codec

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://farmlab.example.com/auth/google/callback"

	// FrontendRedirect is where the callback lands the browser; the
	// transfer token rides along as a query parameter so the client can
	// finish registration before the session round-trips.
	FrontendRedirect string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	stateStore *oauthstate.Store,
	tokens *transfertoken.Codec,
	clientID, clientSecret, baseURL, frontendRedirect string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:            users,
		Log:              logger,
		SessionMgr:       sessionMgr,
		AuditLog:         audit,
		StateStore:       stateStore,
		Tokens:           tokens,
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		RedirectURL:      baseURL + "/auth/google/callback",
		FrontendRedirect: frontendRedirect,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin initiates the Google OAuth flow by redirecting to Google's
// consent screen. GET /auth/google
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	authURL := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", authURL),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// ServeCallback handles the OAuth callback from Google: exchanges the
// code, fetches user info, upserts the user record, signs the session
// in, and hands the browser back to the frontend with a transfer token.
// GET /auth/google/callback
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}
	if googleUser.Email == "" {
		h.Log.Warn("Google user info carried no email")
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	user, created, err := h.upsertUser(ctxTimeout, googleUser)
	if err != nil {
		h.Log.Error("failed to upsert OAuth user", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.Log.Error("failed to create session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.AuditLog.OAuthSignIn(ctx, r, user.Email, models.ProviderGoogle, created)

	h.redirectToFrontend(w, r, user, returnURL)
}

// upsertUser finds the user by email or creates a bare OAuth account.
// A brand-new account starts unassigned; the transfer token never
// changes that.
func (h *Handler) upsertUser(ctx context.Context, gu *googleUserInfo) (*models.User, bool, error) {
	email := normalize.Email(gu.Email)

	existing, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	created, err := h.Users.CreateOAuthUser(ctx, email, gu.Name, models.ProviderGoogle)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Lost a race with a concurrent callback; the other insert won.
		existing, ferr := h.Users.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &created, true, nil
}

// redirectToFrontend sends the browser to the frontend landing path with
// the transfer token attached, so the client can call the registration
// endpoints before its session cookie has round-tripped.
func (h *Handler) redirectToFrontend(w http.ResponseWriter, r *http.Request, user *models.User, returnURL string) {
	dest := urlutil.SafeReturn(returnURL, "", h.FrontendRedirect)

	encoded, err := h.Tokens.Encode(transfertoken.Claims{
		Email:    user.Email,
		Role:     user.Role,
		Provider: models.ProviderGoogle,
	})
	if err != nil {
		// The session is already set; the token is only a convenience.
		h.Log.Error("failed to encode transfer token", zap.Error(err))
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}

	sep := "?"
	if u, perr := url.Parse(dest); perr == nil && u.RawQuery != "" {
		sep = "&"
	}
	http.Redirect(w, r, dest+sep+transfertoken.QueryParam+"="+url.QueryEscape(encoded), http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState produces a cryptographically random state parameter.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
