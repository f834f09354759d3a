// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/otman-dev/farmlab/internal/app/features/authgoogle"
	dashboardfeature "github.com/otman-dev/farmlab/internal/app/features/dashboard"
	debugfeature "github.com/otman-dev/farmlab/internal/app/features/debug"
	errorsfeature "github.com/otman-dev/farmlab/internal/app/features/errors"
	healthfeature "github.com/otman-dev/farmlab/internal/app/features/health"
	homefeature "github.com/otman-dev/farmlab/internal/app/features/home"
	loginfeature "github.com/otman-dev/farmlab/internal/app/features/login"
	logoutfeature "github.com/otman-dev/farmlab/internal/app/features/logout"
	profilecheckfeature "github.com/otman-dev/farmlab/internal/app/features/profilecheck"
	registerfeature "github.com/otman-dev/farmlab/internal/app/features/register"
	waitingfeature "github.com/otman-dev/farmlab/internal/app/features/waiting"
	"github.com/otman-dev/farmlab/internal/app/store/audit"
	"github.com/otman-dev/farmlab/internal/app/store/oauthstate"
	"github.com/otman-dev/farmlab/internal/app/store/regresponses"
	userstore "github.com/otman-dev/farmlab/internal/app/store/users"
	"github.com/otman-dev/farmlab/internal/app/system/auditlog"
	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/rolestate"
	"github.com/otman-dev/farmlab/internal/app/system/transfertoken"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// FarmLab wires the session manager, transfer token codec, audit logger,
// and role reconciler, then mounts feature routers for registration,
// authentication, profile checks, and role dashboards.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. Role corrections take effect immediately this way.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.FarmLabMongoDatabase))

	tokens, err := transfertoken.NewCodec(appCfg.TransferTokenKey, appCfg.TransferTokenTTL)
	if err != nil {
		logger.Error("transfer token codec init failed", zap.Error(err))
		return nil, err
	}

	// Stores
	usersStore := userstore.New(deps.FarmLabMongoDatabase)
	responses := regresponses.New(deps.FarmLabMongoDatabase)
	auditStore := audit.New(deps.FarmLabMongoDatabase)
	stateStore := oauthstate.New(deps.FarmLabMongoDatabase)

	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth: appCfg.AuditLogAuth,
		Role: appCfg.AuditLogRole,
	})

	// The reconciler corrects role/completeness drift wherever identity is
	// evaluated.
	roleSvc := rolestate.NewService(usersStore, responses, auditLog, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.FarmLabMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Public pages
	homeHandler := homefeature.NewHandler()
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(usersStore, sessionMgr, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(
			usersStore, sessionMgr, auditLog, stateStore, tokens,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret,
			appCfg.BaseURL, appCfg.FrontendRedirect, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	} else {
		logger.Warn("Google OAuth disabled: google_client_id not configured")
	}

	// Registration intake
	registerHandler := registerfeature.NewHandler(usersStore, responses, tokens, auditLog, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	// Profile completeness check; accepts session or transfer token identity
	checkHandler := profilecheckfeature.NewHandler(roleSvc, tokens, logger)
	r.Mount("/api/profile/check", profilecheckfeature.Routes(checkHandler))

	// Admin-only read view of the reconciler's pending decision for a user
	debugHandler := debugfeature.NewHandler(usersStore, responses, logger)
	r.With(sessionMgr.RequireSignedIn, sessionMgr.RequireRole(models.RoleAdmin)).
		Mount("/api/debug", debugfeature.Routes(debugHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Role-based dashboards
	dashboardHandler := dashboardfeature.NewHandler(logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	// Wait-listed landing page
	waitingHandler := waitingfeature.NewHandler()
	r.Mount("/waiting", waitingfeature.Routes(waitingHandler))

	return r, nil
}
