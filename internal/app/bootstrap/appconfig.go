// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to FarmLab lives: database
// connection strings, OAuth credentials, transfer token settings, and
// audit logging modes.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: farmlab-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL of this service; used to build the OAuth callback URL.
	BaseURL string // e.g., "https://farmlab.example.com" or "http://localhost:3000"

	// FrontendRedirect is where the OAuth callback lands the browser
	// when no explicit return URL was requested.
	FrontendRedirect string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Transfer token configuration. The token carries identity from the
	// OAuth callback to the registration flow before the session cookie
	// has round-tripped.
	TransferTokenKey string        // HMAC signing key
	TransferTokenTTL time.Duration // Token lifetime (e.g., 10m)

	// Audit logging configuration: "all" (db+log), "db", "log", or "off"
	AuditLogAuth string // login/logout/OAuth events
	AuditLogRole string // role corrections and registration events
}
