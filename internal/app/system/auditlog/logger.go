// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/store/audit"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, OAuth).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Role controls logging for role lifecycle events (registration,
	// forced downgrades, repairs).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Role string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryRole:
		setting = l.config.Role
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful credential login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, email string, role models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		Email:     email,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"role": role.String(),
		},
	})
}

// LoginFailed logs a rejected credential login. The reason is recorded
// for audit even though the HTTP response is deliberately generic.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, attemptedEmail, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		Email:         attemptedEmail,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Email:     email,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// OAuthSignIn logs a completed OAuth callback, new account or returning.
func (l *Logger) OAuthSignIn(ctx context.Context, r *http.Request, email, provider string, created bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventOAuthSignIn,
		Email:     email,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"provider":        provider,
			"account_created": boolString(created),
		},
	})
}

// --- Role Lifecycle Events ---

// RegistrationCompleted logs a successful profile-completion submission.
func (l *Logger) RegistrationCompleted(ctx context.Context, r *http.Request, email string, previous, next models.Role, channel string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRole,
		EventType: audit.EventRegistrationCompleted,
		Email:     email,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"previous_role": previous.String(),
			"new_role":      next.String(),
			"auth_channel":  channel,
		},
	})
}

// RegistrationRepair logs a corrective re-write performed by the intake
// handler after its second write failed to land.
func (l *Logger) RegistrationRepair(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryRole,
		EventType:     audit.EventRegistrationRepair,
		Email:         email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       true,
		FailureReason: reason,
	})
}

// RoleForcedUnassigned logs a reconciler-initiated downgrade.
func (l *Logger) RoleForcedUnassigned(ctx context.Context, email string, previous models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRole,
		EventType: audit.EventRoleForcedUnassigned,
		Email:     email,
		Success:   true,
		Details: map[string]string{
			"previous_role": previous.String(),
			"new_role":      models.RoleUnassigned.String(),
		},
	})
}

// RoleRepairedWaitListed logs a reconciler repair of a stranded role.
func (l *Logger) RoleRepairedWaitListed(ctx context.Context, email string, previous models.Role) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryRole,
		EventType: audit.EventRoleRepairedWaitListed,
		Email:     email,
		Success:   true,
		Details: map[string]string{
			"previous_role": previous.String(),
			"new_role":      models.RoleWaitListed.String(),
		},
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
