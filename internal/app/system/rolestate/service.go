package rolestate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/domain/models"
)

// UserStore is the slice of the user store the reconciler needs.
// FindByEmail returns (nil, nil) when no record exists.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ForceUnassigned(ctx context.Context, email string, at time.Time) error
	PromoteWaitListed(ctx context.Context, email string, at time.Time) error
}

// ResponseStore reads registration responses. LatestByEmail returns
// (nil, nil) when the user has never submitted one.
type ResponseStore interface {
	LatestByEmail(ctx context.Context, email string) (*models.RegistrationResponse, error)
}

// Auditor records corrective writes. Implementations must be nil-safe in
// spirit: auditing never fails the request.
type Auditor interface {
	RoleForcedUnassigned(ctx context.Context, email string, previous models.Role)
	RoleRepairedWaitListed(ctx context.Context, email string, previous models.Role)
}

// Service wraps the pure Reconcile with the store round-trips.
type Service struct {
	users     UserStore
	responses ResponseStore
	audit     Auditor
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(users UserStore, responses ResponseStore, audit Auditor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     users,
		responses: responses,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// Evaluate reads the user's record and latest response, reconciles, and
// applies any corrective write before returning the decision.
//
// Store failures come back as ErrUnavailable, never as an "incomplete"
// or "unassigned" verdict: a transient outage must not demote anyone,
// and no write is attempted when a read failed.
func (s *Service) Evaluate(ctx context.Context, email string) (Decision, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("rolestate: user read failed", zap.String("email", email), zap.Error(err))
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if u == nil {
		return Decision{}, ErrUserNotFound
	}

	latest, err := s.responses.LatestByEmail(ctx, email)
	if err != nil {
		s.logger.Error("rolestate: response read failed", zap.String("email", email), zap.Error(err))
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	delta, decision := Reconcile(Observations{
		Record:         u,
		LatestResponse: latest,
		Now:            s.now(),
	})

	switch delta.Kind {
	case DeltaForceUnassigned:
		if err := s.users.ForceUnassigned(ctx, email, s.now()); err != nil {
			s.logger.Error("rolestate: forced downgrade write failed",
				zap.String("email", email),
				zap.String("previous_role", delta.PreviousRole.String()),
				zap.Error(err))
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		s.logger.Warn("rolestate: forced role downgrade",
			zap.String("email", email),
			zap.String("previous_role", delta.PreviousRole.String()),
			zap.Strings("missing_fields", decision.Complete.MissingFields))
		if s.audit != nil {
			s.audit.RoleForcedUnassigned(ctx, email, delta.PreviousRole)
		}

	case DeltaRepairWaitListed:
		if err := s.users.PromoteWaitListed(ctx, email, s.now()); err != nil {
			s.logger.Error("rolestate: repair write failed",
				zap.String("email", email), zap.Error(err))
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		s.logger.Warn("rolestate: repaired stranded role",
			zap.String("email", email),
			zap.String("previous_role", delta.PreviousRole.String()),
			zap.String("new_role", models.RoleWaitListed.String()))
		if s.audit != nil {
			s.audit.RoleRepairedWaitListed(ctx, email, delta.PreviousRole)
		}
	}

	return decision, nil
}
