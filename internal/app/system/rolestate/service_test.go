package rolestate

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/domain/models"
)

type fakeUsers struct {
	user     *models.User
	findErr  error
	writeErr error

	forced   int
	promoted int
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.user == nil || f.user.Email != email {
		return nil, nil
	}
	return f.user, nil
}

func (f *fakeUsers) ForceUnassigned(_ context.Context, _ string, at time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.forced++
	f.user.Role = models.RoleUnassigned
	f.user.RegistrationCompleted = false
	f.user.ForcedProfileCompletion = true
	f.user.RoleFixedAt = &at
	return nil
}

func (f *fakeUsers) PromoteWaitListed(_ context.Context, _ string, at time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.promoted++
	f.user.Role = models.RoleWaitListed
	f.user.RegistrationCompleted = true
	f.user.ForcedProfileCompletion = false
	f.user.RoleFixedAt = &at
	return nil
}

type fakeResponses struct {
	latest *models.RegistrationResponse
	err    error
}

func (f *fakeResponses) LatestByEmail(context.Context, string) (*models.RegistrationResponse, error) {
	return f.latest, f.err
}

type fakeAudit struct {
	forced   int
	repaired int
}

func (f *fakeAudit) RoleForcedUnassigned(context.Context, string, models.Role)   { f.forced++ }
func (f *fakeAudit) RoleRepairedWaitListed(context.Context, string, models.Role) { f.repaired++ }

func TestServiceEvaluateForcesDowngrade(t *testing.T) {
	u := completeUser(models.RoleVisitor)
	u.Country = ""
	users := &fakeUsers{user: u}
	audit := &fakeAudit{}
	svc := NewService(users, &fakeResponses{}, audit, zap.NewNop())

	decision, err := svc.Evaluate(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !decision.Forced || decision.Role != models.RoleUnassigned {
		t.Errorf("decision = %+v, want forced unassigned", decision)
	}
	if users.forced != 1 {
		t.Errorf("ForceUnassigned called %d times, want 1", users.forced)
	}
	if audit.forced != 1 {
		t.Errorf("audit forced = %d, want 1", audit.forced)
	}
	if u.Role != models.RoleUnassigned || u.RegistrationCompleted {
		t.Errorf("record not corrected: %+v", u)
	}
}

func TestServiceEvaluateRepairsAndIsIdempotent(t *testing.T) {
	u := completeUser(models.RoleUnassigned)
	resp := &models.RegistrationResponse{Email: u.Email, SubmittedAt: time.Now()}
	users := &fakeUsers{user: u}
	audit := &fakeAudit{}
	svc := NewService(users, &fakeResponses{latest: resp}, audit, zap.NewNop())

	decision, err := svc.Evaluate(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if decision.Role != models.RoleWaitListed {
		t.Fatalf("role = %q, want wait_listed", decision.Role)
	}
	if users.promoted != 1 || audit.repaired != 1 {
		t.Fatalf("promoted=%d audited=%d, want 1/1", users.promoted, audit.repaired)
	}

	// Second evaluation sees the repaired record and writes nothing.
	decision, err = svc.Evaluate(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if decision.Role != models.RoleWaitListed {
		t.Errorf("role = %q after second run, want wait_listed", decision.Role)
	}
	if users.promoted != 1 || audit.repaired != 1 {
		t.Errorf("second run wrote again: promoted=%d audited=%d", users.promoted, audit.repaired)
	}
}

func TestServiceEvaluateUserNotFound(t *testing.T) {
	svc := NewService(&fakeUsers{}, &fakeResponses{}, &fakeAudit{}, zap.NewNop())

	_, err := svc.Evaluate(context.Background(), "ghost@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestServiceEvaluateReadFailureIsUnavailable(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("user read", func(t *testing.T) {
		svc := NewService(&fakeUsers{findErr: boom}, &fakeResponses{}, &fakeAudit{}, zap.NewNop())
		_, err := svc.Evaluate(context.Background(), "a@x.com")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("response read", func(t *testing.T) {
		users := &fakeUsers{user: completeUser(models.RoleVisitor)}
		svc := NewService(users, &fakeResponses{err: boom}, &fakeAudit{}, zap.NewNop())
		_, err := svc.Evaluate(context.Background(), "a@x.com")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
	})
}

func TestServiceEvaluateWriteFailureIsUnavailable(t *testing.T) {
	u := completeUser(models.RoleVisitor)
	u.FullName = ""
	users := &fakeUsers{user: u, writeErr: errors.New("write timeout")}
	audit := &fakeAudit{}
	svc := NewService(users, &fakeResponses{}, audit, zap.NewNop())

	_, err := svc.Evaluate(context.Background(), u.Email)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if audit.forced != 0 {
		t.Error("audit emitted for a write that failed")
	}
	// The in-memory record is untouched because the fake rejected the
	// write, mirroring a driver failure before any mutation.
	if u.Role != models.RoleVisitor {
		t.Errorf("role = %q, want visitor untouched", u.Role)
	}
}

func TestServiceEvaluateNilAuditor(t *testing.T) {
	u := completeUser(models.RoleVisitor)
	u.Country = ""
	svc := NewService(&fakeUsers{user: u}, &fakeResponses{}, nil, nil)

	if _, err := svc.Evaluate(context.Background(), u.Email); err != nil {
		t.Fatalf("Evaluate with nil auditor: %v", err)
	}
}
