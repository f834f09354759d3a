package rolestate

import (
	"testing"
	"time"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/transfertoken"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

func completeUser(role models.Role) *models.User {
	return &models.User{
		Email:                 "a@x.com",
		FullName:              "A",
		Country:               "FR",
		InterestRoles:         []string{"farmer"},
		Role:                  role,
		RegistrationCompleted: true,
	}
}

func TestEvaluateCompleteness(t *testing.T) {
	resp := &models.RegistrationResponse{Email: "a@x.com", SubmittedAt: time.Now()}

	tests := []struct {
		name           string
		user           *models.User
		latest         *models.RegistrationResponse
		wantFields     bool
		wantComplete   bool
		wantCountryGap bool
	}{
		{
			name:         "nil user",
			user:         nil,
			wantFields:   false,
			wantComplete: false,
		},
		{
			name:         "all fields and granted role",
			user:         completeUser(models.RoleVisitor),
			wantFields:   true,
			wantComplete: true,
		},
		{
			name:         "all fields but role still unassigned",
			user:         completeUser(models.RoleUnassigned),
			wantFields:   true,
			wantComplete: false,
		},
		{
			name: "missing country",
			user: &models.User{
				Email: "a@x.com", FullName: "A",
				InterestRoles:         []string{"farmer"},
				Role:                  models.RoleVisitor,
				RegistrationCompleted: true,
			},
			wantFields:     false,
			wantComplete:   false,
			wantCountryGap: true,
		},
		{
			name: "response record substitutes for lost flag",
			user: &models.User{
				Email: "a@x.com", FullName: "A", Country: "FR",
				InterestRoles: []string{"farmer"},
				Role:          models.RoleVisitor,
			},
			latest:       resp,
			wantFields:   true,
			wantComplete: true,
		},
		{
			name: "no flag and no response",
			user: &models.User{
				Email: "a@x.com", FullName: "A", Country: "FR",
				InterestRoles: []string{"farmer"},
				Role:          models.RoleVisitor,
			},
			wantFields:   false,
			wantComplete: false,
		},
		{
			name: "empty interest roles",
			user: &models.User{
				Email: "a@x.com", FullName: "A", Country: "FR",
				Role:                  models.RoleVisitor,
				RegistrationCompleted: true,
			},
			wantFields:   false,
			wantComplete: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateCompleteness(tc.user, tc.latest)
			if got.FieldsComplete != tc.wantFields {
				t.Errorf("FieldsComplete = %v, want %v (missing %v)", got.FieldsComplete, tc.wantFields, got.MissingFields)
			}
			if got.Complete != tc.wantComplete {
				t.Errorf("Complete = %v, want %v", got.Complete, tc.wantComplete)
			}
			if got.MissingCountry != tc.wantCountryGap {
				t.Errorf("MissingCountry = %v, want %v", got.MissingCountry, tc.wantCountryGap)
			}
		})
	}
}

func TestReconcileForcedDowngrade(t *testing.T) {
	// Granted role with a missing mandatory field is corrected without
	// mercy, and the decision carries the forced marker.
	u := completeUser(models.RoleVisitor)
	u.FullName = ""

	delta, decision := Reconcile(Observations{Record: u, Now: time.Now()})

	if delta.Kind != DeltaForceUnassigned {
		t.Fatalf("delta = %v, want DeltaForceUnassigned", delta.Kind)
	}
	if delta.PreviousRole != models.RoleVisitor {
		t.Errorf("previous role = %q, want visitor", delta.PreviousRole)
	}
	if decision.Role != models.RoleUnassigned || !decision.Forced {
		t.Errorf("decision = %+v, want unassigned/forced", decision)
	}
	if decision.RedirectTo != RouteCompleteProfile {
		t.Errorf("redirect = %q, want %q", decision.RedirectTo, RouteCompleteProfile)
	}
}

func TestReconcileWaitListedIncompleteAlsoForced(t *testing.T) {
	u := completeUser(models.RoleWaitListed)
	u.InterestRoles = nil

	delta, decision := Reconcile(Observations{Record: u, Now: time.Now()})
	if delta.Kind != DeltaForceUnassigned || !decision.Forced {
		t.Fatalf("delta=%v forced=%v, want forced downgrade", delta.Kind, decision.Forced)
	}
}

func TestReconcileFirstVisitNotForced(t *testing.T) {
	u := &models.User{Email: "a@x.com", Role: models.RoleUnassigned}

	delta, decision := Reconcile(Observations{Record: u, Now: time.Now()})

	if delta.Kind != DeltaNone {
		t.Fatalf("delta = %v, want DeltaNone for the natural first visit", delta.Kind)
	}
	if decision.Forced {
		t.Error("first-visit redirect must not carry the forced marker")
	}
	if decision.RedirectTo != RouteCompleteProfile {
		t.Errorf("redirect = %q, want %q", decision.RedirectTo, RouteCompleteProfile)
	}
}

func TestReconcileRepairsStrandedRole(t *testing.T) {
	// Complete profile, a response on record, role write never landed.
	u := completeUser(models.RoleUnassigned)
	resp := &models.RegistrationResponse{Email: u.Email, SubmittedAt: time.Now()}

	delta, decision := Reconcile(Observations{Record: u, LatestResponse: resp, Now: time.Now()})

	if delta.Kind != DeltaRepairWaitListed {
		t.Fatalf("delta = %v, want DeltaRepairWaitListed", delta.Kind)
	}
	if decision.Role != models.RoleWaitListed {
		t.Errorf("role = %q, want wait_listed", decision.Role)
	}
	if !decision.Complete.Complete {
		t.Error("decision completeness should be true after repair")
	}
	if decision.Forced {
		t.Error("repair is not a forced downgrade")
	}
	if decision.RedirectTo != RouteWaiting {
		t.Errorf("redirect = %q, want %q", decision.RedirectTo, RouteWaiting)
	}
}

func TestReconcileRepairBlockedByStaleResponse(t *testing.T) {
	// After a forced reset, a response submitted before the reset must
	// not resurrect the role.
	fixed := time.Now()
	u := completeUser(models.RoleUnassigned)
	u.ForcedProfileCompletion = true
	u.RoleFixedAt = &fixed

	stale := &models.RegistrationResponse{Email: u.Email, SubmittedAt: fixed.Add(-time.Hour)}
	delta, decision := Reconcile(Observations{Record: u, LatestResponse: stale, Now: time.Now()})
	if delta.Kind != DeltaNone {
		t.Fatalf("stale response triggered repair: delta = %v", delta.Kind)
	}
	if decision.Role != models.RoleUnassigned {
		t.Errorf("role = %q, want unassigned", decision.Role)
	}

	fresh := &models.RegistrationResponse{Email: u.Email, SubmittedAt: fixed.Add(time.Hour)}
	delta, _ = Reconcile(Observations{Record: u, LatestResponse: fresh, Now: time.Now()})
	if delta.Kind != DeltaRepairWaitListed {
		t.Fatalf("fresh response did not trigger repair: delta = %v", delta.Kind)
	}
}

func TestReconcileNoResponseNoRepair(t *testing.T) {
	// registration_completed flag alone is not enough to promote.
	u := completeUser(models.RoleUnassigned)

	delta, decision := Reconcile(Observations{Record: u, Now: time.Now()})
	if delta.Kind != DeltaNone {
		t.Fatalf("delta = %v, want DeltaNone", delta.Kind)
	}
	if decision.RedirectTo != RouteCompleteProfile {
		t.Errorf("redirect = %q, want %q", decision.RedirectTo, RouteCompleteProfile)
	}
}

func TestReconcileGrantedAndComplete(t *testing.T) {
	u := completeUser(models.RoleManager)

	delta, decision := Reconcile(Observations{Record: u, Now: time.Now()})
	if delta.Kind != DeltaNone {
		t.Fatalf("delta = %v, want DeltaNone", delta.Kind)
	}
	if decision.Role != models.RoleManager || decision.RedirectTo != "/dashboard/manager" {
		t.Errorf("decision = %+v, want manager dashboard", decision)
	}
	if !decision.Complete.Complete {
		t.Error("Complete should be true")
	}
}

func TestReconcileUnknownRecordedRoleFailsClosed(t *testing.T) {
	u := completeUser(models.Role("superuser"))
	u.RegistrationCompleted = true

	_, decision := Reconcile(Observations{Record: u, Now: time.Now()})
	if decision.Role.Granted() {
		t.Fatalf("unknown recorded role resolved to granted %q", decision.Role)
	}
	if decision.RedirectTo == "/dashboard/superuser" {
		t.Fatal("unknown role routed to a dashboard")
	}
}

func TestRouteFor(t *testing.T) {
	tests := []struct {
		role models.Role
		want string
	}{
		{models.RoleUnassigned, RouteCompleteProfile},
		{models.RoleWaitListed, RouteWaiting},
		{models.RoleAdmin, "/dashboard/admin"},
		{models.RoleManager, "/dashboard/manager"},
		{models.RoleSponsor, "/dashboard/sponsor"},
		{models.RoleVisitor, "/dashboard/visitor"},
		{models.Role("superuser"), RouteCompleteProfile},
		{models.Role(""), RouteCompleteProfile},
	}
	for _, tc := range tests {
		if got := RouteFor(tc.role); got != tc.want {
			t.Errorf("RouteFor(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestTokenTrusted(t *testing.T) {
	tests := []struct {
		name string
		tok  *transfertoken.Claims
		want bool
	}{
		{"nil token", nil, false},
		{"unassigned role", &transfertoken.Claims{Email: "a@x.com", Role: models.RoleUnassigned, Provider: "other"}, true},
		{"google provider with granted role", &transfertoken.Claims{Email: "a@x.com", Role: models.RoleVisitor, Provider: models.ProviderGoogle}, true},
		{"granted role from unknown provider", &transfertoken.Claims{Email: "a@x.com", Role: models.RoleVisitor, Provider: "other"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TokenTrusted(tc.tok); got != tc.want {
				t.Errorf("TokenTrusted = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveIdentity(t *testing.T) {
	su := &auth.SessionUser{ID: "1", Email: "session@x.com", Role: models.RoleVisitor}
	tok := &transfertoken.Claims{Email: "token@x.com", Role: models.RoleUnassigned, Provider: models.ProviderGoogle}

	t.Run("session wins over token", func(t *testing.T) {
		email, channel, err := ResolveIdentity(su, tok)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if email != "session@x.com" || channel != models.ChannelSession {
			t.Errorf("got %q/%q, want session identity", email, channel)
		}
	})

	t.Run("trusted token alone", func(t *testing.T) {
		email, channel, err := ResolveIdentity(nil, tok)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if email != "token@x.com" || channel != models.ChannelToken {
			t.Errorf("got %q/%q, want token identity", email, channel)
		}
	})

	t.Run("untrusted token rejected", func(t *testing.T) {
		bad := &transfertoken.Claims{Email: "t@x.com", Role: models.RoleVisitor, Provider: "other"}
		if _, _, err := ResolveIdentity(nil, bad); err != ErrUnauthenticated {
			t.Fatalf("err = %v, want ErrUnauthenticated", err)
		}
	})

	t.Run("nothing at all", func(t *testing.T) {
		if _, _, err := ResolveIdentity(nil, nil); err != ErrUnauthenticated {
			t.Fatalf("err = %v, want ErrUnauthenticated", err)
		}
	})
}
