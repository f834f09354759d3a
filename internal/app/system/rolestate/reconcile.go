package rolestate

import (
	"time"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/transfertoken"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Routing targets returned in Decision.RedirectTo.
const (
	RouteCompleteProfile = "/register/complete"
	RouteWaiting         = "/waiting"
	routeDashboardPrefix = "/dashboard/"
)

// Observations is everything Reconcile looks at for one request.
// Record must be the freshly read persisted user; LatestResponse may be
// nil when the user has never submitted a completion.
type Observations struct {
	SessionRole    models.Role
	Token          *transfertoken.Claims
	Record         *models.User
	LatestResponse *models.RegistrationResponse
	Now            time.Time
}

// DeltaKind names the corrective write Reconcile wants applied.
type DeltaKind int

const (
	DeltaNone DeltaKind = iota

	// DeltaForceUnassigned: the record claims a role its profile data
	// cannot support. Demote, clear registration_completed, flag the
	// downgrade as forced.
	DeltaForceUnassigned

	// DeltaRepairWaitListed: profile data and a response record are both
	// in place but the role write never landed. Promote to wait_listed.
	DeltaRepairWaitListed
)

// Delta is the corrective write, if any, that must land before the
// decision is true of the persisted record.
type Delta struct {
	Kind         DeltaKind
	PreviousRole models.Role
}

// Decision is what the routing layer consumes. Forced distinguishes a
// reconciler-initiated downgrade from the natural first-visit flow so
// the client can show different messaging.
type Decision struct {
	Role       models.Role  `json:"role"`
	Complete   Completeness `json:"completeness"`
	Forced     bool         `json:"forced"`
	RedirectTo string       `json:"redirect_to"`
}

// TokenTrusted reports whether a decoded transfer token may stand in for
// a missing session. A token is trusted only to unblock the fresh-signup
// path: its declared role must be the unassigned sentinel, or it must
// come from the OAuth provider whose handoff window it bridges. It is
// never trusted to claim a granted role.
func TokenTrusted(tok *transfertoken.Claims) bool {
	if tok == nil {
		return false
	}
	return tok.Role == models.RoleUnassigned || tok.Provider == models.ProviderGoogle
}

// ResolveIdentity picks the acting identity for a request: the session
// user when one exists, otherwise a trusted transfer token. Returns the
// acting email and the auth channel (models.ChannelSession or
// models.ChannelToken), or ErrUnauthenticated.
func ResolveIdentity(su *auth.SessionUser, tok *transfertoken.Claims) (string, string, error) {
	if su != nil && su.Email != "" {
		return su.Email, models.ChannelSession, nil
	}
	if TokenTrusted(tok) {
		return tok.Email, models.ChannelToken, nil
	}
	return "", "", ErrUnauthenticated
}

// RouteFor maps a role to its landing path. An unrecognized role routes
// to profile completion, never to a dashboard.
func RouteFor(role models.Role) string {
	switch {
	case role == models.RoleWaitListed:
		return RouteWaiting
	case role.Granted():
		return routeDashboardPrefix + role.String()
	default:
		return RouteCompleteProfile
	}
}

// Reconcile runs the state machine over one set of observations and
// returns the corrective write to apply (DeltaNone if the record is
// already consistent) plus the routing decision that holds once the
// delta has landed. Pure: it never touches a store.
func Reconcile(obs Observations) (Delta, Decision) {
	comp := EvaluateCompleteness(obs.Record, obs.LatestResponse)

	recorded := obs.Record.Role
	if !recorded.Valid() {
		recorded = models.RoleUnassigned
	}

	if !comp.FieldsComplete {
		if recorded != models.RoleUnassigned {
			// A role the profile cannot support. Unconditional downgrade,
			// even over a granted role.
			return Delta{Kind: DeltaForceUnassigned, PreviousRole: recorded},
				Decision{
					Role:       models.RoleUnassigned,
					Complete:   comp,
					Forced:     true,
					RedirectTo: RouteCompleteProfile,
				}
		}
		// First-time natural flow. No write, no forced marker.
		return Delta{}, Decision{
			Role:       models.RoleUnassigned,
			Complete:   comp,
			RedirectTo: RouteCompleteProfile,
		}
	}

	if recorded == models.RoleUnassigned && obs.LatestResponse != nil && repairAllowed(obs.Record, obs.LatestResponse) {
		comp.Complete = true
		return Delta{Kind: DeltaRepairWaitListed, PreviousRole: recorded},
			Decision{
				Role:       models.RoleWaitListed,
				Complete:   comp,
				RedirectTo: RouteWaiting,
			}
	}

	return Delta{}, Decision{
		Role:       recorded,
		Complete:   comp,
		RedirectTo: RouteFor(recorded),
	}
}

// repairAllowed blocks the repair rule from resurrecting a role the
// reconciler just forcibly reset: after a forced downgrade, only a
// response submitted after the reset counts as fresh evidence.
func repairAllowed(u *models.User, latest *models.RegistrationResponse) bool {
	if !u.ForcedProfileCompletion || u.RoleFixedAt == nil {
		return true
	}
	return latest.SubmittedAt.After(*u.RoleFixedAt)
}
