// internal/domain/models/role.go
package models

import "strings"

// Role is the system role carried on a User record. The set is closed:
// anything outside it must be treated as RoleUnassigned by callers that
// route or authorize (fail closed, never fail open to a dashboard).
type Role string

const (
	// RoleUnassigned is the sentinel for accounts that have not completed
	// registration. It is the only role a user may self-transition out of.
	RoleUnassigned Role = "unassigned"

	// RoleWaitListed is assigned exactly once, by registration intake,
	// when the profile first becomes complete.
	RoleWaitListed Role = "wait_listed"

	// Granted roles. These are never assigned by this codebase; only an
	// out-of-band administrative action grants them.
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSponsor Role = "sponsor"
	RoleVisitor Role = "visitor"
)

// AllRoles lists every valid role, in lifecycle order.
func AllRoles() []Role {
	return []Role{RoleUnassigned, RoleWaitListed, RoleAdmin, RoleManager, RoleSponsor, RoleVisitor}
}

// ParseRole maps a raw string onto the closed role set. The second return
// is false for anything outside the set, including the empty string.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUnassigned:
		return RoleUnassigned, true
	case RoleWaitListed:
		return RoleWaitListed, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleManager:
		return RoleManager, true
	case RoleSponsor:
		return RoleSponsor, true
	case RoleVisitor:
		return RoleVisitor, true
	default:
		return RoleUnassigned, false
	}
}

// Valid reports whether r is inside the closed role set.
func (r Role) Valid() bool {
	parsed, ok := ParseRole(string(r))
	return ok && parsed == r
}

// Granted reports whether r is one of the administratively granted roles
// (admin, manager, sponsor, visitor).
func (r Role) Granted() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSponsor, RoleVisitor:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
