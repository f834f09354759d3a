// Package rolestate decides what role a user actually holds when the
// session cookie, an in-flight transfer token, and the persisted record
// can each disagree, and performs the corrective writes that bring the
// record back in line. Reconcile itself is pure; Service wraps it with
// the store reads and writes.
package rolestate

import (
	"strings"

	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Field names reported in Completeness.MissingFields.
const (
	FieldFullName             = "full_name"
	FieldEmail                = "email"
	FieldCountry              = "country"
	FieldInterestRoles        = "interest_roles"
	FieldRegistrationEvidence = "registration_evidence"
)

// Completeness is the evaluator's verdict plus diagnostics.
//
// FieldsComplete ignores the role field: it asks only whether the profile
// data and registration evidence are in place. Complete additionally
// requires the role to have moved past unassigned. The repair rule keys
// off FieldsComplete, because a record whose role write never landed is
// exactly the case where Complete is still false.
type Completeness struct {
	Complete       bool     `json:"complete"`
	FieldsComplete bool     `json:"fields_complete"`
	MissingFields  []string `json:"missing_fields,omitempty"`

	// MissingCountry is called out separately: OAuth providers do not
	// supply a country, so it is by far the most common gap on
	// OAuth-originated signups.
	MissingCountry bool `json:"missing_country,omitempty"`
}

// EvaluateCompleteness inspects a user record and, optionally, the most
// recent registration response for that user. Pure; no side effects.
func EvaluateCompleteness(u *models.User, latest *models.RegistrationResponse) Completeness {
	var c Completeness
	if u == nil {
		c.MissingFields = []string{FieldEmail, FieldFullName, FieldCountry, FieldInterestRoles, FieldRegistrationEvidence}
		c.MissingCountry = true
		return c
	}

	if strings.TrimSpace(u.Email) == "" {
		c.MissingFields = append(c.MissingFields, FieldEmail)
	}
	if strings.TrimSpace(u.FullName) == "" {
		c.MissingFields = append(c.MissingFields, FieldFullName)
	}
	if strings.TrimSpace(u.Country) == "" {
		c.MissingFields = append(c.MissingFields, FieldCountry)
		c.MissingCountry = true
	}
	if len(u.InterestRoles) == 0 {
		c.MissingFields = append(c.MissingFields, FieldInterestRoles)
	}
	// A surviving response record counts as evidence even when the
	// registration_completed flag was lost to a partial write.
	if !u.RegistrationCompleted && latest == nil {
		c.MissingFields = append(c.MissingFields, FieldRegistrationEvidence)
	}

	c.FieldsComplete = len(c.MissingFields) == 0
	c.Complete = c.FieldsComplete && u.Role != models.RoleUnassigned && u.Role.Valid()
	return c
}
