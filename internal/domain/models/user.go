// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the persisted account record. Email is the identity: unique and
// case-normalized on write. Role and RegistrationCompleted are mutated only
// by the role reconciler and registration intake; nothing else writes them.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email      string             `bson:"email" json:"email"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped

	// PasswordHash is present only for directly-registered accounts.
	// OAuth-originated accounts never carry a stored secret.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Role                  Role `bson:"role" json:"role"`
	RegistrationCompleted bool `bson:"registration_completed" json:"registration_completed"`

	// Profile fields collected at registration. All three are required
	// for completeness; country is the one OAuth providers never supply.
	Country       string   `bson:"country,omitempty" json:"country,omitempty"`
	InterestRoles []string `bson:"interest_roles,omitempty" json:"interest_roles,omitempty"`
	Phone         string   `bson:"phone,omitempty" json:"phone,omitempty"`

	OAuthAccount bool   `bson:"oauth_account" json:"oauth_account"`
	Provider     string `bson:"provider,omitempty" json:"provider,omitempty"`

	// Audit trail for reconciler activity.
	RoleUpdatedAt           *time.Time `bson:"role_updated_at,omitempty" json:"role_updated_at,omitempty"`
	RoleFixedAt             *time.Time `bson:"role_fixed_at,omitempty" json:"role_fixed_at,omitempty"`
	ForcedProfileCompletion bool       `bson:"forced_profile_completion,omitempty" json:"forced_profile_completion,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
