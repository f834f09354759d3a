// internal/domain/models/registration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auth channels recorded on a registration response: how the submission
// was authenticated.
const (
	ChannelSession = "session"
	ChannelToken   = "token"
)

// ProviderGoogle is the only OAuth provider wired today.
const ProviderGoogle = "google"

// RegistrationResponse is an append-only snapshot of a profile-completion
// submission. Its existence is strong evidence of completion independent
// of the mutable role field on User, so the reconciler can repair a role
// write that never landed.
type RegistrationResponse struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	FullName      string             `bson:"full_name" json:"full_name"`
	Country       string             `bson:"country" json:"country"`
	InterestRoles []string           `bson:"interest_roles" json:"interest_roles"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`

	// Previous and new role at completion time, for audit.
	PreviousRole Role `bson:"previous_role" json:"previous_role"`
	NewRole      Role `bson:"new_role" json:"new_role"`

	// AuthChannel is ChannelSession or ChannelToken.
	AuthChannel string `bson:"auth_channel" json:"auth_channel"`

	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}
