package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given role and a complete
// profile.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, role models.Role) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:                    primitive.NewObjectID(),
		FullName:              fullName,
		FullNameCI:            text.Fold(fullName),
		Email:                 email,
		Role:                  role,
		RegistrationCompleted: role != models.RoleUnassigned,
		Country:               "FR",
		InterestRoles:         []string{"farmer"},
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateBareUser inserts a user with no profile fields, the state a
// fresh OAuth signup lands in.
func (f *Fixtures) CreateBareUser(ctx context.Context, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Role:         models.RoleUnassigned,
		OAuthAccount: true,
		Provider:     models.ProviderGoogle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateResponse inserts a registration response snapshot for the email.
func (f *Fixtures) CreateResponse(ctx context.Context, email string, submittedAt time.Time) models.RegistrationResponse {
	f.t.Helper()

	resp := models.RegistrationResponse{
		ID:            primitive.NewObjectID(),
		Email:         email,
		FullName:      "Test User",
		Country:       "FR",
		InterestRoles: []string{"farmer"},
		PreviousRole:  models.RoleUnassigned,
		NewRole:       models.RoleWaitListed,
		AuthChannel:   models.ChannelSession,
		SubmittedAt:   submittedAt,
	}

	if _, err := f.db.Collection("registration_responses").InsertOne(ctx, resp); err != nil {
		f.t.Fatalf("failed to create test response: %v", err)
	}
	return resp
}
