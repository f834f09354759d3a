package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// ErrDuplicateEmail is returned when attempting to create a user with an
// email that already exists.
var ErrDuplicateEmail = errors.New("a user with this email already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. Email is the primary key
// for everything in the role lifecycle, including the reconciler's
// corrective writes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	})
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail is GetByEmail with absence flattened to (nil, nil), the
// shape the reconciler consumes: "no record" is a business outcome, a
// driver error is infrastructure.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new directly-registered user after normalizing
// fields. New accounts always start unassigned; roles are only ever
// granted elsewhere.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = models.RoleUnassigned
	u.RegistrationCompleted = false

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// CreateOAuthUser inserts a user for a first-time OAuth sign-in. No
// password hash is ever stored for these accounts.
func (s *Store) CreateOAuthUser(ctx context.Context, email, fullName, provider string) (models.User, error) {
	u := models.User{
		Email:        email,
		FullName:     fullName,
		OAuthAccount: true,
		Provider:     normalize.Provider(provider),
	}
	return s.Create(ctx, u)
}

// CompletionUpdate holds the profile fields merged in by a completion
// submission. Identity, OAuth flag, and role are deliberately absent;
// those are not the submitter's to set.
type CompletionUpdate struct {
	FullName      string
	Country       string
	InterestRoles []string
	Phone         string
	PasswordHash  *string
	At            time.Time
}

// CompleteRegistration advances an unassigned user to wait_listed and
// merges the submitted profile fields in a single document update.
func (s *Store) CompleteRegistration(ctx context.Context, email string, upd CompletionUpdate) error {
	fullName := normalize.Name(upd.FullName)
	set := bson.M{
		"full_name":              fullName,
		"full_name_ci":           text.Fold(fullName),
		"country":                normalize.Country(upd.Country),
		"interest_roles":         upd.InterestRoles,
		"role":                   models.RoleWaitListed,
		"registration_completed": true,
		"forced_profile_completion": false,
		"role_updated_at":        upd.At,
		"updated_at":             upd.At,
	}
	if upd.Phone != "" {
		set["phone"] = upd.Phone
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"email": normalize.Email(email)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ForceUnassigned is the reconciler's downgrade write: demote the role,
// clear registration_completed, and flag the forced completion so the
// client can show recovery messaging.
func (s *Store) ForceUnassigned(ctx context.Context, email string, at time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{
			"role":                      models.RoleUnassigned,
			"registration_completed":    false,
			"forced_profile_completion": true,
			"role_fixed_at":             at,
			"role_updated_at":           at,
			"updated_at":                at,
		}},
	)
	return err
}

// PromoteWaitListed is the reconciler's repair write. The role filter
// makes it a no-op if a concurrent request already repaired the record.
func (s *Store) PromoteWaitListed(ctx context.Context, email string, at time.Time) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email), "role": models.RoleUnassigned},
		bson.M{"$set": bson.M{
			"role":                      models.RoleWaitListed,
			"registration_completed":    true,
			"forced_profile_completion": false,
			"role_fixed_at":             at,
			"role_updated_at":           at,
			"updated_at":                at,
		}},
	)
	return err
}
