// internal/app/store/regresponses/store.go
package regresponses

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// Store manages registration response records. The collection is
// append-only: responses are never updated or deleted, so a surviving
// response remains evidence of completion even after the user record is
// forcibly reset.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registration_responses")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "submitted_at", Value: -1},
			},
		},
	})
	return err
}

// Insert appends a response snapshot.
func (s *Store) Insert(ctx context.Context, resp models.RegistrationResponse) (models.RegistrationResponse, error) {
	resp.ID = primitive.NewObjectID()
	resp.Email = normalize.Email(resp.Email)
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = time.Now()
	}
	if _, err := s.c.InsertOne(ctx, resp); err != nil {
		return models.RegistrationResponse{}, err
	}
	return resp, nil
}

// LatestByEmail returns the most recent response for the user, or
// (nil, nil) when none exists.
func (s *Store) LatestByEmail(ctx context.Context, email string) (*models.RegistrationResponse, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "submitted_at", Value: -1}})

	var resp models.RegistrationResponse
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}, opts).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CountByEmail reports how many responses the user has submitted.
func (s *Store) CountByEmail(ctx context.Context, email string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"email": normalize.Email(email)})
}
