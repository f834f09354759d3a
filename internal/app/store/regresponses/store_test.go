package regresponses_test

import (
	"testing"
	"time"

	"github.com/otman-dev/farmlab/internal/app/store/regresponses"
	"github.com/otman-dev/farmlab/internal/domain/models"
	"github.com/otman-dev/farmlab/internal/testutil"
)

func TestStore_LatestByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := regresponses.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	latest, err := store.LatestByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("LatestByEmail failed: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for user with no responses, got %+v", latest)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, country := range []string{"FR", "MA"} {
		_, err := store.Insert(ctx, models.RegistrationResponse{
			Email:        "A@Example.com",
			FullName:     "A",
			Country:      country,
			PreviousRole: models.RoleUnassigned,
			NewRole:      models.RoleWaitListed,
			AuthChannel:  models.ChannelSession,
			SubmittedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	latest, err = store.LatestByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("LatestByEmail failed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a response")
	}
	if latest.Country != "MA" {
		t.Errorf("got country %q, want the most recent submission", latest.Country)
	}
	if latest.Email != "a@example.com" {
		t.Errorf("email = %q, want normalized", latest.Email)
	}

	n, err := store.CountByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("CountByEmail failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
