package debug

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/domain/models"
)

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) FindByEmail(context.Context, string) (*models.User, error) {
	return f.user, nil
}

type fakeResponses struct {
	latest *models.RegistrationResponse
}

func (f *fakeResponses) LatestByEmail(context.Context, string) (*models.RegistrationResponse, error) {
	return f.latest, nil
}

func TestServeRoleStateInspectsWithoutWriting(t *testing.T) {
	u := &models.User{
		Email:                 "v@x.com",
		Role:                  models.RoleVisitor,
		RegistrationCompleted: true,
		// full name missing: the next evaluation would force a downgrade
		Country:       "FR",
		InterestRoles: []string{"farmer"},
	}
	h := NewHandler(&fakeUsers{user: u}, &fakeResponses{}, zap.NewNop())

	r := httptest.NewRequest("GET", "/api/debug/rolestate?email=v@x.com", nil)
	w := httptest.NewRecorder()
	h.ServeRoleState(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	var resp struct {
		RecordRole    string `json:"record_role"`
		PendingChange string `json:"pending_change"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RecordRole != "visitor" {
		t.Errorf("record role = %q", resp.RecordRole)
	}
	if resp.PendingChange != "force_unassigned" {
		t.Errorf("pending change = %q, want force_unassigned", resp.PendingChange)
	}
	if u.Role != models.RoleVisitor {
		t.Error("inspector must not mutate the record")
	}
}

func TestServeRoleStatePendingRepair(t *testing.T) {
	u := &models.User{
		Email:         "a@x.com",
		Role:          models.RoleUnassigned,
		FullName:      "A",
		Country:       "FR",
		InterestRoles: []string{"farmer"},
	}
	resp := &models.RegistrationResponse{Email: "a@x.com", SubmittedAt: time.Now()}
	h := NewHandler(&fakeUsers{user: u}, &fakeResponses{latest: resp}, zap.NewNop())

	r := httptest.NewRequest("GET", "/api/debug/rolestate?email=a@x.com", nil)
	w := httptest.NewRecorder()
	h.ServeRoleState(w, r)

	var got struct {
		PendingChange string `json:"pending_change"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PendingChange != "repair_wait_listed" {
		t.Errorf("pending change = %q, want repair_wait_listed", got.PendingChange)
	}
}

func TestServeRoleStateValidation(t *testing.T) {
	h := NewHandler(&fakeUsers{}, &fakeResponses{}, zap.NewNop())

	r := httptest.NewRequest("GET", "/api/debug/rolestate", nil)
	w := httptest.NewRecorder()
	h.ServeRoleState(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing email: status = %d, want 400", w.Code)
	}

	r = httptest.NewRequest("GET", "/api/debug/rolestate?email=ghost@x.com", nil)
	w = httptest.NewRecorder()
	h.ServeRoleState(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d, want 404", w.Code)
	}
}
