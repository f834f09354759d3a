package login

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/otman-dev/farmlab/internal/app/system/auth"
	"github.com/otman-dev/farmlab/internal/app/system/authutil"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

type fakeUsers struct {
	byEmail map[string]*models.User
	err     error
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

func newTestHandler(t *testing.T, users *fakeUsers) *Handler {
	t.Helper()
	mgr, err := auth.NewSessionManager(strings.Repeat("k", 32), "farmlab_test", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return NewHandler(users, mgr, nil, zap.NewNop())
}

func postLogin(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleLoginPost(w, r)
	return w
}

func TestLoginSuccess(t *testing.T) {
	hash, err := authutil.HashPassword("correct-horse1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &fakeUsers{byEmail: map[string]*models.User{
		"farmer@example.com": {
			Email:        "farmer@example.com",
			FullName:     "Farmer",
			PasswordHash: &hash,
			Role:         models.RoleManager,
		},
	}}
	h := newTestHandler(t, users)

	w := postLogin(t, h, `{"email":"Farmer@Example.COM","password":"correct-horse1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var resp struct {
		Success    bool   `json:"success"`
		Role       string `json:"role"`
		RedirectTo string `json:"redirect_to"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Role != "manager" || resp.RedirectTo != "/dashboard/manager" {
		t.Errorf("response = %+v, want manager dashboard", resp)
	}
	if len(w.Result().Cookies()) == 0 {
		t.Error("expected a session cookie on success")
	}
}

func TestLoginFailuresAreByteIdentical(t *testing.T) {
	hash, err := authutil.HashPassword("correct-horse1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &fakeUsers{byEmail: map[string]*models.User{
		"known@example.com": {
			Email:        "known@example.com",
			PasswordHash: &hash,
			Role:         models.RoleVisitor,
		},
		"badrole@example.com": {
			Email:        "badrole@example.com",
			PasswordHash: &hash,
			Role:         models.Role("superuser"),
		},
	}}
	h := newTestHandler(t, users)

	bodies := map[string]string{
		"unknown email":  `{"email":"ghost@example.com","password":"correct-horse1"}`,
		"wrong password": `{"email":"known@example.com","password":"wrong-password"}`,
		"role out of set": `{"email":"badrole@example.com","password":"correct-horse1"}`,
	}

	var reference string
	for name, body := range bodies {
		w := postLogin(t, h, body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, w.Code)
		}
		if reference == "" {
			reference = w.Body.String()
			continue
		}
		if w.Body.String() != reference {
			t.Errorf("%s: body %q differs from %q; failures must be indistinguishable", name, w.Body.String(), reference)
		}
	}
}

func TestLoginOAuthAccountRejected(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*models.User{
		"oauth@example.com": {
			Email:        "oauth@example.com",
			OAuthAccount: true,
			Role:         models.RoleVisitor,
		},
	}}
	h := newTestHandler(t, users)

	w := postLogin(t, h, `{"email":"oauth@example.com","password":"anything1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginStoreFailureIs503(t *testing.T) {
	users := &fakeUsers{err: context.DeadlineExceeded}
	h := newTestHandler(t, users)

	w := postLogin(t, h, `{"email":"a@example.com","password":"correct-horse1"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503; outage must not look like bad credentials", w.Code)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	h := newTestHandler(t, &fakeUsers{})

	w := postLogin(t, h, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
