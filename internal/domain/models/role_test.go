// internal/domain/models/role_test.go
package models

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"unassigned", RoleUnassigned, true},
		{"wait_listed", RoleWaitListed, true},
		{"admin", RoleAdmin, true},
		{"manager", RoleManager, true},
		{"sponsor", RoleSponsor, true},
		{"visitor", RoleVisitor, true},
		{"  Admin  ", RoleAdmin, true},
		{"MANAGER", RoleManager, true},
		{"", RoleUnassigned, false},
		{"superuser", RoleUnassigned, false},
		{"waitlisted", RoleUnassigned, false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range AllRoles() {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Role{"", "root", "Admin", "wait-listed"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func TestRoleGranted(t *testing.T) {
	granted := map[Role]bool{
		RoleUnassigned: false,
		RoleWaitListed: false,
		RoleAdmin:      true,
		RoleManager:    true,
		RoleSponsor:    true,
		RoleVisitor:    true,
	}
	for r, want := range granted {
		if got := r.Granted(); got != want {
			t.Errorf("%q.Granted() = %v, want %v", r, got, want)
		}
	}
	if Role("owner").Granted() {
		t.Error("unknown role must not be granted")
	}
}
