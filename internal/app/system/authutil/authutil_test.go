package authutil

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse 1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse 1" {
		t.Error("hash must not equal the plaintext")
	}
	if !CheckPassword("correct horse 1", hash) {
		t.Error("expected matching password to verify")
	}
	if CheckPassword("wrong password 2", hash) {
		t.Error("expected non-matching password to fail")
	}
}

func TestCheckPassword_EmptyHash(t *testing.T) {
	if CheckPassword("anything1", "") {
		t.Error("expected empty hash to fail verification")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "abcdef12", false},
		{"valid long", "a very long passphrase 99", false},
		{"too short", "ab1", true},
		{"no digit", "abcdefgh", true},
		{"no letter", "12345678", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestPasswordRules_MentionsMinLength(t *testing.T) {
	if !strings.Contains(PasswordRules(), "8") {
		t.Errorf("PasswordRules() = %q, expected it to mention the minimum length", PasswordRules())
	}
}

func TestIsValidEmail_Valid(t *testing.T) {
	validEmails := []string{
		"test@example.com",
		"user@domain.org",
		"name.surname@company.co.uk",
		"a@b.co",
	}

	for _, email := range validEmails {
		if !IsValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
}

func TestIsValidEmail_Invalid(t *testing.T) {
	invalidEmails := []string{
		"testexample.com",
		"@example.com",
		"test@",
		"test@localhost",
		"two words@example.com",
		"",
	}

	for _, email := range invalidEmails {
		if IsValidEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}
