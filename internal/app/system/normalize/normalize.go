// Package normalize holds the small string normalizers used before
// persisting or comparing user-supplied values.
package normalize

import "strings"

// Email lowercases and trims an email address. Email is the user identity,
// so every lookup and write must go through this.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role string prior to models.ParseRole.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Provider lowercases and trims an OAuth provider name.
func Provider(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Country trims a country value, preserving case.
func Country(s string) string {
	return strings.TrimSpace(s)
}
