// Package transfertoken carries identity and a provisional role across the
// OAuth redirect boundary, where the session cookie has not been written
// yet. The token is a transport convenience, not a credential: it is
// signed so it cannot be tampered with in transit, but the reconciler
// never lets it grant a role; it only unblocks the fresh-signup path.
package transfertoken

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/otman-dev/farmlab/internal/app/system/normalize"
	"github.com/otman-dev/farmlab/internal/domain/models"
)

// HeaderName is the request header checked for a token when no query
// parameter carries one.
const HeaderName = "X-Registration-Token"

// QueryParam is the URL query parameter checked first for a token.
const QueryParam = "token"

// Claims is the decoded bundle. Role is provisional and advisory.
type Claims struct {
	Email    string
	Role     models.Role
	Provider string
	IssuedAt time.Time
}

type tokenClaims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes transfer tokens with an HMAC key and a fixed
// time-to-live.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec builds a codec. The key must be non-empty; ttl bounds how long
// an encoded token decodes successfully.
func NewCodec(key string, ttl time.Duration) (*Codec, error) {
	if key == "" {
		return nil, fmt.Errorf("transfer token key is empty; provide 32+ random chars")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Codec{key: []byte(key), ttl: ttl, now: time.Now}, nil
}

// Encode serializes the claims into a URL-safe blob.
func (c *Codec) Encode(claims Claims) (string, error) {
	issued := claims.IssuedAt
	if issued.IsZero() {
		issued = c.now().UTC()
	}

	tc := tokenClaims{
		Email:    normalize.Email(claims.Email),
		Role:     string(claims.Role),
		Provider: normalize.Provider(claims.Provider),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(c.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	signed, err := tok.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("encode transfer token: %w", err)
	}
	return signed, nil
}

// Decode parses a raw token. Every failure mode (malformed input, bad
// signature, expiry, missing sub-fields, a role outside the closed set)
// resolves to (nil, false): callers fall back to session identity rather
// than erroring.
func (c *Codec) Decode(raw string) (*Claims, bool) {
	if raw == "" {
		return nil, false
	}

	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.key, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, false
	}

	email := normalize.Email(tc.Email)
	provider := normalize.Provider(tc.Provider)
	role, ok := models.ParseRole(tc.Role)
	if email == "" || provider == "" || !ok {
		return nil, false
	}

	claims := &Claims{
		Email:    email,
		Role:     role,
		Provider: provider,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, true
}

// FromRequest extracts and decodes a token from the request. Sources are
// checked in priority order: query parameter, header, then the bodyToken
// value a handler lifted out of its parsed JSON body. The first source
// that is present wins, even if it fails to decode.
func (c *Codec) FromRequest(r *http.Request, bodyToken string) (*Claims, bool) {
	if raw := r.URL.Query().Get(QueryParam); raw != "" {
		return c.Decode(raw)
	}
	if raw := r.Header.Get(HeaderName); raw != "" {
		return c.Decode(raw)
	}
	if bodyToken != "" {
		return c.Decode(bodyToken)
	}
	return nil, false
}
