package rolestate

import "errors"

var (
	// ErrUnauthenticated means no session user and no decodable transfer
	// token accompanied the request.
	ErrUnauthenticated = errors.New("rolestate: no authenticated identity")

	// ErrUserNotFound means the resolved email has no user record.
	ErrUserNotFound = errors.New("rolestate: user record not found")

	// ErrUnavailable wraps store failures so handlers can answer 503
	// without leaking driver errors.
	ErrUnavailable = errors.New("rolestate: backing store unavailable")
)
