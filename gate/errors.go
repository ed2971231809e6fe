package gate

import "errors"

var (
	// ErrUnauthenticated means no subject could be identified.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the subject is known but lacks the capability.
	ErrForbidden = errors.New("forbidden")
)
