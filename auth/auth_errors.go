package auth

import "errors"

// ErrUnauthenticated is returned when no credential kind accepted the bearer.
// It carries no detail about which check failed.
var ErrUnauthenticated = errors.New("unauthenticated")
