package errors

import (
	"errors"
)

// Common error types for the driftwatch server and CLI
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Request errors
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)
