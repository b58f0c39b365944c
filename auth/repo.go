package auth

import (
	"context"

	"github.com/alexchoi0/driftwatch/apikeys"
	"github.com/alexchoi0/driftwatch/sessions"
	"github.com/alexchoi0/driftwatch/users"
)

// SessionValidator resolves a session credential. Implemented by *sessions.Manager.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*users.User, *sessions.Session, error)
}

// APIKeyValidator resolves an API key. Implemented by *apikeys.Manager.
type APIKeyValidator interface {
	Validate(ctx context.Context, raw string) (*apikeys.APIKey, *users.User, error)
}

var (
	_ SessionValidator = (*sessions.Manager)(nil)
	_ APIKeyValidator  = (*apikeys.Manager)(nil)
)
