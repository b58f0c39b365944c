package auth

import (
	"context"

	"github.com/alexchoi0/driftwatch/apikeys"
	"github.com/alexchoi0/driftwatch/sessions"
	"github.com/alexchoi0/driftwatch/users"
)

// Credential kinds reported by Identity.Kind.
const (
	KindSession = "session"
	KindAPIKey  = "api_key"
)

// Identity is an authenticated caller. Exactly one of Session and APIKey is set.
type Identity struct {
	User    *users.User
	Session *sessions.Session
	APIKey  *apikeys.APIKey
}

// Kind names the credential kind that produced the identity.
func (i *Identity) Kind() string {
	if i.Session != nil {
		return KindSession
	}
	return KindAPIKey
}

type identityKey struct{}

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
