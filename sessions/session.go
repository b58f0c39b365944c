package sessions

import (
	"context"
	"time"
)

// Session is the server-side record behind a session credential. The
// credential handed to the client is a signed token whose jti is the
// session ID; the record decides whether that token is still honoured.
type Session struct {
	ID        string     // Unique session identifier (UUID), also the token jti
	UserID    string     // User the session is bound to
	CreatedAt time.Time  // When the session was created (login time)
	ExpiresAt time.Time  // Hard expiry, mirrored in the token exp claim
	RevokedAt *time.Time // Set by logout
}

// Active reports whether the session may still be used at the given time.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Repo defines the interface for session storage operations.
type Repo interface {
	// Upsert creates or updates a session
	Upsert(ctx context.Context, session *Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes a session by ID
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes sessions that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) error
}
