package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/alexchoi0/driftwatch/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrInvalidSession is the only error Validate returns. Callers cannot tell a
// malformed token from an expired, revoked or unknown session.
var ErrInvalidSession = errors.New("invalid session")

const issuer = "driftwatch"

// Manager issues and validates session credentials.
type Manager struct {
	repo       Repo
	users      users.UserRepo
	signingKey []byte
	ttl        time.Duration
}

// NewManager creates a session manager signing credentials with an HMAC key.
func NewManager(repo Repo, userRepo users.UserRepo, signingKey []byte, ttl time.Duration) *Manager {
	return &Manager{
		repo:       repo,
		users:      userRepo,
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// Create starts a new session for the user and returns its credential.
func (m *Manager) Create(ctx context.Context, userID string) (string, *Session, error) {
	now := NowTimeFunc()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwtlib.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		ID:        session.ID,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("[sessions Create] failed to sign session token: %w", err)
	}

	if err := m.repo.Upsert(ctx, session); err != nil {
		return "", nil, fmt.Errorf("[sessions Create] failed to store session: %w", err)
	}
	return token, session, nil
}

// Validate resolves a session credential to its user and session record.
// It performs no writes.
func (m *Manager) Validate(ctx context.Context, token string) (*users.User, *Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, nil, ErrInvalidSession
	}

	session, err := m.repo.Get(ctx, claims.ID)
	if err != nil || session == nil {
		return nil, nil, ErrInvalidSession
	}
	if session.UserID != claims.Subject || !session.Active(NowTimeFunc()) {
		return nil, nil, ErrInvalidSession
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil || user.Blocked {
		return nil, nil, ErrInvalidSession
	}
	return user, session, nil
}

// Revoke marks the session behind a credential as revoked.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return ErrInvalidSession
	}
	session, err := m.repo.Get(ctx, claims.ID)
	if err != nil {
		return ErrInvalidSession
	}
	now := NowTimeFunc()
	session.RevokedAt = &now
	if err := m.repo.Upsert(ctx, session); err != nil {
		return fmt.Errorf("[sessions Revoke] failed to store session: %w", err)
	}
	return nil
}

// Prune removes sessions whose expiry has passed.
func (m *Manager) Prune(ctx context.Context) error {
	return m.repo.DeleteExpired(ctx, NowTimeFunc())
}

func (m *Manager) parse(token string) (*jwtlib.RegisteredClaims, error) {
	claims := &jwtlib.RegisteredClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
