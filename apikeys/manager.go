package apikeys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexchoi0/driftwatch/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// KeyPrefix marks raw API keys.
const KeyPrefix = "ak_"

const (
	keyLength     = 32 // random bytes
	displayPrefix = 8
)

var (
	// ErrInvalidAPIKey is the only error Validate returns.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrNotOwner is returned when revoking a key that belongs to another user.
	ErrNotOwner = errors.New("api key belongs to another user")
)

// Manager handles API key issuance, validation and revocation.
type Manager struct {
	repo  Repo
	users users.UserRepo
}

// NewManager creates a new API key manager
func NewManager(repo Repo, userRepo users.UserRepo) *Manager {
	return &Manager{
		repo:  repo,
		users: userRepo,
	}
}

// Issue generates a new API key for the user. The raw key is returned once.
// A zero ttl issues a key without expiry.
func (m *Manager) Issue(ctx context.Context, userID, name string, ttl time.Duration) (string, *APIKey, error) {
	keyBytes := make([]byte, keyLength)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	raw := KeyPrefix + hex.EncodeToString(keyBytes)

	now := NowTimeFunc()
	key := &APIKey{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Prefix:    raw[:len(KeyPrefix)+displayPrefix],
		KeyHash:   HashKey(raw),
		CreatedAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		key.ExpiresAt = &expires
	}

	if err := m.repo.Upsert(ctx, key); err != nil {
		return "", nil, fmt.Errorf("failed to store api key: %w", err)
	}
	return raw, key, nil
}

// Validate resolves a raw API key to its record and owner. It performs no writes.
func (m *Manager) Validate(ctx context.Context, raw string) (*APIKey, *users.User, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil, ErrInvalidAPIKey
	}

	key, err := m.repo.GetByHash(ctx, HashKey(raw))
	if err != nil || key == nil || key.Expired(NowTimeFunc()) {
		return nil, nil, ErrInvalidAPIKey
	}

	user, err := m.users.GetByID(ctx, key.UserID)
	if err != nil || user == nil || user.Blocked {
		return nil, nil, ErrInvalidAPIKey
	}
	return key, user, nil
}

// List returns the keys owned by a user.
func (m *Manager) List(ctx context.Context, userID string) ([]*APIKey, error) {
	return m.repo.ListByUser(ctx, userID)
}

// Revoke deletes one of the user's keys.
func (m *Manager) Revoke(ctx context.Context, userID, keyID string) error {
	keys, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}
	for _, k := range keys {
		if k.ID == keyID {
			return m.repo.Delete(ctx, keyID)
		}
	}
	return ErrNotOwner
}

// HashKey returns the hex SHA-256 of a raw key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
