package apikeys

import (
	"context"
	"time"
)

// APIKey is the server-side record of an issued API key. The raw key is
// shown to the user once; only its SHA-256 hash is stored.
type APIKey struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix"` // First characters of the raw key, for display
	KeyHash   string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the key has passed its expiry at the given time.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// Repo manages server-side storage of API key metadata, keyed by key hash.
type Repo interface {
	Upsert(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]*APIKey, error)
	Delete(ctx context.Context, id string) error
}
