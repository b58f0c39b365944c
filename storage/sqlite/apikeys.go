package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexchoi0/driftwatch/apikeys"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
)

var _ apikeys.Repo = (*APIKeyRepo)(nil)

// APIKeyRepo persists API key metadata keyed by hash.
type APIKeyRepo struct {
	db *sql.DB
}

const apiKeyColumns = `id, user_id, name, prefix, key_hash, created_at, expires_at`

func (r *APIKeyRepo) Upsert(ctx context.Context, key *apikeys.APIKey) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO api_keys (`+apiKeyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    expires_at = excluded.expires_at`,
		key.ID, key.UserID, key.Name, key.Prefix, key.KeyHash, toMillis(key.CreatedAt), nullMillis(key.ExpiresAt))
	if err != nil {
		return fmt.Errorf("upsert api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepo) GetByHash(ctx context.Context, hash string) (*apikeys.APIKey, error) {
	key, err := scanAPIKey(r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepo) ListByUser(ctx context.Context, userID string) ([]*apikeys.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*apikeys.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(row rowScanner) (*apikeys.APIKey, error) {
	var (
		k         apikeys.APIKey
		createdAt int64
		expiresAt sql.NullInt64
	)
	if err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.Prefix, &k.KeyHash, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	k.CreatedAt = fromMillis(createdAt)
	k.ExpiresAt = fromNullMillis(expiresAt)
	return &k, nil
}
