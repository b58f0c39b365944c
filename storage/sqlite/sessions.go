package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
	"github.com/alexchoi0/driftwatch/sessions"
)

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo persists session records.
type SessionRepo struct {
	db *sql.DB
}

func (r *SessionRepo) Upsert(ctx context.Context, session *sessions.Session) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, user_id, created_at, expires_at, revoked_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    expires_at = excluded.expires_at,
    revoked_at = excluded.revoked_at`,
		session.ID, session.UserID, toMillis(session.CreatedAt), toMillis(session.ExpiresAt), nullMillis(session.RevokedAt))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	var (
		s                    sessions.Session
		createdAt, expiresAt int64
		revokedAt            sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&s.ID, &s.UserID, &createdAt, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.CreatedAt = fromMillis(createdAt)
	s.ExpiresAt = fromMillis(expiresAt)
	s.RevokedAt = fromNullMillis(revokedAt)
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, toMillis(before)); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
