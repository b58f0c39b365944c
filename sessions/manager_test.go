package sessions_test

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/driftwatch/sessions"
	fakesessionrepo "github.com/alexchoi0/driftwatch/sessions/repofakes"
	"github.com/alexchoi0/driftwatch/users"
	fakeuserrepo "github.com/alexchoi0/driftwatch/users/repofake"
)

var signingKey = []byte("test-signing-key")

func setup(t *testing.T) (*sessions.Manager, *users.User, *fakesessionrepo.FakeSessionRepo) {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	user := &users.User{Email: "dev@example.com", Name: "Dev"}
	require.NoError(t, ur.Upsert(context.Background(), user))

	sr := fakesessionrepo.NewFakeSessionRepo()
	return sessions.NewManager(sr, ur, signingKey, time.Hour), user, sr
}

func withNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := sessions.NowTimeFunc
	sessions.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { sessions.NowTimeFunc = prev })
}

func TestManager_CreateAndValidate(t *testing.T) {
	m, user, _ := setup(t)
	ctx := context.Background()

	token, session, err := m.Create(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, user.ID, session.UserID)

	gotUser, gotSession, err := m.Validate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, gotUser.ID)
	require.Equal(t, session.ID, gotSession.ID)
}

func TestManager_Validate_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		m, _, _ := setup(t)
		_, _, err := m.Validate(ctx, "not-a-token")
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})

	t.Run("api key shaped string", func(t *testing.T) {
		m, _, _ := setup(t)
		_, _, err := m.Validate(ctx, "ak_123")
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		m, user, _ := setup(t)
		claims := jwtlib.RegisteredClaims{
			Issuer:    "driftwatch",
			Subject:   user.ID,
			ID:        "forged",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		}
		forged, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("other-key"))
		require.NoError(t, err)

		_, _, err = m.Validate(ctx, forged)
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})

	t.Run("expired", func(t *testing.T) {
		m, user, _ := setup(t)
		token, _, err := m.Create(ctx, user.ID)
		require.NoError(t, err)

		withNow(t, time.Now().Add(2*time.Hour))
		_, _, err = m.Validate(ctx, token)
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})

	t.Run("revoked", func(t *testing.T) {
		m, user, _ := setup(t)
		token, _, err := m.Create(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, m.Revoke(ctx, token))

		_, _, err = m.Validate(ctx, token)
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})

	t.Run("deleted session record", func(t *testing.T) {
		m, user, repo := setup(t)
		token, session, err := m.Create(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, session.ID))

		_, _, err = m.Validate(ctx, token)
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})

	t.Run("blocked user", func(t *testing.T) {
		m, user, _ := setup(t)
		token, _, err := m.Create(ctx, user.ID)
		require.NoError(t, err)
		user.Blocked = true

		_, _, err = m.Validate(ctx, token)
		require.ErrorIs(t, err, sessions.ErrInvalidSession)
	})
}

func TestManager_Prune(t *testing.T) {
	m, user, repo := setup(t)
	ctx := context.Background()

	_, session, err := m.Create(ctx, user.ID)
	require.NoError(t, err)

	withNow(t, time.Now().Add(2*time.Hour))
	require.NoError(t, m.Prune(ctx))

	_, err = repo.Get(ctx, session.ID)
	require.Error(t, err)
}
