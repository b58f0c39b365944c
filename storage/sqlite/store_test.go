package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/driftwatch/apikeys"
	"github.com/alexchoi0/driftwatch/benchmarks"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
	"github.com/alexchoi0/driftwatch/sessions"
	"github.com/alexchoi0/driftwatch/users"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "driftwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *Store) *users.User {
	t.Helper()
	u := &users.User{Email: "dev@example.com", Name: "Dev", PasswordHash: "hash"}
	require.NoError(t, store.Users().Upsert(context.Background(), u))
	return u
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driftwatch.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM `+migrationTable).Scan(&count))
	require.Equal(t, 1, count)
}

func TestUserRepo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	u := seedUser(t, store)
	require.NotEmpty(t, u.ID)

	byEmail, err := store.Users().GetByEmail(ctx, "dev@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, "hash", byEmail.PasswordHash)

	u.Blocked = true
	require.NoError(t, store.Users().Upsert(ctx, u))
	byID, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, byID.Blocked)

	_, err = store.Users().GetByID(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestSessionRepo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	u := seedUser(t, store)

	now := time.Now().UTC().Truncate(time.Millisecond)
	s := &sessions.Session{ID: "s1", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Sessions().Upsert(ctx, s))

	got, err := store.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, got.ExpiresAt.Equal(s.ExpiresAt))
	require.Nil(t, got.RevokedAt)

	s.RevokedAt = &now
	require.NoError(t, store.Sessions().Upsert(ctx, s))
	got, err = store.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)

	old := &sessions.Session{ID: "s2", UserID: u.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, store.Sessions().Upsert(ctx, old))
	require.NoError(t, store.Sessions().DeleteExpired(ctx, now))
	_, err = store.Sessions().Get(ctx, "s2")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	require.NoError(t, store.Sessions().Delete(ctx, "s1"))
	require.ErrorIs(t, store.Sessions().Delete(ctx, "s1"), apperrors.ErrSessionNotFound)
}

func TestAPIKeyRepo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	u := seedUser(t, store)

	key := &apikeys.APIKey{
		ID:        "k1",
		UserID:    u.ID,
		Name:      "ci",
		Prefix:    "ak_12345678",
		KeyHash:   apikeys.HashKey("ak_secret"),
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.APIKeys().Upsert(ctx, key))

	got, err := store.APIKeys().GetByHash(ctx, apikeys.HashKey("ak_secret"))
	require.NoError(t, err)
	require.Equal(t, "ci", got.Name)
	require.Nil(t, got.ExpiresAt)

	_, err = store.APIKeys().GetByHash(ctx, apikeys.HashKey("ak_other"))
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	list, err := store.APIKeys().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.APIKeys().Delete(ctx, "k1"))
	require.ErrorIs(t, store.APIKeys().Delete(ctx, "k1"), apperrors.ErrNotFound)
}

func TestBenchmarkRepo_BulkReads(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	repo := store.Benchmarks()

	require.NoError(t, repo.CreateProject(ctx, benchmarks.Project{ID: "p1", UserID: "u1", Slug: "demo", Name: "Demo", CreatedAt: time.Now()}))
	require.NoError(t, repo.CreateNamed(ctx, "branches", "b1", "p1", "main"))
	require.NoError(t, repo.CreateNamed(ctx, "branches", "b2", "p1", "dev"))
	require.NoError(t, repo.CreateNamed(ctx, "testbeds", "t1", "p1", "linux"))
	require.NoError(t, repo.CreateMeasure(ctx, benchmarks.Measure{ID: "m1", ProjectID: "p1", Name: "latency", Units: "ns"}))

	upper := 1.5
	require.NoError(t, repo.CreateThreshold(ctx, benchmarks.Threshold{
		ID: "th1", ProjectID: "p1", BranchID: "b1", TestbedID: "t1", MeasureID: "m1", UpperBoundary: &upper, MinSampleSize: 2,
	}))

	project, err := repo.ProjectBySlug(ctx, "demo")
	require.NoError(t, err)
	require.Equal(t, "p1", project.ID)

	_, err = repo.ProjectBySlug(ctx, "nope")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	branches, err := repo.BranchesByIDs(ctx, []string{"b1", "b2", "missing"})
	require.NoError(t, err)
	require.Len(t, branches, 2)

	empty, err := repo.TestbedsByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	thresholds, err := repo.ThresholdsByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, thresholds, 1)
	require.Equal(t, "b1", thresholds[0].BranchID)
	require.NotNil(t, thresholds[0].UpperBoundary)
	require.Nil(t, thresholds[0].LowerBoundary)

	measures, err := repo.MeasuresByIDs(ctx, []string{"m1"})
	require.NoError(t, err)
	require.Equal(t, "ns", measures[0].Units)

	require.ErrorIs(t, repo.CreateNamed(ctx, "users", "x", "p1", "x"), apperrors.ErrUnsupported)
}
