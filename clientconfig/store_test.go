package clientconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("DRIFTWATCH_TOKEN", "")
	t.Setenv("DRIFTWATCH_API_URL", "")
	t.Setenv("DRIFTWATCH_RPC_URL", "")
	return NewStore(filepath.Join(t.TempDir(), "driftwatch", "config.toml"))
}

func TestStore_LoadWithoutFileOrEnv(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load()
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = s.LoadFile()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Config{Token: "ak_abcdef0123", APIURL: "http://localhost:4000/", RPCURL: "http://localhost:50051"}))

	path, err := s.Path()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "ak_abcdef0123", cfg.Token)
	require.Equal(t, "http://localhost:4000", cfg.APIURL)
	require.Equal(t, "http://localhost:50051", cfg.RPCURL)
}

func TestStore_DefaultsFillMissingURLs(t *testing.T) {
	s := newTestStore(t)
	path, err := s.Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("token = \"tok\"\n"), 0o600))

	cfg, err := s.LoadFile()
	require.NoError(t, err)
	require.Equal(t, DefaultAPIURL, cfg.APIURL)
	require.Equal(t, DefaultRPCURL, cfg.RPCURL)
}

func TestStore_EnvOverridesAreInMemoryOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, Config{Token: "file-token"}))

	t.Setenv("DRIFTWATCH_TOKEN", "env-token")
	t.Setenv("DRIFTWATCH_API_URL", "https://self-hosted.example/")

	cfg, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.Token)
	require.Equal(t, "https://self-hosted.example", cfg.APIURL)

	onDisk, err := s.LoadFile()
	require.NoError(t, err)
	require.Equal(t, "file-token", onDisk.Token)
	require.Equal(t, DefaultAPIURL, onDisk.APIURL)
}

func TestStore_EndpointsWithoutToken(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Endpoints()
	require.NoError(t, err)
	require.Equal(t, DefaultAPIURL, cfg.APIURL)
	require.Equal(t, DefaultRPCURL, cfg.RPCURL)

	t.Setenv("DRIFTWATCH_API_URL", "http://selfhosted:8080/")
	t.Setenv("DRIFTWATCH_TOKEN", "ak_env")
	cfg, err = s.Endpoints()
	require.NoError(t, err)
	require.Equal(t, "http://selfhosted:8080", cfg.APIURL)
	require.Equal(t, DefaultRPCURL, cfg.RPCURL)
	require.Empty(t, cfg.Token)
}

func TestStore_EnvTokenWithoutFile(t *testing.T) {
	s := newTestStore(t)
	t.Setenv("DRIFTWATCH_TOKEN", "env-only")

	cfg, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "env-only", cfg.Token)
	require.Equal(t, DefaultRPCURL, cfg.RPCURL)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existed, err := s.Delete(ctx)
	require.NoError(t, err)
	require.False(t, existed)

	require.NoError(t, s.Save(ctx, Config{Token: "tok"}))
	existed, err = s.Delete(ctx)
	require.NoError(t, err)
	require.True(t, existed)

	_, err = s.LoadFile()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestConfig_Overrides(t *testing.T) {
	cfg := Config{Token: "0123456789abcdef", APIURL: DefaultAPIURL, RPCURL: DefaultRPCURL}

	merged := cfg.WithAPIURL("http://localhost:4000/").WithRPCURL("")
	require.Equal(t, "http://localhost:4000", merged.APIURL)
	require.Equal(t, DefaultRPCURL, merged.RPCURL)
	require.Equal(t, DefaultAPIURL, cfg.APIURL)

	require.Equal(t, "01234567...", cfg.TokenPreview())
	require.Equal(t, "abc...", Config{Token: "abc"}.TokenPreview())
}
