package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexchoi0/driftwatch/apikeys"
	fakeapikeyrepo "github.com/alexchoi0/driftwatch/apikeys/repofake"
	fakebenchmarkrepo "github.com/alexchoi0/driftwatch/benchmarks/repofake"
	"github.com/alexchoi0/driftwatch/clientauth"
	"github.com/alexchoi0/driftwatch/clientconfig"
	"github.com/alexchoi0/driftwatch/internal/config"
	"github.com/alexchoi0/driftwatch/server"
	"github.com/alexchoi0/driftwatch/sessions"
	fakesessionrepo "github.com/alexchoi0/driftwatch/sessions/repofakes"
	fakeuserrepo "github.com/alexchoi0/driftwatch/users/repofake"
)

const (
	adminEmail    = "admin@driftwatch.test"
	adminPassword = "Sup3rSecret!"
)

type backend struct {
	api *httptest.Server
	rpc *httptest.Server
}

func startBackend(t *testing.T) *backend {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("ADMIN_EMAIL", adminEmail)
	t.Setenv("ADMIN_PASSWORD", adminPassword)
	t.Setenv("SESSION_SIGNING_KEY", "cli-test-signing-key")

	cfg := config.New()
	userRepo := fakeuserrepo.NewFakeUserRepo()
	srv, err := server.New(context.Background(), cfg, server.Repos{
		Users:      userRepo,
		Sessions:   sessions.NewManager(fakesessionrepo.NewFakeSessionRepo(), userRepo, cfg.GetSessionSigningKey(), time.Hour),
		APIKeys:    apikeys.NewManager(fakeapikeyrepo.NewFakeAPIKeyRepo(), userRepo),
		Benchmarks: fakebenchmarkrepo.NewFakeBenchmarkRepo(),
	})
	require.NoError(t, err)

	b := &backend{api: httptest.NewServer(srv), rpc: httptest.NewServer(srv.RPCHandler())}
	t.Cleanup(b.api.Close)
	t.Cleanup(b.rpc.Close)
	return b
}

func newTestEnv(t *testing.T, password string) (*environment, *bytes.Buffer) {
	t.Helper()
	t.Setenv("DRIFTWATCH_TOKEN", "")
	t.Setenv("DRIFTWATCH_API_URL", "")
	t.Setenv("DRIFTWATCH_RPC_URL", "")

	out := &bytes.Buffer{}
	env := &environment{
		store:       clientconfig.NewStore(filepath.Join(t.TempDir(), "config.toml")),
		out:         out,
		errOut:      &bytes.Buffer{},
		handshake:   browserHandshake,
		newVerifier: clientauth.NewAPIVerifier,
		openBrowser: func(loginURL string) error {
			// Play the browser: submit the login form and follow the redirect
			// to the loopback callback.
			u, err := url.Parse(loginURL)
			if err != nil {
				return err
			}
			go func() {
				resp, err := http.PostForm(u.Scheme+"://"+u.Host+u.Path, url.Values{
					"email":    {adminEmail},
					"password": {password},
					"callback": {u.Query().Get("callback")},
				})
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	}
	return env, out
}

func execute(t *testing.T, env *environment, args ...string) error {
	t.Helper()
	cmd := newRootCmd(env)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestAuthLogin_BrowserHandshakeEndToEnd(t *testing.T) {
	b := startBackend(t)
	env, out := newTestEnv(t, adminPassword)

	err := execute(t, env, "auth", "login", "--api-url", b.api.URL, "--rpc-url", b.rpc.URL, "--timeout", "10s")
	require.NoError(t, err)
	require.Contains(t, out.String(), "Authenticated as: "+adminEmail)

	cfg, err := env.store.LoadFile()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Token)
	require.Equal(t, b.api.URL, cfg.APIURL)
	require.Equal(t, b.rpc.URL, cfg.RPCURL)

	out.Reset()
	require.NoError(t, execute(t, env, "auth", "status"))
	require.Contains(t, out.String(), "Authenticated")
	require.Contains(t, out.String(), cfg.Token[:8]+"...")

	out.Reset()
	require.NoError(t, execute(t, env, "auth", "logout"))
	require.Contains(t, out.String(), "Logged out successfully")

	out.Reset()
	require.NoError(t, execute(t, env, "auth", "status"))
	require.Contains(t, out.String(), "Not authenticated")
}

func TestAuthLogin_HandshakeTimeout(t *testing.T) {
	b := startBackend(t)
	env, _ := newTestEnv(t, "wrong-password")

	err := execute(t, env, "auth", "login", "--api-url", b.api.URL, "--rpc-url", b.rpc.URL, "--timeout", "300ms")
	require.Error(t, err)

	_, err = env.store.LoadFile()
	require.ErrorIs(t, err, clientconfig.ErrNotAuthenticated)
}

func TestAuthLogin_InvalidTokenNotPersisted(t *testing.T) {
	b := startBackend(t)
	env, _ := newTestEnv(t, adminPassword)

	err := execute(t, env, "auth", "login", "--token", "ak_not-a-real-key", "--api-url", b.api.URL, "--rpc-url", b.rpc.URL)
	require.ErrorIs(t, err, clientauth.ErrVerification)

	_, err = env.store.LoadFile()
	require.ErrorIs(t, err, clientconfig.ErrNotAuthenticated)
}

func TestConfigSetAndShow(t *testing.T) {
	env, out := newTestEnv(t, adminPassword)

	require.Error(t, execute(t, env, "config", "set"))
	require.NoError(t, execute(t, env, "config", "set", "--api-url", "http://localhost:4000/"))

	out.Reset()
	require.NoError(t, execute(t, env, "config", "show"))
	require.Contains(t, out.String(), "API URL: http://localhost:4000\n")
	require.Contains(t, out.String(), "RPC URL: "+clientconfig.DefaultRPCURL)
	require.Contains(t, out.String(), "Token: (none)")
}
