package handshake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func callbackFromLoginURL(t *testing.T, loginURL string) string {
	t.Helper()
	u, err := url.Parse(loginURL)
	require.NoError(t, err)
	require.Equal(t, "/cli-auth", u.Path)
	cb := u.Query().Get("callback")
	require.NotEmpty(t, cb)
	return cb
}

// deliver plays the browser following the redirect. It returns the status
// code, or 0 when the request failed.
func deliver(callbackURL, token string) (int, http.Header) {
	resp, err := http.Get(callbackURL + "?token=" + url.QueryEscape(token))
	if err != nil {
		return 0, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, resp.Header
}

func newTestListener(t *testing.T) *Listener {
	t.Helper()
	l, err := NewListener(nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(l.Stop)
	return l
}

func TestLoginURL(t *testing.T) {
	got := LoginURL("https://driftwatch.dev/", "http://127.0.0.1:5000/callback")
	require.Equal(t, "https://driftwatch.dev/cli-auth?callback=http%3A%2F%2F127.0.0.1%3A5000%2Fcallback", got)
}

func TestListener_DeliversToken(t *testing.T) {
	l := newTestListener(t)
	require.NotZero(t, l.Port())

	status, header := deliver(l.CallbackURL(), "tok-123")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, header.Get("Content-Type"), "text/html")
	require.Equal(t, "DENY", header.Get("X-Frame-Options"))

	select {
	case token := <-l.Delivered():
		require.Equal(t, "tok-123", token)
	case <-time.After(time.Second):
		t.Fatal("token was not delivered")
	}
}

func TestListener_DecodesPercentEncodedToken(t *testing.T) {
	l := newTestListener(t)

	resp, err := http.Get(l.CallbackURL() + "?token=a%2Bb%2Fc%3D%3D")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case token := <-l.Delivered():
		require.Equal(t, "a+b/c==", token)
	case <-time.After(time.Second):
		t.Fatal("token was not delivered")
	}
}

func TestListener_RejectsInvalidRequests(t *testing.T) {
	l := newTestListener(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", l.Port())

	for _, path := range []string{"/", "/other", "/callback", "/callback?token=", "/callback?code=abc"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		require.Equal(t, "Invalid request", string(body))
	}

	select {
	case token := <-l.Delivered():
		t.Fatalf("unexpected delivery %q", token)
	default:
	}
}

func TestListener_ConcurrentDeliveriesYieldExactlyOne(t *testing.T) {
	l := newTestListener(t)

	const n = 20
	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if status, _ := deliver(l.CallbackURL(), fmt.Sprintf("tok-%d", i)); status == http.StatusOK {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, int32(n), ok.Load())

	first := <-l.Delivered()
	require.NotEmpty(t, first)

	l.Stop()
	_, open := <-l.Delivered()
	require.False(t, open)
}

func TestListener_StopRefusesConnections(t *testing.T) {
	l, err := NewListener(nil, zerolog.Nop())
	require.NoError(t, err)
	cb := l.CallbackURL()
	l.Stop()

	_, err = http.Get(cb + "?token=late")
	require.Error(t, err)
}

func TestCoordinator_Delivered(t *testing.T) {
	var out bytes.Buffer
	c := &Coordinator{
		APIURL:  "https://driftwatch.example",
		Timeout: 5 * time.Second,
		Out:     &out,
		OpenBrowser: func(loginURL string) error {
			cb := callbackFromLoginURL(t, loginURL)
			go deliver(cb, "session-jwt")
			return nil
		},
	}

	token, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "session-jwt", token)
	require.Equal(t, StateDelivered, c.Outcome())
	require.Equal(t, StateClosed, c.State())
	require.Contains(t, out.String(), "https://driftwatch.example/cli-auth?callback=")
}

func TestCoordinator_BrowserFailureIsNotFatal(t *testing.T) {
	var loginURL string
	c := &Coordinator{
		APIURL:  "https://driftwatch.example",
		Timeout: 5 * time.Second,
		OpenBrowser: func(u string) error {
			loginURL = u
			cb := callbackFromLoginURL(t, u)
			go func() {
				time.Sleep(50 * time.Millisecond)
				deliver(cb, "manual")
			}()
			return errors.New("no display")
		},
	}

	token, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "manual", token)
	require.NotEmpty(t, loginURL)
}

func TestCoordinator_TimeoutStopsListener(t *testing.T) {
	var callback string
	c := &Coordinator{
		APIURL:  "https://driftwatch.example",
		Timeout: 100 * time.Millisecond,
		OpenBrowser: func(u string) error {
			callback = callbackFromLoginURL(t, u)
			return nil
		},
	}

	_, err := c.Run(context.Background())
	require.ErrorIs(t, err, ErrHandshakeTimeout)
	require.Contains(t, err.Error(), "100ms")
	require.Equal(t, StateTimedOut, c.Outcome())
	require.Equal(t, StateClosed, c.State())

	_, err = http.Get(callback + "?token=late")
	require.Error(t, err)
}

func TestCoordinator_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		APIURL:  "https://driftwatch.example",
		Timeout: time.Minute,
		OpenBrowser: func(string) error {
			cancel()
			return nil
		},
	}

	_, err := c.Run(ctx)
	require.ErrorIs(t, err, ErrDeliveryClosed)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateFailed, c.Outcome())
}

func TestCoordinator_BindFailure(t *testing.T) {
	opened := false
	c := &Coordinator{
		APIURL: "https://driftwatch.example",
		Listen: func(string, string) (net.Listener, error) {
			return nil, errors.New("address in use")
		},
		OpenBrowser: func(string) error {
			opened = true
			return nil
		},
	}

	_, err := c.Run(context.Background())
	require.ErrorIs(t, err, ErrHandshakeBind)
	require.False(t, opened)
	require.Equal(t, StateFailed, c.Outcome())
	require.Equal(t, StateClosed, c.State())
}
