package handshake

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	loopbackAddr = "127.0.0.1:0"
	callbackPath = "/callback"
)

// ListenFunc opens the network listener the callback server accepts on.
type ListenFunc func(network, address string) (net.Listener, error)

// Listener is a short-lived loopback HTTP server that accepts exactly one
// credential delivery on /callback?token=.
type Listener struct {
	ln     net.Listener
	server *http.Server
	slot   *slot
	logger zerolog.Logger
}

// NewListener binds an ephemeral loopback port and starts serving.
func NewListener(listen ListenFunc, logger zerolog.Logger) (*Listener, error) {
	if listen == nil {
		listen = net.Listen
	}
	ln, err := listen("tcp", loopbackAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHandshakeBind, err)
	}

	l := &Listener{
		ln:     ln,
		slot:   newSlot(),
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, l.handleCallback)
	mux.HandleFunc("/", l.handleInvalid)

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.logger.Debug().Str("addr", ln.Addr().String()).Msg("callback listener started")
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Warn().Err(err).Msg("callback listener stopped")
		}
	}()

	return l, nil
}

// Port returns the bound TCP port.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// CallbackURL is the URL the identity provider redirects the browser to.
func (l *Listener) CallbackURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", l.Port(), callbackPath)
}

// Delivered yields the first delivered token. The channel is closed once the
// listener stops.
func (l *Listener) Delivered() <-chan string {
	return l.slot.ch
}

// Stop closes the listener and every open connection without waiting for
// in-flight handlers.
func (l *Listener) Stop() {
	l.slot.close()
	if err := l.server.Close(); err != nil {
		l.logger.Debug().Err(err).Msg("callback listener close")
	}
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		l.handleInvalid(w, r)
		return
	}

	if l.slot.offer(token) {
		l.logger.Debug().Msg("credential delivered")
	} else {
		l.logger.Debug().Msg("duplicate credential delivery dropped")
	}
	writeSuccessPage(w, l.logger)
}

func (l *Listener) handleInvalid(w http.ResponseWriter, r *http.Request) {
	l.logger.Debug().Str("path", r.URL.Path).Msg("invalid callback request")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte("Invalid request"))
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
}

func writeSuccessPage(w http.ResponseWriter, logger zerolog.Logger) {
	setSecurityHeaders(w)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(successPage)); err != nil {
		logger.Warn().Err(err).Msg("failed to write success page")
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authentication Successful</title>
    <meta charset="utf-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
        .container { text-align: center; padding: 2rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authentication Successful!</h1>
        <p>You can close this window and return to your terminal.</p>
    </div>
</body>
</html>
`
