// Package handshake runs the browser login handshake: a loopback callback
// listener receives the credential the identity provider redirects the
// browser to, racing a deadline.
package handshake

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds how long the coordinator waits for the browser.
const DefaultTimeout = 5 * time.Minute

// State is a step in the coordinator's lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingBrowser
	StateDelivered
	StateTimedOut
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingBrowser:
		return "awaiting_browser"
	case StateDelivered:
		return "delivered"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Coordinator drives one login handshake. A Coordinator is single-use.
type Coordinator struct {
	APIURL  string
	Timeout time.Duration

	// OpenBrowser defaults to browser.OpenURL.
	OpenBrowser func(url string) error
	// Listen defaults to net.Listen.
	Listen ListenFunc
	Out    io.Writer
	Logger *zerolog.Logger

	mu      sync.Mutex
	state   State
	outcome State
}

// State returns the current state. After Run returns it is StateClosed.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns the terminal state Run reached before closing.
func (c *Coordinator) Outcome() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Coordinator) transition(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	if s == StateDelivered || s == StateTimedOut || s == StateFailed {
		c.outcome = s
	}
}

// LoginURL embeds the callback URL into the identity provider's CLI login page.
func LoginURL(apiURL, callbackURL string) string {
	return strings.TrimRight(apiURL, "/") + "/cli-auth?callback=" + url.QueryEscape(callbackURL)
}

// Run starts the listener, points the browser at the login page and waits for
// the first delivered credential or the deadline, whichever comes first.
func (c *Coordinator) Run(ctx context.Context) (string, error) {
	logger := c.logger()
	out := c.Out
	if out == nil {
		out = io.Discard
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c.transition(StateIdle)
	l, err := NewListener(c.Listen, logger)
	if err != nil {
		c.transition(StateFailed)
		c.transition(StateClosed)
		return "", err
	}
	defer func() {
		l.Stop()
		c.transition(StateClosed)
	}()

	loginURL := LoginURL(c.APIURL, l.CallbackURL())
	c.transition(StateAwaitingBrowser)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "If the browser doesn't open, visit this URL:")
	fmt.Fprintln(out, loginURL)
	fmt.Fprintln(out)

	open := c.OpenBrowser
	if open == nil {
		open = browser.OpenURL
	}
	if err := open(loginURL); err != nil {
		logger.Warn().Err(err).Msg("failed to open browser")
	}

	fmt.Fprintln(out, "Waiting for authentication...")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case token, ok := <-l.Delivered():
		if !ok {
			c.transition(StateFailed)
			return "", ErrDeliveryClosed
		}
		c.transition(StateDelivered)
		logger.Debug().Int("port", l.Port()).Msg("handshake delivered credential")
		return token, nil
	case <-timer.C:
		c.transition(StateTimedOut)
		return "", fmt.Errorf("%w (%s)", ErrHandshakeTimeout, timeout)
	case <-ctx.Done():
		c.transition(StateFailed)
		return "", fmt.Errorf("%w: %w", ErrDeliveryClosed, ctx.Err())
	}
}

func (c *Coordinator) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return log.Logger
}
