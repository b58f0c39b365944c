// Package apiclient calls the driftwatch server on behalf of the CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// WhoAmIPath is the RPC route that resolves the presented credential.
const WhoAmIPath = "/rpc/v1/auth/me"

// ErrUnauthorized is returned when the server rejects the credential.
var ErrUnauthorized = errors.New("credential rejected by server")

// Profile is the identity the server resolved the credential to.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	AuthKind string `json:"auth_kind"`
}

// Client issues bearer-authenticated requests.
type Client struct {
	rpcURL string
	http   *http.Client
}

// New returns a client that presents token on every request.
func New(ctx context.Context, rpcURL, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		rpcURL: strings.TrimRight(rpcURL, "/"),
		http:   httpClient,
	}
}

// WhoAmI asks the RPC endpoint which user the credential belongs to.
func (c *Client) WhoAmI(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.post(ctx, c.rpcURL+WhoAmIPath, struct{}{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("call %s: unexpected status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
