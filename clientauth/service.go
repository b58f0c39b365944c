// Package clientauth implements the CLI's login, status and logout flows.
package clientauth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/alexchoi0/driftwatch/apiclient"
	"github.com/alexchoi0/driftwatch/clientconfig"
)

// ErrVerification wraps any failure to confirm a credential with the server.
var ErrVerification = errors.New("token validation failed")

// Verifier resolves a credential to the identity it belongs to.
type Verifier interface {
	WhoAmI(ctx context.Context) (*apiclient.Profile, error)
}

// HandshakeFunc obtains a credential through the browser.
type HandshakeFunc func(ctx context.Context, apiURL string) (string, error)

// VerifierFactory builds a Verifier for the given RPC endpoint and token.
type VerifierFactory func(ctx context.Context, rpcURL, token string) Verifier

// Service runs the auth subcommands against a config Store.
type Service struct {
	Store       *clientconfig.Store
	Handshake   HandshakeFunc
	NewVerifier VerifierFactory
	Out         io.Writer
}

// LoginOptions carries the flags of `auth login`.
type LoginOptions struct {
	Token  string
	APIURL string
	RPCURL string
}

// Login obtains a credential, verifies it, and only then persists it.
// Environment overrides pick the endpoints used for the handshake and the
// verification but are never written to the file.
func (s *Service) Login(ctx context.Context, opts LoginOptions) (*apiclient.Profile, error) {
	endpoints, err := s.Store.Endpoints()
	if err != nil {
		return nil, err
	}
	endpoints = endpoints.WithAPIURL(opts.APIURL).WithRPCURL(opts.RPCURL)
	cfg := s.baseConfig().WithAPIURL(opts.APIURL).WithRPCURL(opts.RPCURL)

	token := opts.Token
	if token != "" {
		fmt.Fprintln(s.Out, "Using provided API token...")
	} else {
		fmt.Fprintln(s.Out, "Opening browser for authentication...")
		token, err = s.Handshake(ctx, endpoints.APIURL)
		if err != nil {
			return nil, err
		}
	}
	cfg.Token = token

	fmt.Fprintln(s.Out, "Validating token...")
	profile, err := s.NewVerifier(ctx, endpoints.RPCURL, token).WhoAmI(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("credential verification failed")
		return nil, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	if err := s.Store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}

	path, _ := s.Store.Path()
	fmt.Fprintln(s.Out)
	fmt.Fprintf(s.Out, "Authenticated as: %s\n", profile.Email)
	fmt.Fprintf(s.Out, "Config saved to: %s\n", path)
	return profile, nil
}

// Status reports the stored credential without contacting the server.
func (s *Service) Status() error {
	cfg, err := s.Store.Load()
	if errors.Is(err, clientconfig.ErrNotAuthenticated) {
		fmt.Fprintln(s.Out, "Not authenticated")
		fmt.Fprintln(s.Out)
		fmt.Fprintln(s.Out, "Run 'driftwatch auth login' to authenticate via browser")
		fmt.Fprintln(s.Out, "Or 'driftwatch auth login --token <token>' to use an API token")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(s.Out, "Authenticated")
	fmt.Fprintf(s.Out, "API URL: %s\n", cfg.APIURL)
	fmt.Fprintf(s.Out, "RPC URL: %s\n", cfg.RPCURL)
	fmt.Fprintf(s.Out, "Token: %s\n", cfg.TokenPreview())
	return nil
}

// Logout removes the stored credential.
func (s *Service) Logout(ctx context.Context) error {
	existed, err := s.Store.Delete(ctx)
	if err != nil {
		return err
	}
	if existed {
		fmt.Fprintln(s.Out, "Logged out successfully")
	} else {
		fmt.Fprintln(s.Out, "Not logged in")
	}
	return nil
}

// baseConfig starts from the saved endpoints so a re-login keeps a
// self-hosted URL, falling back to defaults.
func (s *Service) baseConfig() clientconfig.Config {
	if saved, err := s.Store.LoadFile(); err == nil {
		return clientconfig.Config{APIURL: saved.APIURL, RPCURL: saved.RPCURL}
	}
	return clientconfig.Config{APIURL: clientconfig.DefaultAPIURL, RPCURL: clientconfig.DefaultRPCURL}
}

// NewAPIVerifier adapts apiclient.New to a VerifierFactory.
func NewAPIVerifier(ctx context.Context, rpcURL, token string) Verifier {
	return apiclient.New(ctx, rpcURL, token)
}
