// Package clientconfig persists the CLI's credential and endpoint settings.
package clientconfig

import (
	"errors"
	"strings"
)

const (
	DefaultAPIURL = "https://driftwatch.dev"
	DefaultRPCURL = "https://rpc.driftwatch.dev"
)

// ErrNotAuthenticated is returned when neither the config file nor the
// environment supplies a token.
var ErrNotAuthenticated = errors.New("not authenticated")

// Config is the on-disk CLI configuration.
type Config struct {
	Token  string `toml:"token"`
	APIURL string `toml:"api_url"`
	RPCURL string `toml:"rpc_url"`
}

// envOverrides are applied in memory on Load and never written back.
type envOverrides struct {
	Token  string `env:"DRIFTWATCH_TOKEN"`
	APIURL string `env:"DRIFTWATCH_API_URL"`
	RPCURL string `env:"DRIFTWATCH_RPC_URL"`
}

// WithAPIURL returns a copy with the API base URL replaced when url is set.
func (c Config) WithAPIURL(url string) Config {
	if url != "" {
		c.APIURL = normalizeURL(url)
	}
	return c
}

// WithRPCURL returns a copy with the RPC base URL replaced when url is set.
func (c Config) WithRPCURL(url string) Config {
	if url != "" {
		c.RPCURL = normalizeURL(url)
	}
	return c
}

// TokenPreview shows the first eight characters of the token.
func (c Config) TokenPreview() string {
	if len(c.Token) <= 8 {
		return c.Token + "..."
	}
	return c.Token[:8] + "..."
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.RPCURL == "" {
		c.RPCURL = DefaultRPCURL
	}
	c.APIURL = normalizeURL(c.APIURL)
	c.RPCURL = normalizeURL(c.RPCURL)
}

func normalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}
