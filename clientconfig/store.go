package clientconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

const (
	configRelPath = "driftwatch/config.toml"
	lockTimeout   = time.Second
)

// Store reads and writes the config file. The zero value uses the XDG
// config location.
type Store struct {
	path string
}

// NewStore returns a Store rooted at path, or the XDG default when empty.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path resolves the config file location.
func (s *Store) Path() (string, error) {
	if s.path != "" {
		return filepath.Clean(s.path), nil
	}
	p, err := xdg.ConfigFile(configRelPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return p, nil
}

// Load returns the file config with environment overrides applied. A token
// from the environment alone is enough.
func (s *Store) Load() (*Config, error) {
	cfg, err := s.merged()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, ErrNotAuthenticated
	}
	return cfg, nil
}

// Endpoints returns the API and RPC base URLs with environment overrides
// applied. Unlike Load it does not require a token.
func (s *Store) Endpoints() (Config, error) {
	cfg, err := s.merged()
	if err != nil {
		return Config{}, err
	}
	return Config{APIURL: cfg.APIURL, RPCURL: cfg.RPCURL}, nil
}

func (s *Store) merged() (*Config, error) {
	cfg, err := s.LoadFile()
	if err != nil && !errors.Is(err, ErrNotAuthenticated) {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if overrides.Token != "" {
		cfg.Token = overrides.Token
	}
	if overrides.APIURL != "" {
		cfg.APIURL = overrides.APIURL
	}
	if overrides.RPCURL != "" {
		cfg.RPCURL = overrides.RPCURL
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads only the config file. A missing file yields ErrNotAuthenticated.
func (s *Store) LoadFile() (*Config, error) {
	path, err := s.Path()
	if err != nil {
		return nil, err
	}

	// #nosec G304: path is the CLI's own config file.
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes cfg atomically with owner-only permissions.
func (s *Store) Save(ctx context.Context, cfg Config) error {
	path, err := s.Path()
	if err != nil {
		return err
	}
	cfg.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	unlock, err := lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Delete removes the config file, reporting whether one existed.
func (s *Store) Delete(ctx context.Context) (bool, error) {
	path, err := s.Path()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	unlock, err := lock(ctx, path)
	if err != nil {
		return false, err
	}
	defer unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove config: %w", err)
	}
	return true, nil
}

// lock takes the sidecar lock file guarding writes to path.
func lock(ctx context.Context, path string) (func(), error) {
	fileLock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire config lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire config lock: timeout after %v", lockTimeout)
	}
	return func() { _ = fileLock.Unlock() }, nil
}
