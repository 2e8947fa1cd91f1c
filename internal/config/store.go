package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ninejamarkets/market-cli/internal/domain"
)

var (
	// ErrConfigNotFound is returned when config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfig is returned when config payload is malformed.
	ErrInvalidConfig = errors.New("config file is invalid")
)

// Store keeps local profiles, tokens included, in a user-only JSON file.
type Store struct {
	path string
}

// NewStoreAt creates a store bound to path. Settings.ConfigPath holds the
// resolved default.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Path returns current config path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the config file and validates its profiles.
func (s *Store) Load(_ context.Context) (domain.Config, error) {
	payload, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Config{}, ErrConfigNotFound
	}
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg domain.Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Save replaces the config file. The payload goes to a temporary file in the
// same directory first, so a failed write never truncates saved sessions.
func (s *Store) Save(_ context.Context, cfg domain.Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func validate(cfg domain.Config) error {
	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("%w: profiles is empty", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(cfg.Profiles))
	for i, profile := range cfg.Profiles {
		name := strings.ToLower(strings.TrimSpace(profile.Name))
		if name == "" {
			return fmt.Errorf("%w: profile %d has no name", ErrInvalidConfig, i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate profile %q", ErrInvalidConfig, profile.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
