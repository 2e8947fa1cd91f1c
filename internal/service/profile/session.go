package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/ninejamarkets/market-cli/internal/config"
	"github.com/ninejamarkets/market-cli/internal/domain"
)

// DefaultProfileName names the profile created by the first login.
const DefaultProfileName = "default"

// ConfigStore loads and writes config payloads.
type ConfigStore interface {
	Load(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) error
}

// SessionStore persists login sessions into a local profile.
type SessionStore struct {
	store       ConfigStore
	profileName string
	apiURL      string
}

// NewSessionStore binds a session store to profileName. An empty name
// selects the default profile.
func NewSessionStore(store ConfigStore, profileName string, apiURL string) *SessionStore {
	return &SessionStore{store: store, profileName: strings.TrimSpace(profileName), apiURL: strings.TrimSpace(apiURL)}
}

// StoreAuth writes session credentials, creating the profile when needed.
func (s *SessionStore) StoreAuth(ctx context.Context, session domain.Session) error {
	return s.update(ctx, func(profile *domain.Profile) {
		profile.UserID = session.UserID
		profile.UserType = session.UserType
		profile.Email = session.Email
		profile.AccessToken = session.AccessToken
		profile.RefreshToken = session.RefreshToken
		if s.apiURL != "" {
			profile.APIURL = s.apiURL
		}
	})
}

// UpdateTokens stores a rotated token pair.
func (s *SessionStore) UpdateTokens(ctx context.Context, accessToken string, refreshToken string) error {
	return s.update(ctx, func(profile *domain.Profile) {
		profile.AccessToken = accessToken
		if strings.TrimSpace(refreshToken) != "" {
			profile.RefreshToken = refreshToken
		}
	})
}

// ClearSession removes tokens and identity from the profile.
func (s *SessionStore) ClearSession(ctx context.Context) (domain.Profile, error) {
	var cleared domain.Profile
	err := s.update(ctx, func(profile *domain.Profile) {
		profile.UserID = ""
		profile.UserType = ""
		profile.Email = ""
		profile.AccessToken = ""
		profile.RefreshToken = ""
		cleared = *profile
	})
	return cleared, err
}

// Upsert creates or replaces the profile called profile.Name.
func (s *SessionStore) Upsert(ctx context.Context, profile domain.Profile) error {
	cfg, err := s.load(ctx)
	if err != nil {
		return err
	}
	index, findErr := findIndex(cfg, profile.Name)
	if findErr != nil || strings.TrimSpace(profile.Name) == "" {
		cfg.Profiles = append(cfg.Profiles, profile)
		index = len(cfg.Profiles) - 1
	} else {
		cfg.Profiles[index] = profile
	}
	if profile.IsDefault || len(cfg.Profiles) == 1 {
		setDefault(&cfg, index)
	}
	return s.store.Save(ctx, cfg)
}

func (s *SessionStore) update(ctx context.Context, mutate func(*domain.Profile)) error {
	cfg, err := s.load(ctx)
	if err != nil {
		return err
	}
	index, findErr := findIndex(cfg, s.profileName)
	if findErr != nil && s.profileName == "" {
		index, findErr = findIndex(cfg, DefaultProfileName)
	}
	if findErr != nil {
		if errors.Is(findErr, ErrProfileNotFound) || errors.Is(findErr, ErrDefaultProfileNotFound) {
			name := s.profileName
			if name == "" {
				name = DefaultProfileName
			}
			cfg.Profiles = append(cfg.Profiles, domain.Profile{Name: name})
			index = len(cfg.Profiles) - 1
		} else {
			return findErr
		}
	}
	mutate(&cfg.Profiles[index])
	if len(cfg.Profiles) == 1 {
		setDefault(&cfg, index)
	}
	return s.store.Save(ctx, cfg)
}

func (s *SessionStore) load(ctx context.Context) (domain.Config, error) {
	cfg, err := s.store.Load(ctx)
	if errors.Is(err, config.ErrConfigNotFound) {
		return domain.Config{}, nil
	}
	return cfg, err
}

func setDefault(cfg *domain.Config, index int) {
	for i := range cfg.Profiles {
		cfg.Profiles[i].IsDefault = i == index
	}
}
