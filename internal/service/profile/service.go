package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ninejamarkets/market-cli/internal/domain"
)

var (
	// ErrDefaultProfileNotFound indicates config has no default profile.
	ErrDefaultProfileNotFound = errors.New("no default profile found")
	// ErrProfileNotFound indicates requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)

// Loader provides config payloads.
type Loader interface {
	Load(ctx context.Context) (domain.Config, error)
}

// Resolver resolves profile names.
type Resolver struct {
	loader Loader
}

// NewResolver creates a profile resolver.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader}
}

// Find resolves explicit profile names or defaults.
func (r *Resolver) Find(ctx context.Context, profileName string) (domain.Profile, error) {
	cfg, err := r.loader.Load(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	index, err := findIndex(cfg, profileName)
	if err != nil {
		return domain.Profile{}, err
	}
	return cfg.Profiles[index], nil
}

// findIndex locates profileName (case-insensitive). An empty name selects the
// profile marked default, or the only profile when none is marked.
func findIndex(cfg domain.Config, profileName string) (int, error) {
	want := strings.TrimSpace(profileName)
	if want == "" {
		if i := slices.IndexFunc(cfg.Profiles, func(p domain.Profile) bool { return p.IsDefault }); i >= 0 {
			return i, nil
		}
		if len(cfg.Profiles) == 1 {
			return 0, nil
		}
		return -1, ErrDefaultProfileNotFound
	}

	if i := slices.IndexFunc(cfg.Profiles, func(p domain.Profile) bool {
		return strings.EqualFold(strings.TrimSpace(p.Name), want)
	}); i >= 0 {
		return i, nil
	}
	names := make([]string, 0, len(cfg.Profiles))
	for _, profile := range cfg.Profiles {
		names = append(names, profile.Name)
	}
	return -1, fmt.Errorf("%w: %s (available: %s)", ErrProfileNotFound, want, strings.Join(names, ", "))
}
