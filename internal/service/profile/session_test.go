package profile_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninejamarkets/market-cli/internal/config"
	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/service/profile"
)

func TestStoreAuthCreatesDefaultProfile(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	sessions := profile.NewSessionStore(store, "", "https://api.example.test")
	ctx := context.Background()

	err := sessions.StoreAuth(ctx, domain.Session{
		UserID:       "u-1",
		UserType:     domain.UserTypeCustomer,
		Email:        "ada@example.test",
		AccessToken:  "access",
		RefreshToken: "refresh",
	})
	require.NoError(t, err)

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cfg.Profiles, 1)
	got := cfg.Profiles[0]
	assert.Equal(t, profile.DefaultProfileName, got.Name)
	assert.True(t, got.IsDefault)
	assert.True(t, got.HasSession())
	assert.Equal(t, "https://api.example.test", got.APIURL)
}

func TestStoreAuthUpdatesNamedProfile(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.Config{Profiles: []domain.Profile{
		{Name: "default", IsDefault: true},
		{Name: "shop", APIURL: "https://staging.example.test"},
	}}))

	sessions := profile.NewSessionStore(store, "shop", "")
	require.NoError(t, sessions.StoreAuth(ctx, domain.Session{UserID: "m-1", UserType: domain.UserTypeMerchant, AccessToken: "a"}))

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cfg.Profiles, 2)
	assert.Equal(t, "m-1", cfg.Profiles[1].UserID)
	assert.Equal(t, "https://staging.example.test", cfg.Profiles[1].APIURL)
	assert.True(t, cfg.Profiles[0].IsDefault)
	assert.False(t, cfg.Profiles[1].IsDefault)
}

func TestUpdateTokensKeepsRefreshWhenEmpty(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	sessions := profile.NewSessionStore(store, "", "")
	ctx := context.Background()
	require.NoError(t, sessions.StoreAuth(ctx, domain.Session{UserID: "u-1", AccessToken: "a1", RefreshToken: "r1"}))

	require.NoError(t, sessions.UpdateTokens(ctx, "a2", ""))

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", cfg.Profiles[0].AccessToken)
	assert.Equal(t, "r1", cfg.Profiles[0].RefreshToken)
}

func TestClearSessionRemovesTokens(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	sessions := profile.NewSessionStore(store, "", "")
	ctx := context.Background()
	require.NoError(t, sessions.StoreAuth(ctx, domain.Session{UserID: "u-1", Email: "a@b.c", AccessToken: "a1", RefreshToken: "r1"}))

	cleared, err := sessions.ClearSession(ctx)
	require.NoError(t, err)
	assert.False(t, cleared.HasSession())
	assert.Equal(t, profile.DefaultProfileName, cleared.Name)

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cfg.Profiles[0].RefreshToken)
}

func TestUpsertMovesDefault(t *testing.T) {
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	sessions := profile.NewSessionStore(store, "", "")
	ctx := context.Background()

	require.NoError(t, sessions.Upsert(ctx, domain.Profile{Name: "default"}))
	require.NoError(t, sessions.Upsert(ctx, domain.Profile{Name: "staging", IsDefault: true, APIURL: "https://staging.example.test"}))

	cfg, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cfg.Profiles, 2)
	assert.False(t, cfg.Profiles[0].IsDefault)
	assert.True(t, cfg.Profiles[1].IsDefault)
}
