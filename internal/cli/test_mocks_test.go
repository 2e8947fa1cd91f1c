package cli

import (
	"context"
	"errors"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/gateway/market"
)

var errNotStubbed = errors.New("not stubbed")

type testMarketAPI struct {
	fetchProfileFn       func(context.Context, domain.UserType, string, market.AuthContext) (domain.UserProfile, error)
	refreshAccessTokenFn func(context.Context, string) (market.TokenRefreshResult, error)
	marketsFn            func(context.Context) ([]domain.Market, error)
	refreshCalls         int
}

func (m *testMarketAPI) Register(context.Context, domain.SignupForm) (domain.Account, error) {
	return domain.Account{}, errNotStubbed
}

func (m *testMarketAPI) Login(context.Context, domain.UserType, domain.Credentials) (domain.LoginResult, error) {
	return domain.LoginResult{}, errNotStubbed
}

func (m *testMarketAPI) FetchProfile(ctx context.Context, userType domain.UserType, userID string, auth market.AuthContext) (domain.UserProfile, error) {
	if m.fetchProfileFn != nil {
		return m.fetchProfileFn(ctx, userType, userID, auth)
	}
	return domain.UserProfile{ID: userID, UserType: userType}, nil
}

func (m *testMarketAPI) UpdateProfile(context.Context, domain.UserType, map[string]any, market.AuthContext) (domain.UserProfile, error) {
	return domain.UserProfile{}, errNotStubbed
}

func (m *testMarketAPI) SendVerificationCode(context.Context, domain.UserType, string) error {
	return errNotStubbed
}

func (m *testMarketAPI) VerifyCode(context.Context, domain.UserType, string, string) error {
	return errNotStubbed
}

func (m *testMarketAPI) RefreshAccessToken(ctx context.Context, refreshToken string) (market.TokenRefreshResult, error) {
	m.refreshCalls++
	if m.refreshAccessTokenFn != nil {
		return m.refreshAccessTokenFn(ctx, refreshToken)
	}
	return market.TokenRefreshResult{}, errNotStubbed
}

func (m *testMarketAPI) Markets(ctx context.Context) ([]domain.Market, error) {
	if m.marketsFn != nil {
		return m.marketsFn(ctx)
	}
	return nil, nil
}

func (m *testMarketAPI) Malls(context.Context) ([]domain.Mall, error) {
	return nil, nil
}

type testProfileResolver struct {
	profile domain.Profile
	err     error
}

func (r *testProfileResolver) Find(context.Context, string) (domain.Profile, error) {
	return r.profile, r.err
}

type memoryConfig struct {
	cfg   domain.Config
	saves int
	err   error
}

func (m *memoryConfig) Path() string {
	return "memory"
}

func (m *memoryConfig) Load(context.Context) (domain.Config, error) {
	return m.cfg, nil
}

func (m *memoryConfig) Save(_ context.Context, cfg domain.Config) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.cfg = cfg
	return nil
}
