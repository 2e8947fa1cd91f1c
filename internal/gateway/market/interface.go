package market

import (
	"context"
	"strings"

	"github.com/ninejamarkets/market-cli/internal/domain"
)

// AuthContext stores optional auth credentials for upstream calls.
type AuthContext struct {
	AccessToken  string
	RefreshToken string
}

// HasCredentials reports whether an access token is present.
func (a AuthContext) HasCredentials() bool {
	return strings.TrimSpace(a.AccessToken) != ""
}

// API describes all marketplace operations used by the CLI.
type API interface {
	Register(ctx context.Context, form domain.SignupForm) (domain.Account, error)
	Login(ctx context.Context, userType domain.UserType, credentials domain.Credentials) (domain.LoginResult, error)
	FetchProfile(ctx context.Context, userType domain.UserType, userID string, auth AuthContext) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userType domain.UserType, patch map[string]any, auth AuthContext) (domain.UserProfile, error)
	SendVerificationCode(ctx context.Context, userType domain.UserType, email string) error
	VerifyCode(ctx context.Context, userType domain.UserType, email string, code string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (TokenRefreshResult, error)
	Markets(ctx context.Context) ([]domain.Market, error)
	Malls(ctx context.Context) ([]domain.Mall, error)
}

// TokenRefreshResult stores rotated access/refresh credentials.
type TokenRefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}
