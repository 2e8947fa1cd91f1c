package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/platform/logging"
	"github.com/ninejamarkets/market-cli/internal/service/account"
	"github.com/ninejamarkets/market-cli/internal/service/appstate"
	"github.com/ninejamarkets/market-cli/internal/service/output"
	profilesvc "github.com/ninejamarkets/market-cli/internal/service/profile"
)

const tokenRefreshLeeway = 30 * time.Second

// authSession is the identity and client a command runs with.
type authSession struct {
	ProfileName string
	Profile     domain.Profile
	Stored      bool
	UserID      string
	UserType    domain.UserType
	Auth        market.AuthContext
	API         market.API
	Warnings    []string
}

// resolveSession merges token flags over the selected local profile.
func resolveSession(cmd *cobra.Command, deps Dependencies, flags globalFlags) authSession {
	sess := authSession{ProfileName: defaultProfileName(flags.Profile), Warnings: []string{}}
	if deps.Profiles != nil {
		if profile, err := deps.Profiles.Find(cmd.Context(), flags.Profile); err == nil {
			sess.Profile = profile
			sess.Stored = true
			sess.ProfileName = profile.Name
		}
	}

	sess.Auth.AccessToken = normalizeAccessToken(flags.Token)
	if sess.Auth.AccessToken == "" {
		sess.Auth.AccessToken = normalizeAccessToken(sess.Profile.AccessToken)
	}
	sess.Auth.RefreshToken = normalizeRefreshToken(flags.RefreshToken)
	if sess.Auth.RefreshToken == "" {
		sess.Auth.RefreshToken = extractRefreshToken(flags.Token)
	}
	if sess.Auth.RefreshToken == "" {
		sess.Auth.RefreshToken = normalizeRefreshToken(sess.Profile.RefreshToken)
	}

	sess.UserID = sess.Profile.UserID
	if subject := tokenSubject(sess.Auth.AccessToken); subject != "" && (sess.UserID == "" || strings.TrimSpace(flags.Token) != "") {
		sess.UserID = subject
	}
	sess.UserType = sess.Profile.UserType
	if sess.UserType == "" {
		sess.UserType = domain.UserTypeCustomer
	}
	sess.API = apiFor(cmd, deps, flags.APIURL, sess.Profile.APIURL)
	return sess
}

// apiFor returns the default client unless a base url override is set.
func apiFor(cmd *cobra.Command, deps Dependencies, override string, profileURL string) market.API {
	baseURL := strings.TrimSpace(override)
	if baseURL == "" {
		baseURL = strings.TrimSpace(profileURL)
	}
	if baseURL == "" || deps.NewMarket == nil {
		return deps.Market
	}
	api := deps.NewMarket(baseURL)
	enableHTTPTrace(cmd, api)
	return api
}

func requireAPI(cmd *cobra.Command, format output.Format, sess authSession, flags globalFlags) error {
	if sess.API != nil {
		return nil
	}
	return emitError(cmd, format, sess.ProfileName, string(sess.UserType), flags.Output,
		"MARKET_CONFIG_ERROR", "Marketplace API client is not available.")
}

func requireSession(cmd *cobra.Command, format output.Format, sess authSession, flags globalFlags) error {
	if err := requireAPI(cmd, format, sess, flags); err != nil {
		return err
	}
	if !sess.Auth.HasCredentials() {
		return emitError(cmd, format, sess.ProfileName, string(sess.UserType), flags.Output,
			"MARKET_AUTH_REQUIRED", "Authentication is required. Run `market login` or provide --token.")
	}
	if strings.TrimSpace(sess.UserID) == "" {
		return emitError(cmd, format, sess.ProfileName, string(sess.UserType), flags.Output,
			"MARKET_AUTH_REQUIRED", "Unable to determine the signed-in user. Run `market login` again.")
	}
	return nil
}

// refreshIfExpired rotates an access token whose exp claim has passed. A
// failed refresh only adds a warning; the request still goes out once.
func refreshIfExpired(ctx context.Context, deps Dependencies, sess *authSession) {
	if !tokenExpired(sess.Auth.AccessToken, time.Now().UTC(), tokenRefreshLeeway) {
		return
	}
	if strings.TrimSpace(sess.Auth.RefreshToken) == "" {
		sess.Warnings = append(sess.Warnings, "access token expired and no refresh token is available")
		return
	}
	result, err := sess.API.RefreshAccessToken(ctx, sess.Auth.RefreshToken)
	if err != nil {
		logging.LogWarn(ctx, "token refresh failed", zap.Error(err))
		sess.Warnings = append(sess.Warnings, "automatic token refresh failed before request")
		return
	}
	accessToken := normalizeAccessToken(result.AccessToken)
	if accessToken == "" {
		sess.Warnings = append(sess.Warnings, "refresh response did not include an access token")
		return
	}
	sess.Auth.AccessToken = accessToken
	if candidate := normalizeRefreshToken(result.RefreshToken); candidate != "" {
		sess.Auth.RefreshToken = candidate
	}
	sess.Warnings = append(sess.Warnings, "access token refreshed automatically")
	logging.LogInfo(ctx, "access token refreshed", zap.String("profile", sess.ProfileName))

	if !sess.Stored || deps.Config == nil {
		return
	}
	store := profilesvc.NewSessionStore(deps.Config, sess.Profile.Name, "")
	if err := store.UpdateTokens(ctx, sess.Auth.AccessToken, sess.Auth.RefreshToken); err != nil {
		logging.LogWarn(ctx, "persist rotated tokens failed", zap.Error(err))
		sess.Warnings = append(sess.Warnings, "failed to persist rotated tokens in profile config")
	}
}

func fetchSessionProfile(ctx context.Context, sess authSession) (domain.UserProfile, error) {
	profile, err := sess.API.FetchProfile(ctx, sess.UserType, sess.UserID, sess.Auth)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if profile.ID == "" {
		profile.ID = sess.UserID
	}
	profile.UserType = sess.UserType
	return profile, nil
}

// openEditor loads the signed-in profile and binds an account editor to it.
func openEditor(cmd *cobra.Command, deps Dependencies, sess *authSession) (*account.Editor, *appstate.ProfileState, error) {
	ctx := cmd.Context()
	refreshIfExpired(ctx, deps, sess)
	profile, err := fetchSessionProfile(ctx, *sess)
	if err != nil {
		return nil, nil, err
	}
	state := appstate.NewProfileState()
	state.Publish(profile)
	edit, err := account.New(sess.API, state, sess.Auth,
		account.WithNotifier(newStreamNotifier(cmd.ErrOrStderr())),
		account.WithLogger(logging.FromContext(ctx)),
	)
	if err != nil {
		return nil, nil, err
	}
	return edit, state, nil
}

func sessionStore(deps Dependencies, flags globalFlags) (*profilesvc.SessionStore, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("profile config store is not available")
	}
	return profilesvc.NewSessionStore(deps.Config, flags.Profile, flags.APIURL), nil
}

// streamNotifier prints user-facing messages as they happen.
type streamNotifier struct {
	out io.Writer
}

func newStreamNotifier(out io.Writer) *streamNotifier {
	return &streamNotifier{out: out}
}

func (n *streamNotifier) Success(text string) { n.write("✔", text) }

func (n *streamNotifier) Error(text string) { n.write("✖", text) }

func (n *streamNotifier) Info(text string) { n.write("•", text) }

func (n *streamNotifier) write(mark string, text string) {
	if n.out == nil || strings.TrimSpace(text) == "" {
		return
	}
	_, _ = fmt.Fprintf(n.out, "%s %s\n", mark, text)
}
