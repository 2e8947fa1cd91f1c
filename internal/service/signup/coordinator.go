// Package signup runs the customer signup and login sequences.
package signup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/service/appstate"
)

// SuccessMessage is shown once the profile is published.
const SuccessMessage = "SignUp Successful"

// Gateway is the subset of the marketplace API used by the coordinator.
type Gateway interface {
	Register(ctx context.Context, form domain.SignupForm) (domain.Account, error)
	Login(ctx context.Context, userType domain.UserType, credentials domain.Credentials) (domain.LoginResult, error)
	FetchProfile(ctx context.Context, userType domain.UserType, userID string, auth market.AuthContext) (domain.UserProfile, error)
}

// SessionStore persists issued credentials.
type SessionStore interface {
	StoreAuth(ctx context.Context, session domain.Session) error
}

// Coordinator validates signup forms and runs register, login, store and fetch in order.
type Coordinator struct {
	api      Gateway
	sessions SessionStore
	state    *appstate.ProfileState
	surface  *appstate.Surface
	notifier appstate.Notifier
	policy   PasswordPolicy
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithProfileState sets where the fetched profile is published.
func WithProfileState(state *appstate.ProfileState) Option {
	return func(c *Coordinator) {
		if state != nil {
			c.state = state
		}
	}
}

// WithSurface sets the surface closed after a successful signup.
func WithSurface(surface *appstate.Surface) Option {
	return func(c *Coordinator) {
		if surface != nil {
			c.surface = surface
		}
	}
}

// WithNotifier sets the user-facing message sink.
func WithNotifier(notifier appstate.Notifier) Option {
	return func(c *Coordinator) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithPasswordPolicy replaces the default strength policy.
func WithPasswordPolicy(policy PasswordPolicy) Option {
	return func(c *Coordinator) {
		c.policy = policy
	}
}

// WithLogger sets the logger failures are written to.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator builds a coordinator around api and sessions.
func NewCoordinator(api Gateway, sessions SessionStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:      api,
		sessions: sessions,
		state:    appstate.NewProfileState(),
		surface:  appstate.NewSurface("signup"),
		notifier: appstate.NewMessageLog(),
		policy:   DefaultPasswordPolicy(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProfileState returns the state the coordinator publishes to.
func (c *Coordinator) ProfileState() *appstate.ProfileState {
	return c.state
}

// Surface returns the signup surface.
func (c *Coordinator) Surface() *appstate.Surface {
	return c.surface
}

// Validate runs the local checks without calling the API.
func (c *Coordinator) Validate(form domain.SignupForm) error {
	if form.Password != form.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := c.policy.Check(form.Password); err != nil {
		return err
	}
	required := []struct {
		name  string
		value string
	}{
		{name: "firstName", value: form.FirstName},
		{name: "lastName", value: form.LastName},
		{name: "email", value: form.Email},
		{name: "phone1", value: form.Phone1},
		{name: "password", value: form.Password},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return &MissingFieldError{Field: field.name}
		}
	}
	return nil
}

// Submit validates form, then registers, logs in, stores the session and
// fetches the profile, halting at the first failure.
func (c *Coordinator) Submit(ctx context.Context, form domain.SignupForm) (domain.UserProfile, error) {
	if err := c.Validate(form); err != nil {
		return domain.UserProfile{}, c.fail("signup validation failed", err)
	}

	account, err := c.api.Register(ctx, form)
	if err != nil {
		return domain.UserProfile{}, c.fail("register failed", err)
	}
	c.logger.Info("account registered", zap.String("email", form.Email), zap.String("id", account.ID))

	credentials := domain.Credentials{Email: strings.TrimSpace(form.Email), Password: form.Password}
	result, err := c.authenticate(ctx, domain.UserTypeCustomer, credentials)
	if err != nil {
		return domain.UserProfile{}, c.fail("signup login failed", &AccountCreatedError{Email: credentials.Email, Cause: err})
	}
	profile, err := c.establish(ctx, domain.UserTypeCustomer, credentials, result)
	if err != nil {
		return domain.UserProfile{}, c.fail("signup session setup failed", err)
	}

	c.finish(profile)
	c.notifier.Success(SuccessMessage)
	c.surface.Close()
	return profile, nil
}

// Login runs the login, store and fetch steps for an existing account.
func (c *Coordinator) Login(ctx context.Context, userType domain.UserType, credentials domain.Credentials) (domain.UserProfile, error) {
	if strings.TrimSpace(credentials.Email) == "" {
		return domain.UserProfile{}, c.fail("login validation failed", &MissingFieldError{Field: "email"})
	}
	if credentials.Password == "" {
		return domain.UserProfile{}, c.fail("login validation failed", &MissingFieldError{Field: "password"})
	}
	result, err := c.authenticate(ctx, userType, credentials)
	if err != nil {
		return domain.UserProfile{}, c.fail("login failed", err)
	}
	profile, err := c.establish(ctx, userType, credentials, result)
	if err != nil {
		return domain.UserProfile{}, c.fail("login session setup failed", err)
	}
	c.finish(profile)
	c.notifier.Success("Login Successful")
	return profile, nil
}

func (c *Coordinator) authenticate(ctx context.Context, userType domain.UserType, credentials domain.Credentials) (domain.LoginResult, error) {
	result, err := c.api.Login(ctx, userType, credentials)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if strings.TrimSpace(result.AccessToken) == "" || strings.TrimSpace(result.UserID) == "" {
		return domain.LoginResult{}, ErrIncompleteLogin
	}
	return result, nil
}

// establish stores the issued session and fetches the profile it belongs to.
func (c *Coordinator) establish(ctx context.Context, userType domain.UserType, credentials domain.Credentials, result domain.LoginResult) (domain.UserProfile, error) {
	session := domain.Session{
		UserID:       result.UserID,
		UserType:     userType,
		Email:        credentials.Email,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if err := c.sessions.StoreAuth(ctx, session); err != nil {
		return domain.UserProfile{}, fmt.Errorf("store session: %w", err)
	}

	auth := market.AuthContext{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}
	profile, err := c.api.FetchProfile(ctx, userType, result.UserID, auth)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if profile.ID == "" {
		profile.ID = result.UserID
	}
	return profile, nil
}

func (c *Coordinator) finish(profile domain.UserProfile) {
	c.state.Publish(profile)
}

func (c *Coordinator) fail(msg string, err error) error {
	c.logger.Warn(msg, zap.Error(err))
	c.notifier.Error(UserMessage(err))
	return err
}
