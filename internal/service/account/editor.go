// Package account binds the profile edit state machines to the marketplace
// profile endpoints of the signed-in user type.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/service/appstate"
	"github.com/ninejamarkets/market-cli/internal/service/editor"
)

// Profile field names, as sent in update patches.
const (
	FieldEmail        = "email"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldBrandName    = "brandName"
	FieldDateOfBirth  = "dateOfBirth"
	FieldMarketName   = "marketName"
	FieldMallName     = "mallName"
	FieldPhoneNumbers = "phoneNumbers"
	FieldAddresses    = "addresses"
)

// UpdateFailedMessage is shown when a profile update is rejected.
const UpdateFailedMessage = "Failed to update the field"

// ErrNoProfile is returned when no profile has been published yet.
var ErrNoProfile = errors.New("no profile loaded")

// ErrUnknownField is returned for field names the user type does not have.
var ErrUnknownField = errors.New("unknown profile field")

// Gateway is the subset of the marketplace API used by the editor.
type Gateway interface {
	UpdateProfile(ctx context.Context, userType domain.UserType, patch map[string]any, auth market.AuthContext) (domain.UserProfile, error)
	SendVerificationCode(ctx context.Context, userType domain.UserType, email string) error
	VerifyCode(ctx context.Context, userType domain.UserType, email string, code string) error
}

// Editor holds one state machine per editable profile field.
type Editor struct {
	api      Gateway
	auth     market.AuthContext
	state    *appstate.ProfileState
	notifier appstate.Notifier
	logger   *zap.Logger
	userType domain.UserType

	email     *editor.EmailField
	fields    map[string]*editor.Field
	order     []string
	phones    *editor.List[string]
	addresses *editor.List[domain.Address]

	unsubscribe func()
}

// Option configures an Editor.
type Option func(*Editor)

// WithNotifier sets the user-facing message sink.
func WithNotifier(notifier appstate.Notifier) Option {
	return func(e *Editor) {
		if notifier != nil {
			e.notifier = notifier
		}
	}
}

// WithLogger sets the logger failures are written to.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New builds the field set for the profile currently held by state.
func New(api Gateway, state *appstate.ProfileState, auth market.AuthContext, opts ...Option) (*Editor, error) {
	profile, ok := state.Get()
	if !ok {
		return nil, ErrNoProfile
	}
	e := &Editor{
		api:      api,
		auth:     auth,
		state:    state,
		notifier: appstate.NewMessageLog(),
		logger:   zap.NewNop(),
		userType: profile.UserType,
		fields:   map[string]*editor.Field{},
	}
	if e.userType == "" {
		e.userType = domain.UserTypeCustomer
	}
	for _, opt := range opts {
		opt(e)
	}

	e.email = editor.NewEmailField(profile.Email, &verifier{editor: e}, e.saveScalar(FieldEmail))
	if e.userType == domain.UserTypeMerchant {
		e.addField(FieldBrandName, profile.BrandName, editor.Required())
		e.addField(FieldMarketName, profile.MarketName)
		e.addField(FieldMallName, profile.MallName)
	} else {
		e.addField(FieldFirstName, profile.FirstName, editor.Required())
		e.addField(FieldLastName, profile.LastName, editor.Required())
		e.addField(FieldDateOfBirth, profile.DateOfBirth)
	}

	e.phones = editor.NewList(FieldPhoneNumbers, profile.Phones(), e.savePhones,
		editor.WithMax[string](domain.MaxPhoneNumbers),
		editor.WithDropEmpty(func(v string) bool { return strings.TrimSpace(v) == "" }),
	)
	addressOpts := []editor.ListOption[domain.Address]{
		editor.WithDropEmpty(func(a domain.Address) bool { return a.IsBlank() }),
	}
	if e.userType == domain.UserTypeMerchant {
		addressOpts = append(addressOpts, editor.WithMax[domain.Address](domain.MaxAddresses))
	}
	e.addresses = editor.NewList(FieldAddresses, profile.Addresses, e.saveAddresses, addressOpts...)

	e.unsubscribe = state.Subscribe(e.sync)
	return e, nil
}

// Close detaches the editor from the profile state. Later publishes no
// longer reach its fields.
func (e *Editor) Close() {
	e.unsubscribe()
}

func (e *Editor) addField(name string, committed string, opts ...editor.FieldOption) {
	e.fields[name] = editor.NewField(name, committed, e.saveScalar(name), opts...)
	e.order = append(e.order, name)
}

// UserType returns the user type the field set was built for.
func (e *Editor) UserType() domain.UserType {
	return e.userType
}

// Email returns the email field.
func (e *Editor) Email() *editor.EmailField {
	return e.email
}

// Phones returns the phone list editor.
func (e *Editor) Phones() *editor.List[string] {
	return e.phones
}

// Addresses returns the address list editor.
func (e *Editor) Addresses() *editor.List[domain.Address] {
	return e.addresses
}

// FieldNames lists the plain fields in display order.
func (e *Editor) FieldNames() []string {
	return append([]string(nil), e.order...)
}

// Field returns the plain field called name.
func (e *Editor) Field(name string) (*editor.Field, error) {
	field, ok := e.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w %q for %s profile", ErrUnknownField, name, e.userType)
	}
	return field, nil
}

// SetField runs begin, set and save on a plain field. The value is trimmed
// before it becomes pending, so the committed value matches what was sent.
func (e *Editor) SetField(ctx context.Context, name string, value string) error {
	field, err := e.Field(name)
	if err != nil {
		return err
	}
	if err := field.Begin(); err != nil {
		return err
	}
	if err := field.SetPending(strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := field.Save(ctx); err != nil {
		if errors.Is(err, editor.ErrRequiredValue) {
			_ = field.Cancel()
		}
		return err
	}
	return nil
}

// Update sends a single-field patch and publishes the returned profile.
func (e *Editor) Update(ctx context.Context, field string, value any) (domain.UserProfile, error) {
	profile, err := e.api.UpdateProfile(ctx, e.userType, map[string]any{field: value}, e.auth)
	if err != nil {
		e.logger.Warn("profile update failed", zap.String("field", field), zap.Error(err))
		e.notifier.Error(UpdateFailedMessage)
		return domain.UserProfile{}, err
	}
	if profile.UserType == "" {
		profile.UserType = e.userType
	}
	e.logger.Info("profile updated", zap.String("field", field))
	e.state.Publish(profile)
	e.notifier.Success(fmt.Sprintf("Updated %s", field))
	return profile, nil
}

func (e *Editor) saveScalar(field string) editor.SaveFunc {
	return func(ctx context.Context, value string) error {
		_, err := e.Update(ctx, field, strings.TrimSpace(value))
		return err
	}
}

func (e *Editor) savePhones(ctx context.Context, values []string) error {
	phones := make([]string, 0, len(values))
	for _, value := range values {
		phones = append(phones, strings.TrimSpace(value))
	}
	_, err := e.Update(ctx, FieldPhoneNumbers, phones)
	return err
}

func (e *Editor) saveAddresses(ctx context.Context, values []domain.Address) error {
	_, err := e.Update(ctx, FieldAddresses, values)
	return err
}

func (e *Editor) sync(profile domain.UserProfile) {
	e.email.Sync(profile.Email)
	for name, field := range e.fields {
		field.Sync(scalarValue(profile, name))
	}
	e.phones.Sync(profile.Phones())
	e.addresses.Sync(profile.Addresses)
}

func scalarValue(profile domain.UserProfile, name string) string {
	switch name {
	case FieldEmail:
		return profile.Email
	case FieldFirstName:
		return profile.FirstName
	case FieldLastName:
		return profile.LastName
	case FieldBrandName:
		return profile.BrandName
	case FieldDateOfBirth:
		return profile.DateOfBirth
	case FieldMarketName:
		return profile.MarketName
	case FieldMallName:
		return profile.MallName
	default:
		return ""
	}
}

// View is a snapshot of every editor, for display.
type View struct {
	UserType  domain.UserType                    `json:"user_type"`
	Email     editor.EmailSnapshot               `json:"email"`
	Fields    []editor.Snapshot                  `json:"fields"`
	Phones    []editor.EntryView[string]         `json:"phones"`
	Addresses []editor.EntryView[domain.Address] `json:"addresses"`
}

// View returns the current state of all editors.
func (e *Editor) View() View {
	fields := make([]editor.Snapshot, 0, len(e.order))
	for _, name := range e.order {
		fields = append(fields, e.fields[name].Snapshot())
	}
	return View{
		UserType:  e.userType,
		Email:     e.email.Snapshot(),
		Fields:    fields,
		Phones:    e.phones.Entries(),
		Addresses: e.addresses.Entries(),
	}
}
