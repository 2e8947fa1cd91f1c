package signup

import (
	"errors"
	"fmt"

	"github.com/ninejamarkets/market-cli/internal/gateway/market"
)

var (
	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrWeakPassword is returned when the password fails the strength policy.
	ErrWeakPassword = errors.New("password is too weak")
	// ErrMissingField is returned when a required form field is blank.
	ErrMissingField = errors.New("missing required field")
	// ErrAccountCreated marks a signup whose account exists but whose login failed.
	ErrAccountCreated = errors.New("account created, please log in manually")
	// ErrIncompleteLogin is returned when login succeeds without a token or user id.
	ErrIncompleteLogin = errors.New("login response is missing credentials")
)

// AccountCreatedError reports the register-ok, login-failed outcome.
type AccountCreatedError struct {
	Email string
	Cause error
}

func (e *AccountCreatedError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrAccountCreated.Error(), e.Email, e.Cause)
}

// Is matches ErrAccountCreated.
func (e *AccountCreatedError) Is(target error) bool {
	return target == ErrAccountCreated
}

func (e *AccountCreatedError) Unwrap() error {
	return e.Cause
}

// UserMessage renders err as the text shown next to the form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, ErrWeakPassword):
		return "Password is too weak. Please choose a stronger password."
	case errors.Is(err, ErrMissingField):
		var missing *MissingFieldError
		if errors.As(err, &missing) {
			return "Please fill in " + missing.Field
		}
		return "Please fill in all required fields"
	case errors.Is(err, ErrAccountCreated):
		var created *AccountCreatedError
		if errors.As(err, &created) {
			return "Account created, please log in manually: " + market.RemoteMessage(created.Cause)
		}
		return "Account created, please log in manually"
	default:
		return market.RemoteMessage(err)
	}
}

// MissingFieldError names the blank required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return ErrMissingField.Error() + ": " + e.Field
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
