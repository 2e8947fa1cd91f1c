package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a remote call for the same editor is in flight.
	ErrBusy = errors.New("save already in progress")
	// ErrInvalidTransition is returned for operations outside their source state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	// ErrRequiredValue is returned when a required field is saved blank.
	ErrRequiredValue = errors.New("value is required")
	// ErrInvalidCode is returned when a verification code does not match.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeExpired is returned for expired verification codes.
	ErrCodeExpired = fmt.Errorf("%w: code expired", ErrInvalidCode)
	// ErrListFull is returned when adding beyond the list cap.
	ErrListFull = errors.New("list is full")
	// ErrNoEntry is returned for list indexes that do not exist.
	ErrNoEntry = errors.New("no entry at index")
)

func transitionError(op string, state fmt.Stringer) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, state)
}
