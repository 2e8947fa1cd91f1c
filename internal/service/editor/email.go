package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// EmailState is the state of an EmailField.
type EmailState int

const (
	EmailViewing EmailState = iota
	AwaitingOldCode
	EmailEditing
	AwaitingNewCode
	EmailSaving
)

func (s EmailState) String() string {
	switch s {
	case EmailViewing:
		return "viewing"
	case AwaitingOldCode:
		return "awaiting-old-code"
	case EmailEditing:
		return "editing"
	case AwaitingNewCode:
		return "awaiting-new-code"
	case EmailSaving:
		return "saving"
	default:
		return fmt.Sprintf("email-state(%d)", int(s))
	}
}

// CodeTarget names the address a code prompt is for.
type CodeTarget string

const (
	CodeForNone CodeTarget = "none"
	CodeForOld  CodeTarget = "old"
	CodeForNew  CodeTarget = "new"
)

// Verifier sends and checks one-time codes. VerifyCode should return
// ErrInvalidCode or ErrCodeExpired for rejected codes.
type Verifier interface {
	SendVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email string, code string) error
}

// EmailSnapshot is a read-only view of an email field.
type EmailSnapshot struct {
	State       string     `json:"state"`
	Value       string     `json:"value"`
	Pending     string     `json:"pending,omitempty"`
	OldVerified bool       `json:"old_verified"`
	NewVerified bool       `json:"new_verified"`
	CodeFor     CodeTarget `json:"code_for"`
	Busy        bool       `json:"busy"`
}

// EmailField changes an email address only after the current and the new
// address have both been proven with a one-time code, in that order.
type EmailField struct {
	verifier Verifier
	save     SaveFunc

	mu        sync.Mutex
	state     EmailState
	committed string
	pending   string
	inFlight  bool
}

// NewEmailField returns an email field in Viewing state.
func NewEmailField(committed string, verifier Verifier, save SaveFunc) *EmailField {
	return &EmailField{verifier: verifier, save: save, committed: committed}
}

// Value returns the committed email.
func (e *EmailField) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed
}

// Pending returns the replacement email being verified.
func (e *EmailField) Pending() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// State returns the current state.
func (e *EmailField) State() EmailState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Busy reports whether a remote call is in flight.
func (e *EmailField) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight || e.state == EmailSaving
}

// OldVerified reports whether ownership of the current address was proven.
func (e *EmailField) OldVerified() bool {
	return oldVerified(e.State())
}

// NewVerified reports whether ownership of the new address was proven.
func (e *EmailField) NewVerified() bool {
	return e.State() == EmailSaving
}

// CodeFor returns which address the pending code prompt is for.
func (e *EmailField) CodeFor() CodeTarget {
	return codeFor(e.State())
}

// Snapshot returns a consistent view of the field.
func (e *EmailField) Snapshot() EmailSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EmailSnapshot{
		State:       e.state.String(),
		Value:       e.committed,
		Pending:     e.pending,
		OldVerified: oldVerified(e.state),
		NewVerified: e.state == EmailSaving,
		CodeFor:     codeFor(e.state),
		Busy:        e.inFlight || e.state == EmailSaving,
	}
}

func oldVerified(state EmailState) bool {
	return state == EmailEditing || state == AwaitingNewCode || state == EmailSaving
}

func codeFor(state EmailState) CodeTarget {
	switch state {
	case AwaitingOldCode:
		return CodeForOld
	case AwaitingNewCode:
		return CodeForNew
	default:
		return CodeForNone
	}
}

// acquire checks the source state and marks a remote call in flight.
func (e *EmailField) acquire(op string, want EmailState) error {
	if e.inFlight || e.state == EmailSaving {
		return ErrBusy
	}
	if e.state != want {
		return transitionError(op, e.state)
	}
	e.inFlight = true
	return nil
}

// RequestChange sends a code to the current address. Without a current
// address the field goes straight to Editing.
func (e *EmailField) RequestChange(ctx context.Context) error {
	e.mu.Lock()
	if err := e.acquire("request change", EmailViewing); err != nil {
		e.mu.Unlock()
		return err
	}
	current := strings.TrimSpace(e.committed)
	if current == "" {
		e.inFlight = false
		e.state = EmailEditing
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	err := e.verifier.SendVerificationCode(ctx, current)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return fmt.Errorf("send code to %s: %w", current, err)
	}
	e.state = AwaitingOldCode
	return nil
}

// SubmitOldCode verifies the code sent to the current address.
func (e *EmailField) SubmitOldCode(ctx context.Context, code string) error {
	e.mu.Lock()
	if err := e.acquire("submit old code", AwaitingOldCode); err != nil {
		e.mu.Unlock()
		return err
	}
	current := e.committed
	e.mu.Unlock()

	err := e.verifier.VerifyCode(ctx, current, strings.TrimSpace(code))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return fmt.Errorf("verify code for %s: %w", current, err)
	}
	e.state = EmailEditing
	e.pending = ""
	return nil
}

// SubmitNewEmail sends a code to the replacement address.
func (e *EmailField) SubmitNewEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	e.mu.Lock()
	if err := e.acquire("submit new email", EmailEditing); err != nil {
		e.mu.Unlock()
		return err
	}
	if email == "" {
		e.inFlight = false
		e.mu.Unlock()
		return fmt.Errorf("email: %w", ErrRequiredValue)
	}
	e.mu.Unlock()

	err := e.verifier.SendVerificationCode(ctx, email)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return fmt.Errorf("send code to %s: %w", email, err)
	}
	e.pending = email
	e.state = AwaitingNewCode
	return nil
}

// SubmitNewCode verifies the code sent to the replacement address and then
// saves it. A failed save returns to Editing and the new address has to be
// verified again.
func (e *EmailField) SubmitNewCode(ctx context.Context, code string) error {
	e.mu.Lock()
	if err := e.acquire("submit new code", AwaitingNewCode); err != nil {
		e.mu.Unlock()
		return err
	}
	email := e.pending
	e.mu.Unlock()

	if err := e.verifier.VerifyCode(ctx, email, strings.TrimSpace(code)); err != nil {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
		return fmt.Errorf("verify code for %s: %w", email, err)
	}

	e.mu.Lock()
	e.inFlight = false
	e.state = EmailSaving
	e.mu.Unlock()

	err := e.save(ctx, email)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = EmailEditing
		return fmt.Errorf("save email: %w", err)
	}
	e.committed = email
	e.pending = ""
	e.state = EmailViewing
	return nil
}

// Resend sends the code for the address currently awaiting verification again.
func (e *EmailField) Resend(ctx context.Context) error {
	e.mu.Lock()
	if e.inFlight || e.state == EmailSaving {
		e.mu.Unlock()
		return ErrBusy
	}
	var target string
	switch e.state {
	case AwaitingOldCode:
		target = e.committed
	case AwaitingNewCode:
		target = e.pending
	default:
		state := e.state
		e.mu.Unlock()
		return transitionError("resend", state)
	}
	e.inFlight = true
	e.mu.Unlock()

	err := e.verifier.SendVerificationCode(ctx, target)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return fmt.Errorf("resend code to %s: %w", target, err)
	}
	return nil
}

// Cancel abandons the change from any state except Saving.
func (e *EmailField) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight || e.state == EmailSaving {
		return ErrBusy
	}
	e.state = EmailViewing
	e.pending = ""
	return nil
}

// Sync replaces the committed email from shared state while Viewing.
func (e *EmailField) Sync(committed string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EmailViewing || e.inFlight {
		return false
	}
	e.committed = committed
	return true
}
