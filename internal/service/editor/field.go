// Package editor implements the inline edit state machines used by the
// profile editor: plain fields, the verified email field and entry lists.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// State is the edit state of a Field.
type State int

const (
	Viewing State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SaveFunc persists a field value remotely.
type SaveFunc func(ctx context.Context, value string) error

// Snapshot is a read-only view of a field.
type Snapshot struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Value    string `json:"value"`
	Pending  string `json:"pending,omitempty"`
	Busy     bool   `json:"busy"`
	Required bool   `json:"required"`
}

// Field is a single inline-editable value. The committed value only changes
// after save succeeds.
type Field struct {
	name     string
	required bool
	save     SaveFunc

	mu        sync.Mutex
	state     State
	committed string
	pending   string
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// Required rejects blank values on save.
func Required() FieldOption {
	return func(f *Field) {
		f.required = true
	}
}

// NewField returns a field in Viewing state.
func NewField(name string, committed string, save SaveFunc, opts ...FieldOption) *Field {
	f := &Field{name: name, committed: committed, save: save}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the field name.
func (f *Field) Name() string {
	return f.name
}

// Value returns the committed value.
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.committed
}

// Pending returns the edit buffer.
func (f *Field) Pending() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// State returns the current state.
func (f *Field) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a save is in flight.
func (f *Field) Busy() bool {
	return f.State() == Saving
}

// Snapshot returns a consistent view of the field.
func (f *Field) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Name:     f.name,
		State:    f.state.String(),
		Value:    f.committed,
		Pending:  f.pending,
		Busy:     f.state == Saving,
		Required: f.required,
	}
}

// Begin copies the committed value into the edit buffer.
func (f *Field) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Viewing:
		f.state = Editing
		f.pending = f.committed
		return nil
	case Saving:
		return ErrBusy
	default:
		return transitionError("begin", f.state)
	}
}

// SetPending replaces the edit buffer.
func (f *Field) SetPending(value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Editing:
		f.pending = value
		return nil
	case Saving:
		return ErrBusy
	default:
		return transitionError("set", f.state)
	}
}

// Cancel discards the edit buffer.
func (f *Field) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Editing:
		f.state = Viewing
		f.pending = ""
		return nil
	case Saving:
		return ErrBusy
	default:
		return transitionError("cancel", f.state)
	}
}

// Save sends the edit buffer. On failure the field returns to Editing with
// the buffer intact.
func (f *Field) Save(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case Editing:
	case Saving:
		f.mu.Unlock()
		return ErrBusy
	default:
		state := f.state
		f.mu.Unlock()
		return transitionError("save", state)
	}
	if f.required && strings.TrimSpace(f.pending) == "" {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", f.name, ErrRequiredValue)
	}
	value := f.pending
	f.state = Saving
	f.mu.Unlock()

	err := f.save(ctx, value)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Editing
		return fmt.Errorf("save %s: %w", f.name, err)
	}
	f.committed = value
	f.pending = ""
	f.state = Viewing
	return nil
}

// Sync replaces the committed value from shared state. Fields being edited
// keep their value.
func (f *Field) Sync(committed string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Viewing {
		return false
	}
	f.committed = committed
	return true
}
