package editor

import (
	"context"
	"fmt"
	"sync"
)

// ListSaveFunc persists the complete list remotely.
type ListSaveFunc[T any] func(ctx context.Context, values []T) error

// EntryView is a read-only view of a list entry.
type EntryView[T any] struct {
	Index   int  `json:"index"`
	Value   T    `json:"value"`
	Pending T    `json:"pending"`
	Editing bool `json:"editing"`
	Saved   bool `json:"saved"`
}

type entry[T any] struct {
	value   T
	pending T
	editing bool
	saved   bool
}

// List edits an ordered list whose entries are saved one at a time. Every
// save or delete resends the whole persisted list in client order.
type List[T any] struct {
	name    string
	max     int
	blank   func() T
	isEmpty func(T) bool
	save    ListSaveFunc[T]

	mu      sync.Mutex
	entries []entry[T]
	busy    bool
}

// ListOption configures a List.
type ListOption[T any] func(*List[T])

// WithMax caps the number of entries.
func WithMax[T any](n int) ListOption[T] {
	return func(l *List[T]) {
		l.max = n
	}
}

// WithBlank sets the template for added entries.
func WithBlank[T any](fn func() T) ListOption[T] {
	return func(l *List[T]) {
		l.blank = fn
	}
}

// WithDropEmpty drops entries matching fn from every payload.
func WithDropEmpty[T any](fn func(T) bool) ListOption[T] {
	return func(l *List[T]) {
		l.isEmpty = fn
	}
}

// NewList returns a list holding committed entries.
func NewList[T any](name string, committed []T, save ListSaveFunc[T], opts ...ListOption[T]) *List[T] {
	l := &List[T]{
		name:  name,
		save:  save,
		blank: zeroValue[T],
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = committedEntries(committed)
	return l
}

func zeroValue[T any]() T {
	var zero T
	return zero
}

func committedEntries[T any](values []T) []entry[T] {
	out := make([]entry[T], 0, len(values))
	for _, value := range values {
		out = append(out, entry[T]{value: value, saved: true})
	}
	return out
}

// Name returns the list name.
func (l *List[T]) Name() string {
	return l.name
}

// Max returns the entry cap, or 0 when uncapped.
func (l *List[T]) Max() int {
	return l.max
}

// Len returns the number of entries including unsaved ones.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Busy reports whether a save or delete is in flight.
func (l *List[T]) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Values returns the committed values of saved entries.
func (l *List[T]) Values() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, 0, len(l.entries))
	for _, e := range l.entries {
		if e.saved {
			out = append(out, e.value)
		}
	}
	return out
}

// Entries returns a view of every entry.
func (l *List[T]) Entries() []EntryView[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EntryView[T], 0, len(l.entries))
	for i, e := range l.entries {
		out = append(out, EntryView[T]{Index: i, Value: e.value, Pending: e.pending, Editing: e.editing, Saved: e.saved})
	}
	return out
}

// Add appends a blank entry in editing mode. Nothing is sent until it is saved.
func (l *List[T]) Add() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return 0, ErrBusy
	}
	if l.max > 0 && len(l.entries) >= l.max {
		return 0, fmt.Errorf("%s: %w (max %d)", l.name, ErrListFull, l.max)
	}
	l.entries = append(l.entries, entry[T]{pending: l.blank(), editing: true})
	return len(l.entries) - 1, nil
}

// Begin starts editing the entry at index.
func (l *List[T]) Begin(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, err := l.entryLocked("begin", index)
	if err != nil {
		return err
	}
	if e.editing {
		return transitionError("begin", Editing)
	}
	e.pending = e.value
	e.editing = true
	return nil
}

// Set replaces the edit buffer of the entry at index.
func (l *List[T]) Set(index int, value T) error {
	return l.Update(index, func(pending *T) { *pending = value })
}

// Update mutates the edit buffer of the entry at index in place.
func (l *List[T]) Update(index int, fn func(pending *T)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, err := l.entryLocked("set", index)
	if err != nil {
		return err
	}
	if !e.editing {
		return transitionError("set", Viewing)
	}
	fn(&e.pending)
	return nil
}

// Cancel discards the edit buffer. An entry that was never saved is removed.
func (l *List[T]) Cancel(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, err := l.entryLocked("cancel", index)
	if err != nil {
		return err
	}
	if !e.editing {
		return transitionError("cancel", Viewing)
	}
	if !e.saved {
		l.entries = append(l.entries[:index], l.entries[index+1:]...)
		return nil
	}
	var zero T
	e.pending = zero
	e.editing = false
	return nil
}

// Save sends the persisted list with the entry at index replaced by its
// edit buffer. The list is unchanged when the call fails.
func (l *List[T]) Save(ctx context.Context, index int) error {
	l.mu.Lock()
	e, err := l.entryLocked("save", index)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if !e.editing {
		l.mu.Unlock()
		return transitionError("save", Viewing)
	}
	payload := make([]T, 0, len(l.entries))
	for i, other := range l.entries {
		switch {
		case i == index:
			payload = append(payload, other.pending)
		case other.saved:
			payload = append(payload, other.value)
		}
	}
	payload = l.dropEmpty(payload)
	l.busy = true
	l.mu.Unlock()

	err = l.save(ctx, payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if err != nil {
		return fmt.Errorf("save %s: %w", l.name, err)
	}
	saved := &l.entries[index]
	saved.value = saved.pending
	saved.editing = false
	saved.saved = true
	var zero T
	saved.pending = zero
	if l.isEmpty != nil && l.isEmpty(saved.value) {
		l.entries = append(l.entries[:index], l.entries[index+1:]...)
	}
	return nil
}

// Delete removes the entry at index and sends the remaining saved entries.
// Unsaved entries are removed locally without a call.
func (l *List[T]) Delete(ctx context.Context, index int) error {
	l.mu.Lock()
	e, err := l.entryLocked("delete", index)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if !e.saved {
		l.entries = append(l.entries[:index], l.entries[index+1:]...)
		l.mu.Unlock()
		return nil
	}
	payload := make([]T, 0, len(l.entries))
	for i, other := range l.entries {
		if i != index && other.saved {
			payload = append(payload, other.value)
		}
	}
	payload = l.dropEmpty(payload)
	l.busy = true
	l.mu.Unlock()

	err = l.save(ctx, payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if err != nil {
		return fmt.Errorf("delete from %s: %w", l.name, err)
	}
	l.entries = append(l.entries[:index], l.entries[index+1:]...)
	return nil
}

// Sync replaces all entries from shared state unless an entry is being edited.
func (l *List[T]) Sync(committed []T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return false
	}
	for _, e := range l.entries {
		if e.editing {
			return false
		}
	}
	l.entries = committedEntries(committed)
	return true
}

func (l *List[T]) entryLocked(op string, index int) (*entry[T], error) {
	if l.busy {
		return nil, ErrBusy
	}
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("%s %s: %w %d", op, l.name, ErrNoEntry, index)
	}
	return &l.entries[index], nil
}

func (l *List[T]) dropEmpty(values []T) []T {
	if l.isEmpty == nil {
		return values
	}
	out := values[:0]
	for _, value := range values {
		if !l.isEmpty(value) {
			out = append(out, value)
		}
	}
	return out
}
