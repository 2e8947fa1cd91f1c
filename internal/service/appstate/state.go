// Package appstate holds the application state shared between flows: the
// signed-in profile, surface visibility and user-facing notifications.
package appstate

import (
	"slices"
	"sync"

	"github.com/ninejamarkets/market-cli/internal/domain"
)

// ProfileState owns the current user profile.
type ProfileState struct {
	mu        sync.RWMutex
	profile   domain.UserProfile
	loaded    bool
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(domain.UserProfile)
}

// NewProfileState returns an empty profile state.
func NewProfileState() *ProfileState {
	return &ProfileState{}
}

// Get returns a copy of the current profile and whether one was published.
func (s *ProfileState) Get() (domain.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone(), s.loaded
}

// Publish replaces the current profile and notifies subscribers.
func (s *ProfileState) Publish(profile domain.UserProfile) {
	s.mu.Lock()
	s.profile = profile.Clone()
	s.loaded = true
	listeners := append([]listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(profile.Clone())
	}
}

// Clear drops the current profile.
func (s *ProfileState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = domain.UserProfile{}
	s.loaded = false
}

// Subscribe registers fn to run after every Publish. The returned func
// removes it and is safe to call more than once.
func (s *ProfileState) Subscribe(fn func(domain.UserProfile)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool { return l.id == id })
	}
}

// Surface tracks whether a named surface (signup, login, profile) is open.
type Surface struct {
	mu   sync.Mutex
	name string
	open bool
}

// NewSurface returns a closed surface.
func NewSurface(name string) *Surface {
	return &Surface{name: name}
}

// Name returns the surface name.
func (s *Surface) Name() string {
	return s.name
}

// Open marks the surface visible.
func (s *Surface) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
}

// Close marks the surface hidden.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

// IsOpen reports surface visibility.
func (s *Surface) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
