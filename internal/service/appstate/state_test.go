package appstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninejamarkets/market-cli/internal/domain"
)

func TestProfileStatePublishIsolatesCopies(t *testing.T) {
	state := NewProfileState()
	_, ok := state.Get()
	require.False(t, ok)

	var seen []string
	state.Subscribe(func(p domain.UserProfile) { seen = append(seen, p.FirstName) })

	profile := domain.UserProfile{ID: "u-1", FirstName: "Ada", PhoneNumbers: []domain.PhoneNumber{{Number: "0801"}}}
	state.Publish(profile)
	profile.PhoneNumbers[0].Number = "changed"

	got, ok := state.Get()
	require.True(t, ok)
	assert.Equal(t, "0801", got.Phone(0))
	assert.Equal(t, []string{"Ada"}, seen)

	state.Clear()
	_, ok = state.Get()
	assert.False(t, ok)
}

func TestProfileStateUnsubscribe(t *testing.T) {
	state := NewProfileState()
	var first, second int
	stop := state.Subscribe(func(domain.UserProfile) { first++ })
	state.Subscribe(func(domain.UserProfile) { second++ })

	state.Publish(domain.UserProfile{ID: "u-1"})
	stop()
	stop()
	state.Publish(domain.UserProfile{ID: "u-1"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.NotPanics(t, func() { state.Subscribe(nil)() })
}

func TestSurfaceOpenClose(t *testing.T) {
	surface := NewSurface("signup")
	assert.False(t, surface.IsOpen())
	surface.Open()
	assert.True(t, surface.IsOpen())
	surface.Close()
	assert.False(t, surface.IsOpen())
	assert.Equal(t, "signup", surface.Name())
}

func TestMessageLogKeepsOrder(t *testing.T) {
	log := NewMessageLog()
	var notifier Notifier = log
	notifier.Error("boom")
	notifier.Success("done")

	last, ok := log.Last()
	require.True(t, ok)
	assert.Equal(t, Message{Level: LevelSuccess, Text: "done"}, last)
	assert.Len(t, log.Drain(), 2)
	assert.Empty(t, log.Messages())
}
