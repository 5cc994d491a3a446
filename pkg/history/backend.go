package history

import (
	"context"

	"github.com/dmitrymomot/compass/pkg/event"
)

// Event is emitted by a Backend whenever its token changes.
type Event struct {
	// Token is the new location token.
	Token string

	// IsNavigation is true when the change came from the client rather
	// than from SetToken.
	IsNavigation bool
}

// Listener receives backend notifications.
type Listener func(Event)

// Backend is the contract the router consumes.
type Backend interface {
	// Token returns the current location token.
	Token() string

	// SetToken moves to token and notifies listeners.
	SetToken(token string)

	// SetEnabled turns notifications on or off.
	SetEnabled(enabled bool)

	// Path returns the location pathname, used when the token is empty.
	Path() string

	// Listen subscribes to navigate notifications.
	Listen(l Listener) (cancel func())
}

const topicNavigate event.Topic = "navigate"

// listeners fans out backend events through an event.Bus.
type listeners struct {
	bus event.Bus[Event]
}

func (l *listeners) listen(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	return l.bus.Subscribe(topicNavigate, func(_ context.Context, e Event) error {
		fn(e)
		return nil
	})
}

func (l *listeners) notify(e Event) {
	_ = l.bus.Publish(context.Background(), topicNavigate, e)
}
