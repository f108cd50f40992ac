// Package notify keeps the cross-conversation unread badge and decides
// when the new-message sound may play. Pure function of relay events.
package notify

import (
	"fmt"
	"log"
	"sync"

	"refractor/internal/client"
	"refractor/internal/model"
)

// Indicator tracks the global unread flag. The audible cue fires only
// for envelopes originating from a different session, so a sender's own
// broadcast-inclusive echo stays silent.
type Indicator struct {
	sessionID string
	alert     func()

	mu     sync.Mutex
	unread bool
}

// New creates an Indicator for the local session. alert is invoked for
// every foreign unreadMessage envelope; nil disables the sound.
func New(sessionID string, alert func()) *Indicator {
	return &Indicator{sessionID: sessionID, alert: alert}
}

// Bind subscribes the indicator to the relay event types it consumes
// and returns an unbind function.
func (i *Indicator) Bind(c *client.Client) func() {
	s1 := c.Subscribe(model.TypeUnreadMessage, i.HandleEnvelope)
	s2 := c.Subscribe(model.TypeClearUnreadMessage, i.HandleEnvelope)
	return func() {
		c.Unsubscribe(s1)
		c.Unsubscribe(s2)
	}
}

// HandleEnvelope applies one unread/clear event.
func (i *Indicator) HandleEnvelope(env model.Envelope) {
	switch env.Type {
	case model.TypeUnreadMessage:
		var event model.UnreadEvent
		if err := env.Decode(&event); err != nil {
			log.Printf("Failed to decode unreadMessage: %v", err)
			return
		}

		i.mu.Lock()
		i.unread = true
		i.mu.Unlock()

		// 自セッション発のエコーでは鳴らさない
		if event.SessionID != "" && event.SessionID != i.sessionID && i.alert != nil {
			i.alert()
		}

	case model.TypeClearUnreadMessage:
		i.mu.Lock()
		i.unread = false
		i.mu.Unlock()
	}
}

// Unread reports the global unread flag.
func (i *Indicator) Unread() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.unread
}

// ClearOnOpen publishes clearUnreadMessage once the connection is open,
// gated through WhenReady so the envelope is never lost to a
// not-yet-open connection. Blocks until published or the wait fails.
func (i *Indicator) ClearOnOpen(c *client.Client) error {
	if err := <-c.WhenReady(); err != nil {
		return fmt.Errorf("failed to clear unread message: %w", err)
	}
	if !c.PublishClearUnread() {
		return fmt.Errorf("failed to clear unread message: %w", client.ErrNotConnected)
	}
	return nil
}
