// Package events fans node events out to any number of subscribers, such as
// websocket clients watching the chain.
package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// messageBuffer is the number of events a subscriber can fall behind before
// events are dropped for it. Writing to a websocket can take a while.
const messageBuffer = 100

// Events maintains the set of subscriptions by id.
type Events struct {
	mu   sync.RWMutex
	subs map[string]chan string
	shut bool
}

// New constructs an Events for subscribing to and receiving events.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Subscribe registers a new subscriber and returns its id along with the
// channel events are delivered on. The channel is closed by Unsubscribe or
// Shutdown.
func (evt *Events) Subscribe() (string, <-chan string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan string, messageBuffer)

	// After shutdown, hand back a closed channel so the caller returns.
	if evt.shut {
		close(ch)
		return id, ch
	}

	evt.subs[id] = ch
	return id, ch
}

// Unsubscribe closes and removes the channel for the specified subscriber.
func (evt *Events) Unsubscribe(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)
	return nil
}

// Send delivers the message to every subscriber. Send never blocks; a
// subscriber that is not keeping up misses the message.
func (evt *Events) Send(msg string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Shutdown closes and removes every subscription. Later subscriptions get
// a closed channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
	evt.shut = true
}
