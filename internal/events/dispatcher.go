package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
)

// EventHandler handles a published event.
type EventHandler func(Event)

// Subscription is a live registration returned by Subscribe.
type Subscription interface {
	ID() string
	Unsubscribe()
}

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(event Event)
	Subscribe(matcher cachekey.Matcher, handler EventHandler) Subscription
	HasSubscriber(key cachekey.Key) bool
}

type listener struct {
	id      string
	matcher cachekey.Matcher
	handler EventHandler
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[string]listener
	order     []string
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[string]listener),
	}
}

// Publish synchronously invokes handlers whose matcher selects the event key,
// in subscription order.
func (d *inMemoryDispatcher) Publish(event Event) {
	d.mu.RLock()
	handlers := make([]EventHandler, 0, len(d.order))
	for _, id := range d.order {
		l := d.listeners[id]
		if l.matcher.Matches(event.Key) {
			handlers = append(handlers, l.handler)
		}
	}
	d.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe registers a handler for every key the matcher selects.
func (d *inMemoryDispatcher) Subscribe(matcher cachekey.Matcher, handler EventHandler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := uuid.NewString()
	d.listeners[id] = listener{id: id, matcher: matcher, handler: handler}
	d.order = append(d.order, id)
	return &subscription{id: id, dispatcher: d}
}

// HasSubscriber reports whether any live subscription selects key.
func (d *inMemoryDispatcher) HasSubscriber(key cachekey.Key) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, l := range d.listeners {
		if l.matcher.Matches(key) {
			return true
		}
	}
	return false
}

func (d *inMemoryDispatcher) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.listeners[id]; !ok {
		return
	}
	delete(d.listeners, id)
	for i, candidate := range d.order {
		if candidate == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

type subscription struct {
	id         string
	dispatcher *inMemoryDispatcher
	once       sync.Once
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.dispatcher.remove(s.id) })
}
