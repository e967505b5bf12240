package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
)

func TestDispatcher_DeliversToMatchingSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	detail := cachekey.Detail(cachekey.KindTickets, 1)

	var exact, prefix, other []EventType
	d.Subscribe(detail, func(e Event) { exact = append(exact, e.Type) })
	d.Subscribe(cachekey.All(cachekey.KindTickets), func(e Event) { prefix = append(prefix, e.Type) })
	d.Subscribe(cachekey.All(cachekey.KindClients), func(e Event) { other = append(other, e.Type) })

	d.Publish(Event{Type: EventEntryStale, Key: detail})
	d.Publish(Event{Type: EventEntryUpdated, Key: cachekey.New(cachekey.KindTickets, cachekey.OpList, nil)})

	assert.Equal(t, []EventType{EventEntryStale}, exact)
	assert.Equal(t, []EventType{EventEntryStale, EventEntryUpdated}, prefix)
	assert.Empty(t, other)
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := NewInMemoryDispatcher()
	key := cachekey.Detail(cachekey.KindClients, 1)

	calls := 0
	sub := d.Subscribe(key, func(Event) { calls++ })
	assert.NotEmpty(t, sub.ID())
	assert.True(t, d.HasSubscriber(key))

	sub.Unsubscribe()
	sub.Unsubscribe()
	d.Publish(Event{Type: EventEntryRemoved, Key: key})

	assert.Zero(t, calls)
	assert.False(t, d.HasSubscriber(key))
}

func TestDispatcher_HandlerMaySubscribeDuringPublish(t *testing.T) {
	d := NewInMemoryDispatcher()
	key := cachekey.Detail(cachekey.KindTickets, 9)

	d.Subscribe(key, func(Event) {
		d.Subscribe(key, func(Event) {})
	})

	assert.NotPanics(t, func() { d.Publish(Event{Type: EventEntryUpdated, Key: key}) })
	assert.True(t, d.HasSubscriber(key))
}
