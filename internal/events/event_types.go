package events

import (
	"time"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
)

// EventType enumerates cache change notifications.
type EventType string

const (
	EventEntryUpdated EventType = "cache_entry_updated"
	EventEntryStale   EventType = "cache_entry_stale"
	EventEntryRemoved EventType = "cache_entry_removed"
	EventEntryEvicted EventType = "cache_entry_evicted"
)

// Event describes one change to one cache entry.
type Event struct {
	ID        string
	Type      EventType
	Key       cachekey.Key
	Timestamp time.Time
}
