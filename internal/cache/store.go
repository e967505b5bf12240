// Package cache holds the in-memory store of server-derived view results.
//
// Entries are replaced wholesale by Put, flagged by MarkStale, dropped by
// Remove and swept by GCSweep once idle with no subscriber. Stored values are
// never patched in place. Every change is announced to subscribers after the
// store lock is released, so handlers may call back into the store.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/clock"
	"github.com/spec-kit/support-dashboard/internal/events"
	"github.com/spec-kit/support-dashboard/internal/observability"
)

// Entry is a snapshot of a cached result.
type Entry struct {
	Value     any
	FetchedAt time.Time
	IsStale   bool
	Fetching  bool
}

type entry struct {
	value       any
	fetchedAt   time.Time
	invalidated bool
	observedAt  time.Time
}

// Options configures a Store.
type Options struct {
	Policies   PolicySet
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Store maps keys to cached results.
type Store struct {
	mu         sync.RWMutex
	entries    map[cachekey.Key]*entry
	inflight   map[cachekey.Key]int
	policies   PolicySet
	clock      clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewStore constructs an empty store. Missing options fall back to the
// default policies, the wall clock, a private dispatcher and a no-op logger.
func NewStore(opts Options) *Store {
	if opts.Policies.Kinds == nil && opts.Policies.Operations == nil && opts.Policies.Default == (Freshness{}) {
		opts.Policies = DefaultPolicies()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = events.NewInMemoryDispatcher()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		entries:    make(map[cachekey.Key]*entry),
		inflight:   make(map[cachekey.Key]int),
		policies:   opts.Policies,
		clock:      opts.Clock,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger.Named("cache"),
		metrics:    opts.Metrics,
	}
}

// Now is the store's clock reading.
func (s *Store) Now() time.Time { return s.clock.Now() }

// Policy returns the freshness applied to key.
func (s *Store) Policy(key cachekey.Key) Freshness { return s.policies.For(key) }

// Get returns the entry under key. Reading an entry counts as observing it.
func (s *Store) Get(key cachekey.Key) (Entry, bool) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{Fetching: s.inflight[key] > 0}, false
	}
	e.observedAt = now
	return Entry{
		Value:     e.value,
		FetchedAt: e.fetchedAt,
		IsStale:   e.invalidated || now.Sub(e.fetchedAt) >= s.policies.For(key).StaleAfter,
		Fetching:  s.inflight[key] > 0,
	}, true
}

// Put stores value under key, fresh as of now.
func (s *Store) Put(key cachekey.Key, value any, now time.Time) {
	s.mu.Lock()
	s.entries[key] = &entry{value: value, fetchedAt: now, observedAt: now}
	s.mu.Unlock()

	s.publish(events.EventEntryUpdated, []cachekey.Key{key})
}

// MarkStale flags every entry the matcher selects as stale, keeping its
// value servable. It returns the number of entries touched.
func (s *Store) MarkStale(m cachekey.Matcher) int {
	s.mu.Lock()
	keys := s.matchLocked(m)
	for _, key := range keys {
		s.entries[key].invalidated = true
	}
	s.mu.Unlock()

	s.publish(events.EventEntryStale, keys)
	return len(keys)
}

// Remove deletes every entry the matcher selects.
func (s *Store) Remove(m cachekey.Matcher) int {
	s.mu.Lock()
	keys := s.matchLocked(m)
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	s.publish(events.EventEntryRemoved, keys)
	return len(keys)
}

// GCSweep evicts entries idle for longer than their EvictAfter window that
// have no subscriber and no fetch in flight.
func (s *Store) GCSweep(now time.Time) int {
	s.mu.Lock()
	var evicted []cachekey.Key
	for key, e := range s.entries {
		if s.inflight[key] > 0 {
			continue
		}
		if now.Sub(e.observedAt) <= s.policies.For(key).EvictAfter {
			continue
		}
		if s.dispatcher.HasSubscriber(key) {
			continue
		}
		delete(s.entries, key)
		evicted = append(evicted, key)
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	s.metrics.RecordEviction(len(evicted))
	s.logger.Debug("gc sweep", zap.Int("evicted", len(evicted)), zap.Int("remaining", remaining))
	s.publish(events.EventEntryEvicted, evicted)
	return len(evicted)
}

// BeginFetch records a fetch in flight for key.
func (s *Store) BeginFetch(key cachekey.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[key]++
}

// EndFetch clears one in-flight fetch for key.
func (s *Store) EndFetch(key cachekey.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] <= 1 {
		delete(s.inflight, key)
		return
	}
	s.inflight[key]--
}

// Subscribe registers handler for changes to any key the matcher selects.
// A live subscription keeps matching entries from being swept.
func (s *Store) Subscribe(m cachekey.Matcher, handler events.EventHandler) events.Subscription {
	return s.dispatcher.Subscribe(m, handler)
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) matchLocked(m cachekey.Matcher) []cachekey.Key {
	if key, ok := m.(cachekey.Key); ok {
		if _, found := s.entries[key]; found {
			return []cachekey.Key{key}
		}
		return nil
	}
	var keys []cachekey.Key
	for key := range s.entries {
		if m.Matches(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *Store) publish(eventType events.EventType, keys []cachekey.Key) {
	if len(keys) == 0 {
		return
	}
	now := s.clock.Now()
	for _, key := range keys {
		s.dispatcher.Publish(events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			Key:       key,
			Timestamp: now,
		})
	}
}
