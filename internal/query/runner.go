// Package query serves reads through the cache: fresh entries are returned
// directly, stale entries are returned while one background refetch runs,
// and misses wait on a single shared fetch per key.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/events"
	"github.com/spec-kit/support-dashboard/internal/observability"
	"github.com/spec-kit/support-dashboard/internal/retry"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

// FetchFunc performs the transport call behind a key.
type FetchFunc func(ctx context.Context) (any, error)

// Result is what a caller sees for a key.
type Result struct {
	Value     any
	FetchedAt time.Time
	IsStale   bool
	// Refreshing is set when a stale value was served and a refetch is
	// running for it.
	Refreshing bool
}

// Options configures a Runner.
type Options struct {
	Policy retry.Policy
	// FetchTimeout bounds one shared fetch including its retries. Zero
	// leaves it to the transport's own timeout.
	FetchTimeout time.Duration
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// Runner executes reads against a Store.
type Runner struct {
	store        *cache.Store
	group        singleflight.Group
	policy       retry.Policy
	fetchTimeout time.Duration
	logger       *zap.Logger
	metrics      *observability.Metrics

	// ctx scopes shared fetches to the runner rather than to any caller.
	ctx    context.Context
	cancel context.CancelFunc

	// mu orders launches against Close so no fetch joins wg once Close
	// has begun waiting on it.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type outcome struct {
	value any
	err   error
}

// NewRunner builds a runner over store.
func NewRunner(store *cache.Store, opts Options) *Runner {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.ReadPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:        store,
		policy:       opts.Policy,
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger.Named("query"),
		metrics:      opts.Metrics,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Store returns the cache the runner reads through.
func (r *Runner) Store() *cache.Store { return r.store }

// Query returns the value for key. A fresh entry is returned without a
// network call. A stale entry is returned as is and one background refetch
// is started unless one is already in flight. A missing entry waits for the
// shared fetch; giving up through ctx abandons the wait but not the fetch.
func (r *Runner) Query(ctx context.Context, key cachekey.Key, fetch FetchFunc) (Result, error) {
	kind := string(key.Kind())
	if entry, ok := r.store.Get(key); ok {
		if !entry.IsStale {
			r.metrics.RecordLookup(kind, observability.LookupHit)
			return resultOf(entry), nil
		}
		r.metrics.RecordLookup(kind, observability.LookupStale)
		r.launch(key, fetch)
		res := resultOf(entry)
		res.Refreshing = true
		return res, nil
	}

	r.metrics.RecordLookup(kind, observability.LookupMiss)
	done := r.launch(key, fetch)
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return Result{}, out.err
		}
		if entry, ok := r.store.Get(key); ok {
			return resultOf(entry), nil
		}
		return Result{Value: out.value, FetchedAt: r.store.Now()}, nil
	}
}

// Refresh starts a background refetch of key, joining one already in flight.
func (r *Runner) Refresh(key cachekey.Key, fetch FetchFunc) {
	r.launch(key, fetch)
}

// Watch subscribes onChange to key. Whenever the entry is replaced onChange
// receives the new result; when it is marked stale a refetch starts; when it
// is removed or evicted onChange receives an empty Result. The entry is kept
// from being swept while the subscription is live.
func (r *Runner) Watch(key cachekey.Key, fetch FetchFunc, onChange func(Result)) events.Subscription {
	return r.store.Subscribe(key, func(ev events.Event) {
		switch ev.Type {
		case events.EventEntryUpdated:
			if entry, ok := r.store.Get(key); ok {
				onChange(resultOf(entry))
			}
		case events.EventEntryStale:
			r.launch(key, fetch)
		case events.EventEntryRemoved, events.EventEntryEvicted:
			onChange(Result{})
		}
	})
}

// Wait blocks until every fetch started so far has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels outstanding fetches and waits for them to return. Reads
// issued after Close fail with context.Canceled. Close is idempotent.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func (r *Runner) launch(key cachekey.Key, fetch FetchFunc) <-chan outcome {
	done := make(chan outcome, 1)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		done <- outcome{err: context.Canceled}
		return done
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		value, err, _ := r.group.Do(key.String(), func() (any, error) {
			return r.load(key, fetch)
		})
		done <- outcome{value: value, err: err}
	}()
	return done
}

func (r *Runner) load(key cachekey.Key, fetch FetchFunc) (any, error) {
	r.store.BeginFetch(key)
	defer r.store.EndFetch(key)

	ctx := r.ctx
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	kind := string(key.Kind())
	logger := r.logger.With(zap.Stringer("key", key))
	var value any
	attempts, err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	}, func(attempt int, err error, next time.Duration) {
		r.metrics.RecordRetry(kind, "query")
		logger.Warn("fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", next),
			zap.Error(err))
	})
	r.metrics.RecordFetch(kind, err)
	if err != nil {
		logger.Warn("fetch failed",
			zap.Int("attempts", attempts),
			zap.String("class", apperrors.Classify(err).String()),
			zap.Error(err))
		return nil, err
	}

	r.store.Put(key, value, r.store.Now())
	logger.Debug("fetched", zap.Int("attempts", attempts))
	return value, nil
}

func resultOf(entry cache.Entry) Result {
	return Result{
		Value:      entry.Value,
		FetchedAt:  entry.FetchedAt,
		IsStale:    entry.IsStale,
		Refreshing: entry.IsStale && entry.Fetching,
	}
}

// Get is Query with a typed fetch and value.
func Get[T any](ctx context.Context, r *Runner, key cachekey.Key, fetch func(context.Context) (T, error)) (T, Result, error) {
	var zero T
	res, err := r.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, res, err
	}
	value, ok := res.Value.(T)
	if !ok {
		return zero, res, apperrors.NewInternalError(fmt.Errorf("cached value under %s is %T", key, res.Value))
	}
	return value, res, nil
}
