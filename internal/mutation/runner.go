// Package mutation performs server-side writes and applies their cache
// effects. A write that fails leaves the cache untouched; a write that
// succeeds seeds or removes the entity's detail entry and then runs the
// invalidation list registered for its operation.
package mutation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/observability"
	"github.com/spec-kit/support-dashboard/internal/retry"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

// FetchFunc performs the transport call of a write.
type FetchFunc func(ctx context.Context) (any, error)

// Params identify what a write addresses. ID is zero for creates; the
// created entity's id is taken from the response.
type Params struct {
	ID int64
}

// Options configures a Runner.
type Options struct {
	Policy  retry.Policy
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Runner executes writes against the backend and the store.
type Runner struct {
	store   *cache.Store
	policy  retry.Policy
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewRunner builds a runner over store.
func NewRunner(store *cache.Store, opts Options) *Runner {
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.MutationPolicy()
	}
	if opts.Policy.Retryable == nil {
		opts.Policy.Retryable = apperrors.IsTransient
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{
		store:   store,
		policy:  opts.Policy,
		logger:  opts.Logger.Named("mutation"),
		metrics: opts.Metrics,
	}
}

// Mutate runs fetch for op and, on success, applies op's cache rule.
func (r *Runner) Mutate(ctx context.Context, op Operation, params Params, fetch FetchFunc) (any, error) {
	rule, ok := RuleFor(op)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown mutation %q", op))
	}
	kind := string(rule.Kind)
	logger := r.logger.With(zap.String("operation", string(op)), zap.Int64("id", params.ID))

	var value any
	attempts, err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	}, func(attempt int, err error, next time.Duration) {
		r.metrics.RecordRetry(kind, "mutation")
		logger.Warn("mutation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", next),
			zap.Error(err))
	})
	if err != nil {
		logger.Warn("mutation failed",
			zap.Int("attempts", attempts),
			zap.String("class", apperrors.Classify(err).String()),
			zap.Error(err))
		return nil, err
	}

	id := params.ID
	if entity, ok := value.(domain.Entity); ok && entity.EntityID() != 0 {
		id = entity.EntityID()
	}
	r.apply(rule, id, value, logger)
	return value, nil
}

func (r *Runner) apply(rule Rule, id int64, value any, logger *zap.Logger) {
	kind := string(rule.Kind)
	detail := cachekey.Detail(rule.Kind, id)
	switch rule.Seed {
	case SeedDetail:
		if id != 0 && value != nil {
			r.store.Put(detail, value, r.store.Now())
		}
	case RemoveDetail:
		n := r.store.Remove(detail)
		r.metrics.RecordInvalidation(kind, string(ActionRemove), n)
	}

	for _, target := range rule.Invalidate {
		prefix := target.Prefix
		if target.ByID {
			prefix = prefix.Where(cachekey.ParamID, id)
		}
		var n int
		switch target.Action {
		case ActionRemove:
			n = r.store.Remove(prefix)
		default:
			n = r.store.MarkStale(prefix)
		}
		r.metrics.RecordInvalidation(kind, string(target.Action), n)
		logger.Debug("invalidated",
			zap.Stringer("prefix", prefix),
			zap.String("action", string(target.Action)),
			zap.Int("entries", n))
	}
}

// Run is Mutate with a typed fetch and result.
func Run[T any](ctx context.Context, r *Runner, op Operation, params Params, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	value, err := r.Mutate(ctx, op, params, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, apperrors.NewInternalError(fmt.Errorf("mutation %s returned %T", op, value))
	}
	return typed, nil
}
