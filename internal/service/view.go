package service

import (
	"context"
	"net/url"
	"time"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/mutation"
	"github.com/spec-kit/support-dashboard/internal/query"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

// View is a read result together with its cache metadata.
type View[T any] struct {
	Data      T         `json:"data"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale"`
}

func read[T any](ctx context.Context, runner *query.Runner, key cachekey.Key, fetch func(context.Context) (T, error)) (View[T], error) {
	data, res, err := query.Get(ctx, runner, key, fetch)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{Data: data, FetchedAt: res.FetchedAt, Stale: res.IsStale}, nil
}

// ListKey is the cache key of a paged list or search.
func ListKey(kind cachekey.Kind, op cachekey.Operation, page domain.PageRequest, filter transport.Filter) cachekey.Key {
	values := page.Values()
	if filter != nil {
		for name, vals := range filter.Values() {
			values[name] = vals
		}
	}
	return cachekey.New(kind, op, paramsOf(values))
}

func paramsOf(values url.Values) cachekey.Params {
	params := make(cachekey.Params, len(values))
	for name := range values {
		params[name] = values.Get(name)
	}
	return params
}

// writes names the mutations of one entity family.
type writes struct {
	create mutation.Operation
	update mutation.Operation
	remove mutation.Operation
}

// entityService is the CRUD surface every entity view shares.
type entityService[T domain.Entity, In any] struct {
	kind      cachekey.Kind
	resource  transport.Resource[T, In]
	queries   *query.Runner
	mutations *mutation.Runner
	writes    writes
}

// List returns a page of entities.
func (s *entityService[T, In]) List(ctx context.Context, page domain.PageRequest, filter transport.Filter) (View[domain.Page[T]], error) {
	return read(ctx, s.queries, ListKey(s.kind, cachekey.OpList, page, filter), func(ctx context.Context) (domain.Page[T], error) {
		return s.resource.List(ctx, page, filter)
	})
}

// Search returns a page of entities matching filter.
func (s *entityService[T, In]) Search(ctx context.Context, page domain.PageRequest, filter transport.Filter) (View[domain.Page[T]], error) {
	return read(ctx, s.queries, ListKey(s.kind, cachekey.OpSearch, page, filter), func(ctx context.Context) (domain.Page[T], error) {
		return s.resource.Search(ctx, page, filter)
	})
}

// Get returns one entity.
func (s *entityService[T, In]) Get(ctx context.Context, id int64) (View[T], error) {
	return read(ctx, s.queries, cachekey.Detail(s.kind, id), func(ctx context.Context) (T, error) {
		return s.resource.Get(ctx, id)
	})
}

// Create stores a new entity.
func (s *entityService[T, In]) Create(ctx context.Context, input In) (T, error) {
	return mutation.Run(ctx, s.mutations, s.writes.create, mutation.Params{}, func(ctx context.Context) (T, error) {
		return s.resource.Create(ctx, input)
	})
}

// Update replaces an entity.
func (s *entityService[T, In]) Update(ctx context.Context, id int64, input In) (T, error) {
	return mutation.Run(ctx, s.mutations, s.writes.update, mutation.Params{ID: id}, func(ctx context.Context) (T, error) {
		return s.resource.Update(ctx, id, input)
	})
}

// Delete removes an entity.
func (s *entityService[T, In]) Delete(ctx context.Context, id int64) error {
	_, err := s.mutations.Mutate(ctx, s.writes.remove, mutation.Params{ID: id}, func(ctx context.Context) (any, error) {
		return nil, s.resource.Delete(ctx, id)
	})
	return err
}
