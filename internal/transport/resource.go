package transport

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-dashboard/internal/domain"
)

// Filter is implemented by the domain filter types.
type Filter interface {
	Values() url.Values
}

// Resource is the generic CRUD surface shared by every entity endpoint
// under /api/{entity}.
type Resource[T domain.Entity, In any] struct {
	client *Client
	path   string
}

func newResource[T domain.Entity, In any](client *Client, entity string) Resource[T, In] {
	return Resource[T, In]{client: client, path: "/api/" + entity}
}

// List fetches GET /api/{entity}.
func (r Resource[T, In]) List(ctx context.Context, page domain.PageRequest, filter Filter) (domain.Page[T], error) {
	var out domain.Page[T]
	err := r.client.Do(ctx, fiber.MethodGet, r.path, pageQuery(page, filter), nil, &out)
	return out, err
}

// Search fetches GET /api/{entity}/search.
func (r Resource[T, In]) Search(ctx context.Context, page domain.PageRequest, filter Filter) (domain.Page[T], error) {
	var out domain.Page[T]
	err := r.client.Do(ctx, fiber.MethodGet, r.path+"/search", pageQuery(page, filter), nil, &out)
	return out, err
}

// Get fetches GET /api/{entity}/{id}.
func (r Resource[T, In]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.client.Do(ctx, fiber.MethodGet, r.itemPath(id), nil, nil, &out)
	return out, err
}

// Create sends POST /api/{entity}.
func (r Resource[T, In]) Create(ctx context.Context, input In) (T, error) {
	var out T
	err := r.client.Do(ctx, fiber.MethodPost, r.path, nil, input, &out)
	return out, err
}

// Update sends PUT /api/{entity}/{id}.
func (r Resource[T, In]) Update(ctx context.Context, id int64, input In) (T, error) {
	var out T
	err := r.client.Do(ctx, fiber.MethodPut, r.itemPath(id), nil, input, &out)
	return out, err
}

// Delete sends DELETE /api/{entity}/{id}.
func (r Resource[T, In]) Delete(ctx context.Context, id int64) error {
	return r.client.Do(ctx, fiber.MethodDelete, r.itemPath(id), nil, nil, nil)
}

func (r Resource[T, In]) itemPath(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

func pageQuery(page domain.PageRequest, filter Filter) url.Values {
	values := page.Values()
	if filter == nil {
		return values
	}
	for name, vals := range filter.Values() {
		values[name] = vals
	}
	return values
}
