package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/service"
	"github.com/spec-kit/support-dashboard/internal/transport"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
	"github.com/spec-kit/support-dashboard/pkg/util/validation"
)

// entityService is the surface every entity view exposes.
type entityService[T any, In any] interface {
	List(ctx context.Context, page domain.PageRequest, filter transport.Filter) (service.View[domain.Page[T]], error)
	Search(ctx context.Context, page domain.PageRequest, filter transport.Filter) (service.View[domain.Page[T]], error)
	Get(ctx context.Context, id int64) (service.View[T], error)
	Create(ctx context.Context, input In) (T, error)
	Update(ctx context.Context, id int64, input In) (T, error)
	Delete(ctx context.Context, id int64) error
}

type listParser func(c *fiber.Ctx) (domain.PageRequest, transport.Filter, error)

// crudHandler serves list, search, detail and write routes for one entity.
type crudHandler[T any, In any] struct {
	service entityService[T, In]
	parse   listParser
}

// List GET /api/{entity}.
func (h *crudHandler[T, In]) List(c *fiber.Ctx) error {
	page, filter, err := h.parse(c)
	if err != nil {
		return err
	}
	view, err := h.service.List(c.UserContext(), page, filter)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Search GET /api/{entity}/search.
func (h *crudHandler[T, In]) Search(c *fiber.Ctx) error {
	page, filter, err := h.parse(c)
	if err != nil {
		return err
	}
	view, err := h.service.Search(c.UserContext(), page, filter)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Get GET /api/{entity}/:id.
func (h *crudHandler[T, In]) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Create POST /api/{entity}.
func (h *crudHandler[T, In]) Create(c *fiber.Ctx) error {
	var input In
	if err := parseBody(c, &input); err != nil {
		return err
	}
	created, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// Update PUT /api/{entity}/:id.
func (h *crudHandler[T, In]) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var input In
	if err := parseBody(c, &input); err != nil {
		return err
	}
	updated, err := h.service.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// Delete DELETE /api/{entity}/:id.
func (h *crudHandler[T, In]) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer", map[string]any{"id": c.Params("id")})
	}
	return int64(id), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validation.Payload(out)
}

func parseQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	return validation.Payload(out)
}
