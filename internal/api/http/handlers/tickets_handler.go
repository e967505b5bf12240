package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-dashboard/internal/api/dto"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/service"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

// TicketsHandler serves /api/tickets.
type TicketsHandler struct {
	*crudHandler[domain.Ticket, domain.TicketInput]
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{
		crudHandler: &crudHandler[domain.Ticket, domain.TicketInput]{service: tickets, parse: ticketQuery},
		tickets:     tickets,
	}
}

// Get GET /api/tickets/:id, with derived flags and available actions.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.tickets.Describe(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Overdue GET /api/tickets/overdue.
func (h *TicketsHandler) Overdue(c *fiber.Ctx) error {
	return h.pagedView(c, h.tickets.Overdue)
}

// Unassigned GET /api/tickets/unassigned.
func (h *TicketsHandler) Unassigned(c *fiber.Ctx) error {
	return h.pagedView(c, h.tickets.Unassigned)
}

// Urgent GET /api/tickets/urgent.
func (h *TicketsHandler) Urgent(c *fiber.Ctx) error {
	return h.pagedView(c, h.tickets.Urgent)
}

func (h *TicketsHandler) pagedView(c *fiber.Ctx, load func(ctx context.Context, page domain.PageRequest) (service.View[domain.Page[domain.Ticket]], error)) error {
	var q dto.PageQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}
	view, err := load(c.UserContext(), q.PageRequest())
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Statistics GET /api/tickets/statistics, the backend's aggregate.
func (h *TicketsHandler) Statistics(c *fiber.Ctx) error {
	view, err := h.tickets.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// LocalStatistics GET /api/tickets/statistics/local, folded over the page
// the query selects.
func (h *TicketsHandler) LocalStatistics(c *fiber.Ctx) error {
	var q dto.TicketQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}
	view, err := h.tickets.PageStatistics(c.UserContext(), q.PageRequest(), q.Filter())
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Assign POST /api/tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Assign(c.UserContext(), id, req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// Close POST /api/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Close(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// Reopen POST /api/tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Reopen(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

func ticketQuery(c *fiber.Ctx) (domain.PageRequest, transport.Filter, error) {
	var q dto.TicketQuery
	if err := parseQuery(c, &q); err != nil {
		return domain.PageRequest{}, nil, err
	}
	return q.PageRequest(), q.Filter(), nil
}
