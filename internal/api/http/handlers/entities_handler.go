package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-dashboard/internal/api/dto"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/service"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

// ClientsHandler serves /api/clients.
type ClientsHandler struct {
	*crudHandler[domain.Client, domain.ClientInput]
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clients *service.ClientService) *ClientsHandler {
	return &ClientsHandler{&crudHandler[domain.Client, domain.ClientInput]{service: clients, parse: clientQuery}}
}

// AppointmentsHandler serves /api/appointments.
type AppointmentsHandler struct {
	*crudHandler[domain.Appointment, domain.AppointmentInput]
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(appointments *service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{&crudHandler[domain.Appointment, domain.AppointmentInput]{service: appointments, parse: appointmentQuery}}
}

// TechniciansHandler serves /api/technicians.
type TechniciansHandler struct {
	*crudHandler[domain.Technician, domain.TechnicianInput]
	technicians *service.TechnicianService
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians *service.TechnicianService) *TechniciansHandler {
	return &TechniciansHandler{
		crudHandler: &crudHandler[domain.Technician, domain.TechnicianInput]{service: technicians, parse: technicianQuery},
		technicians: technicians,
	}
}

// Available GET /api/technicians/available.
func (h *TechniciansHandler) Available(c *fiber.Ctx) error {
	view, err := h.technicians.Available(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Workload GET /api/technicians/:id/workload.
func (h *TechniciansHandler) Workload(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.technicians.Workload(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Statistics GET /api/technicians/statistics.
func (h *TechniciansHandler) Statistics(c *fiber.Ctx) error {
	view, err := h.technicians.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func clientQuery(c *fiber.Ctx) (domain.PageRequest, transport.Filter, error) {
	var q dto.ClientQuery
	if err := parseQuery(c, &q); err != nil {
		return domain.PageRequest{}, nil, err
	}
	return q.PageRequest(), q.Filter(), nil
}

func technicianQuery(c *fiber.Ctx) (domain.PageRequest, transport.Filter, error) {
	var q dto.TechnicianQuery
	if err := parseQuery(c, &q); err != nil {
		return domain.PageRequest{}, nil, err
	}
	return q.PageRequest(), q.Filter(), nil
}

func appointmentQuery(c *fiber.Ctx) (domain.PageRequest, transport.Filter, error) {
	var q dto.AppointmentQuery
	if err := parseQuery(c, &q); err != nil {
		return domain.PageRequest{}, nil, err
	}
	return q.PageRequest(), q.Filter(), nil
}
