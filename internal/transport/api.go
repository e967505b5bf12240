package transport

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-dashboard/internal/domain"
)

// API groups the per-entity endpoints.
type API struct {
	Client       *Client
	Clients      *ClientAPI
	Technicians  *TechnicianAPI
	Tickets      *TicketAPI
	Appointments *AppointmentAPI
}

// NewAPI wires every entity endpoint onto client.
func NewAPI(client *Client) *API {
	return &API{
		Client:       client,
		Clients:      &ClientAPI{newResource[domain.Client, domain.ClientInput](client, "clients")},
		Technicians:  &TechnicianAPI{newResource[domain.Technician, domain.TechnicianInput](client, "technicians")},
		Tickets:      &TicketAPI{newResource[domain.Ticket, domain.TicketInput](client, "tickets")},
		Appointments: &AppointmentAPI{newResource[domain.Appointment, domain.AppointmentInput](client, "appointments")},
	}
}

// ClientAPI serves /api/clients.
type ClientAPI struct {
	Resource[domain.Client, domain.ClientInput]
}

// AppointmentAPI serves /api/appointments.
type AppointmentAPI struct {
	Resource[domain.Appointment, domain.AppointmentInput]
}

// TechnicianAPI serves /api/technicians.
type TechnicianAPI struct {
	Resource[domain.Technician, domain.TechnicianInput]
}

// Available fetches technicians free to take work.
func (a *TechnicianAPI) Available(ctx context.Context) ([]domain.Technician, error) {
	var out []domain.Technician
	err := a.client.Do(ctx, fiber.MethodGet, a.path+"/available", nil, nil, &out)
	return out, err
}

// Workload fetches one technician's load summary.
func (a *TechnicianAPI) Workload(ctx context.Context, id int64) (domain.TechnicianWorkload, error) {
	var out domain.TechnicianWorkload
	err := a.client.Do(ctx, fiber.MethodGet, a.itemPath(id)+"/workload", nil, nil, &out)
	return out, err
}

// Statistics fetches the server-side technician aggregate.
func (a *TechnicianAPI) Statistics(ctx context.Context) (domain.TechnicianStatistics, error) {
	var out domain.TechnicianStatistics
	err := a.client.Do(ctx, fiber.MethodGet, a.path+"/statistics", nil, nil, &out)
	return out, err
}

// TicketAPI serves /api/tickets.
type TicketAPI struct {
	Resource[domain.Ticket, domain.TicketInput]
}

// Assign sends POST /api/tickets/{id}/assign.
func (a *TicketAPI) Assign(ctx context.Context, id, technicianID int64) (domain.Ticket, error) {
	var out domain.Ticket
	body := domain.AssignTicketInput{TechnicianID: technicianID}
	err := a.client.Do(ctx, fiber.MethodPost, a.itemPath(id)+"/assign", nil, body, &out)
	return out, err
}

// Close sends POST /api/tickets/{id}/close.
func (a *TicketAPI) Close(ctx context.Context, id int64) (domain.Ticket, error) {
	var out domain.Ticket
	err := a.client.Do(ctx, fiber.MethodPost, a.itemPath(id)+"/close", nil, nil, &out)
	return out, err
}

// Reopen sends POST /api/tickets/{id}/reopen.
func (a *TicketAPI) Reopen(ctx context.Context, id int64) (domain.Ticket, error) {
	var out domain.Ticket
	err := a.client.Do(ctx, fiber.MethodPost, a.itemPath(id)+"/reopen", nil, nil, &out)
	return out, err
}

// Statistics fetches the server-side ticket aggregate.
func (a *TicketAPI) Statistics(ctx context.Context) (domain.TicketStatistics, error) {
	var out domain.TicketStatistics
	err := a.client.Do(ctx, fiber.MethodGet, a.path+"/statistics", nil, nil, &out)
	return out, err
}

// Overdue fetches open tickets past their due date.
func (a *TicketAPI) Overdue(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Ticket], error) {
	return a.view(ctx, "overdue", page)
}

// Unassigned fetches tickets with no technician.
func (a *TicketAPI) Unassigned(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Ticket], error) {
	return a.view(ctx, "unassigned", page)
}

// Urgent fetches open tickets of URGENT priority.
func (a *TicketAPI) Urgent(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Ticket], error) {
	return a.view(ctx, "urgent", page)
}

func (a *TicketAPI) view(ctx context.Context, name string, page domain.PageRequest) (domain.Page[domain.Ticket], error) {
	var out domain.Page[domain.Ticket]
	err := a.client.Do(ctx, fiber.MethodGet, a.path+"/"+name, page.Values(), nil, &out)
	return out, err
}
