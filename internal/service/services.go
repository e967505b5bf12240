// Package service exposes the typed per-entity views the dashboard renders.
// Reads go through the query runner and writes through the mutation runner,
// so every caller shares one cache and one set of invalidation rules.
package service

import (
	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/mutation"
	"github.com/spec-kit/support-dashboard/internal/query"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

// ClientService is the client view layer.
type ClientService struct {
	*entityService[domain.Client, domain.ClientInput]
}

// AppointmentService is the appointment view layer.
type AppointmentService struct {
	*entityService[domain.Appointment, domain.AppointmentInput]
}

// Services groups the entity views.
type Services struct {
	Clients      *ClientService
	Technicians  *TechnicianService
	Tickets      *TicketService
	Appointments *AppointmentService
}

// Dependencies bundles what the views are built from.
type Dependencies struct {
	API       *transport.API
	Queries   *query.Runner
	Mutations *mutation.Runner
}

// New builds every entity view over deps.
func New(deps Dependencies) *Services {
	return &Services{
		Clients: &ClientService{
			entityService: &entityService[domain.Client, domain.ClientInput]{
				kind:      cachekey.KindClients,
				resource:  deps.API.Clients.Resource,
				queries:   deps.Queries,
				mutations: deps.Mutations,
				writes:    writes{mutation.CreateClient, mutation.UpdateClient, mutation.DeleteClient},
			},
		},
		Technicians: &TechnicianService{
			entityService: &entityService[domain.Technician, domain.TechnicianInput]{
				kind:      cachekey.KindTechnicians,
				resource:  deps.API.Technicians.Resource,
				queries:   deps.Queries,
				mutations: deps.Mutations,
				writes:    writes{mutation.CreateTechnician, mutation.UpdateTechnician, mutation.DeleteTechnician},
			},
			api: deps.API.Technicians,
		},
		Tickets: &TicketService{
			entityService: &entityService[domain.Ticket, domain.TicketInput]{
				kind:      cachekey.KindTickets,
				resource:  deps.API.Tickets.Resource,
				queries:   deps.Queries,
				mutations: deps.Mutations,
				writes:    writes{mutation.CreateTicket, mutation.UpdateTicket, mutation.DeleteTicket},
			},
			api: deps.API.Tickets,
		},
		Appointments: &AppointmentService{
			entityService: &entityService[domain.Appointment, domain.AppointmentInput]{
				kind:      cachekey.KindAppointments,
				resource:  deps.API.Appointments.Resource,
				queries:   deps.Queries,
				mutations: deps.Mutations,
				writes:    writes{mutation.CreateAppointment, mutation.UpdateAppointment, mutation.DeleteAppointment},
			},
		},
	}
}
