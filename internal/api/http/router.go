package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/support-dashboard/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Tickets      *handlers.TicketsHandler
	Technicians  *handlers.TechniciansHandler
	Clients      *handlers.ClientsHandler
	Appointments *handlers.AppointmentsHandler
	Registry     *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/search", cfg.Tickets.Search)
	tickets.Get("/overdue", cfg.Tickets.Overdue)
	tickets.Get("/unassigned", cfg.Tickets.Unassigned)
	tickets.Get("/urgent", cfg.Tickets.Urgent)
	tickets.Get("/statistics", cfg.Tickets.Statistics)
	tickets.Get("/statistics/local", cfg.Tickets.LocalStatistics)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	technicians := api.Group("/technicians")
	technicians.Get("/", cfg.Technicians.List)
	technicians.Get("/search", cfg.Technicians.Search)
	technicians.Get("/available", cfg.Technicians.Available)
	technicians.Get("/statistics", cfg.Technicians.Statistics)
	technicians.Get("/:id", cfg.Technicians.Get)
	technicians.Get("/:id/workload", cfg.Technicians.Workload)
	technicians.Post("/", cfg.Technicians.Create)
	technicians.Put("/:id", cfg.Technicians.Update)
	technicians.Delete("/:id", cfg.Technicians.Delete)

	clients := api.Group("/clients")
	clients.Get("/", cfg.Clients.List)
	clients.Get("/search", cfg.Clients.Search)
	clients.Get("/:id", cfg.Clients.Get)
	clients.Post("/", cfg.Clients.Create)
	clients.Put("/:id", cfg.Clients.Update)
	clients.Delete("/:id", cfg.Clients.Delete)

	appointments := api.Group("/appointments")
	appointments.Get("/", cfg.Appointments.List)
	appointments.Get("/search", cfg.Appointments.Search)
	appointments.Get("/:id", cfg.Appointments.Get)
	appointments.Post("/", cfg.Appointments.Create)
	appointments.Put("/:id", cfg.Appointments.Update)
	appointments.Delete("/:id", cfg.Appointments.Delete)
}
