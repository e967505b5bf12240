// Package fakebackend is an in-memory implementation of the backend REST
// contract served by fiber on a loopback port, for transport and end-to-end
// tests. It supports fault injection and per-route call counting.
package fakebackend

import (
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/lifecycle"
)

// Backend is a running fake.
type Backend struct {
	URL string

	mu           sync.Mutex
	app          *fiber.App
	now          func() time.Time
	nextID       int64
	clients      map[int64]domain.Client
	technicians  map[int64]domain.Technician
	tickets      map[int64]domain.Ticket
	appointments map[int64]domain.Appointment
	calls        map[string]int
	faults       map[string][]int
	delays       map[string]time.Duration
}

// Start serves a fresh backend until the test ends.
func Start(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		now:          time.Now,
		nextID:       1,
		clients:      map[int64]domain.Client{},
		technicians:  map[int64]domain.Technician{},
		tickets:      map[int64]domain.Ticket{},
		appointments: map[int64]domain.Appointment{},
		calls:        map[string]int{},
		faults:       map[string][]int{},
		delays:       map[string]time.Duration{},
	}
	b.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	b.app.Use(b.intercept)
	b.routes()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	b.URL = "http://" + ln.Addr().String()
	go func() { _ = b.app.Listener(ln) }()
	t.Cleanup(func() { _ = b.app.Shutdown() })
	return b
}

// SetNow replaces the backend's clock.
func (b *Backend) SetNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Fail makes the next n calls to "METHOD /path" answer status.
func (b *Backend) Fail(route string, status, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < n; i++ {
		b.faults[route] = append(b.faults[route], status)
	}
}

// Delay holds every call to "METHOD /path" for d before answering it.
func (b *Backend) Delay(route string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[route] = d
}

// Calls returns how many requests hit "METHOD /path", faults included.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// SeedClient stores a client and returns it with its id.
func (b *Backend) SeedClient(c domain.Client) domain.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.allocID()
	if c.Status == "" {
		c.Status = domain.ClientStatusActive
	}
	b.clients[c.ID] = c
	return c
}

// SeedTechnician stores a technician and returns it with its id.
func (b *Backend) SeedTechnician(tech domain.Technician) domain.Technician {
	b.mu.Lock()
	defer b.mu.Unlock()
	tech.ID = b.allocID()
	if tech.Status == "" {
		tech.Status = domain.TechnicianStatusActive
	}
	b.technicians[tech.ID] = tech
	return tech
}

// SeedTicket stores a ticket and returns it with its id.
func (b *Backend) SeedTicket(t domain.Ticket) domain.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.ID = b.allocID()
	if t.Status == "" {
		t.Status = domain.TicketStatusOpen
	}
	b.tickets[t.ID] = t
	return t
}

func (b *Backend) allocID() int64 {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Backend) intercept(c *fiber.Ctx) error {
	route := c.Method() + " " + c.Path()
	b.mu.Lock()
	b.calls[route]++
	var status int
	if queue := b.faults[route]; len(queue) > 0 {
		status = queue[0]
		b.faults[route] = queue[1:]
	}
	delay := b.delays[route]
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if status != 0 {
		return c.Status(status).JSON(fiber.Map{"message": http.StatusText(status)})
	}
	return c.Next()
}

func (b *Backend) routes() {
	api := b.app.Group("/api")

	clients := api.Group("/clients")
	registerCRUD(b, clients, func() map[int64]domain.Client { return b.clients }, b.clientMatches,
		func(id int64, in domain.ClientInput, prev *domain.Client) domain.Client {
			c := domain.Client{ID: id, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email,
				Phone: in.Phone, Address: in.Address, Status: in.Status, UpdatedAt: b.now()}
			if c.Status == "" {
				c.Status = domain.ClientStatusActive
			}
			if prev != nil {
				c.CreatedAt = prev.CreatedAt
			} else {
				c.CreatedAt = c.UpdatedAt
			}
			return c
		})

	technicians := api.Group("/technicians")
	technicians.Get("/available", b.availableTechnicians)
	technicians.Get("/statistics", b.technicianStatistics)
	technicians.Get("/:id/workload", b.technicianWorkload)
	registerCRUD(b, technicians, func() map[int64]domain.Technician { return b.technicians }, b.technicianMatches,
		func(id int64, in domain.TechnicianInput, prev *domain.Technician) domain.Technician {
			tech := domain.Technician{ID: id, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email,
				Phone: in.Phone, Status: in.Status, Skills: in.Skills, UpdatedAt: b.now()}
			if tech.Status == "" {
				tech.Status = domain.TechnicianStatusActive
			}
			if prev != nil {
				tech.CreatedAt = prev.CreatedAt
			} else {
				tech.CreatedAt = tech.UpdatedAt
			}
			return tech
		})

	tickets := api.Group("/tickets")
	tickets.Get("/statistics", b.ticketStatistics)
	tickets.Get("/overdue", b.ticketView(func(t domain.Ticket, now time.Time) bool { return lifecycle.IsOverdue(t, now) }))
	tickets.Get("/unassigned", b.ticketView(func(t domain.Ticket, _ time.Time) bool { return !lifecycle.IsAssigned(t) }))
	tickets.Get("/urgent", b.ticketView(func(t domain.Ticket, _ time.Time) bool {
		return lifecycle.IsUrgent(t) && t.Status == domain.TicketStatusOpen
	}))
	tickets.Post("/:id/assign", b.assignTicket)
	tickets.Post("/:id/close", b.transitionTicket(lifecycle.TransitionClose))
	tickets.Post("/:id/reopen", b.transitionTicket(lifecycle.TransitionReopen))
	registerCRUD(b, tickets, func() map[int64]domain.Ticket { return b.tickets }, b.ticketMatches,
		func(id int64, in domain.TicketInput, prev *domain.Ticket) domain.Ticket {
			t := domain.Ticket{ID: id, Title: in.Title, Description: in.Description, Priority: in.Priority,
				ServiceType: in.ServiceType, ClientID: in.ClientID, AssignedTechnicianID: in.AssignedTechnicianID,
				DueAt: in.DueAt, Status: domain.TicketStatusOpen, UpdatedAt: b.now()}
			if prev != nil {
				t.Status = prev.Status
				t.CreatedAt = prev.CreatedAt
			} else {
				t.CreatedAt = t.UpdatedAt
			}
			return t
		})

	appointments := api.Group("/appointments")
	registerCRUD(b, appointments, func() map[int64]domain.Appointment { return b.appointments }, b.appointmentMatches,
		func(id int64, in domain.AppointmentInput, prev *domain.Appointment) domain.Appointment {
			a := domain.Appointment{ID: id, TicketID: in.TicketID, TechnicianID: in.TechnicianID,
				ScheduledStart: in.ScheduledStart, ScheduledEnd: in.ScheduledEnd, Status: in.Status,
				Notes: in.Notes, UpdatedAt: b.now()}
			if a.Status == "" {
				a.Status = domain.AppointmentStatusPending
			}
			if prev != nil {
				a.CreatedAt = prev.CreatedAt
			} else {
				a.CreatedAt = a.UpdatedAt
			}
			return a
		})
}

func registerCRUD[T domain.Entity, In any](
	b *Backend,
	group fiber.Router,
	items func() map[int64]T,
	matches func(T, *fiber.Ctx) bool,
	build func(id int64, in In, prev *T) T,
) {
	list := func(c *fiber.Ctx) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		var selected []T
		for _, item := range sortedValues(items()) {
			if matches(item, c) {
				selected = append(selected, item)
			}
		}
		return c.JSON(domain.NewPage(selected, pageRequest(c)))
	}
	group.Get("/", list)
	group.Get("/search", list)
	group.Get("/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		item, ok := items()[int64(id)]
		if !ok {
			return notFound(c)
		}
		return c.JSON(item)
	})
	group.Post("/", func(c *fiber.Ctx) error {
		var in In
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		item := build(b.allocID(), in, nil)
		items()[item.EntityID()] = item
		return c.Status(fiber.StatusCreated).JSON(item)
	})
	group.Put("/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		var in In
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		prev, ok := items()[int64(id)]
		if !ok {
			return notFound(c)
		}
		item := build(int64(id), in, &prev)
		items()[int64(id)] = item
		return c.JSON(item)
	})
	group.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := items()[int64(id)]; !ok {
			return notFound(c)
		}
		delete(items(), int64(id))
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func (b *Backend) ticketStatistics(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := lifecycle.Aggregate(sortedValues(b.tickets), b.now())
	return c.JSON(domain.TicketStatistics{
		Total:      int64(s.Total),
		Open:       int64(s.Open),
		Closed:     int64(s.Closed),
		Overdue:    int64(s.Overdue),
		Unassigned: int64(s.Unassigned),
		Urgent:     int64(s.Urgent),
	})
}

func (b *Backend) ticketView(keep func(domain.Ticket, time.Time) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		now := b.now()
		var selected []domain.Ticket
		for _, t := range sortedValues(b.tickets) {
			if keep(t, now) {
				selected = append(selected, t)
			}
		}
		return c.JSON(domain.NewPage(selected, pageRequest(c)))
	}
}

func (b *Backend) assignTicket(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	var in domain.AssignTicketInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ticket, ok := b.tickets[int64(id)]
	if !ok {
		return notFound(c)
	}
	if _, ok := b.technicians[in.TechnicianID]; !ok {
		return notFound(c)
	}
	techID := in.TechnicianID
	ticket.AssignedTechnicianID = &techID
	ticket.UpdatedAt = b.now()
	b.tickets[ticket.ID] = ticket
	return c.JSON(ticket)
}

func (b *Backend) transitionTicket(t lifecycle.Transition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		ticket, ok := b.tickets[int64(id)]
		if !ok {
			return notFound(c)
		}
		next, err := lifecycle.Next(ticket.Status, t)
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		}
		ticket.Status = next
		ticket.UpdatedAt = b.now()
		b.tickets[ticket.ID] = ticket
		return c.JSON(ticket)
	}
}

func (b *Backend) availableTechnicians(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	available := []domain.Technician{}
	for _, tech := range sortedValues(b.technicians) {
		if tech.Status == domain.TechnicianStatusActive {
			available = append(available, tech)
		}
	}
	return c.JSON(available)
}

func (b *Backend) technicianWorkload(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.technicians[int64(id)]; !ok {
		return notFound(c)
	}
	load := domain.TechnicianWorkload{TechnicianID: int64(id)}
	for _, t := range b.tickets {
		if t.Status == domain.TicketStatusOpen && t.AssignedTechnicianID != nil && *t.AssignedTechnicianID == int64(id) {
			load.OpenTickets++
		}
	}
	for _, a := range b.appointments {
		if a.TechnicianID != int64(id) {
			continue
		}
		switch a.Status {
		case domain.AppointmentStatusPending, domain.AppointmentStatusConfirmed, domain.AppointmentStatusInProgress:
			load.ScheduledAppointments++
		}
	}
	return c.JSON(load)
}

func (b *Backend) technicianStatistics(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var s domain.TechnicianStatistics
	for _, tech := range b.technicians {
		s.Total++
		switch tech.Status {
		case domain.TechnicianStatusActive:
			s.Active++
		case domain.TechnicianStatusOnVacation:
			s.OnVacation++
		case domain.TechnicianStatusSickLeave:
			s.SickLeave++
		case domain.TechnicianStatusTerminated:
			s.Terminated++
		}
	}
	return c.JSON(s)
}

func (b *Backend) clientMatches(cl domain.Client, c *fiber.Ctx) bool {
	if status := c.Query("status"); status != "" && string(cl.Status) != status {
		return false
	}
	return containsFold(cl.FirstName+" "+cl.LastName+" "+cl.Email, c.Query("query"))
}

func (b *Backend) technicianMatches(tech domain.Technician, c *fiber.Ctx) bool {
	if status := c.Query("status"); status != "" && string(tech.Status) != status {
		return false
	}
	if skill := c.Query("skill"); skill != "" && !tech.HasSkill(skill) {
		return false
	}
	return containsFold(tech.FirstName+" "+tech.LastName+" "+tech.Email, c.Query("query"))
}

func (b *Backend) ticketMatches(t domain.Ticket, c *fiber.Ctx) bool {
	if status := c.Query("status"); status != "" && string(t.Status) != status {
		return false
	}
	if priority := c.Query("priority"); priority != "" && string(t.Priority) != priority {
		return false
	}
	if clientID := c.Query("clientId"); clientID != "" && strconv.FormatInt(t.ClientID, 10) != clientID {
		return false
	}
	if techID := c.Query("technicianId"); techID != "" {
		if t.AssignedTechnicianID == nil || strconv.FormatInt(*t.AssignedTechnicianID, 10) != techID {
			return false
		}
	}
	return containsFold(t.Title+" "+t.Description, c.Query("query"))
}

func (b *Backend) appointmentMatches(a domain.Appointment, c *fiber.Ctx) bool {
	if status := c.Query("status"); status != "" && string(a.Status) != status {
		return false
	}
	if ticketID := c.Query("ticketId"); ticketID != "" && strconv.FormatInt(a.TicketID, 10) != ticketID {
		return false
	}
	if techID := c.Query("technicianId"); techID != "" && strconv.FormatInt(a.TechnicianID, 10) != techID {
		return false
	}
	return containsFold(a.Notes, c.Query("query"))
}

func containsFold(haystack, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func pageRequest(c *fiber.Ctx) domain.PageRequest {
	return domain.PageRequest{Page: c.QueryInt("page", 0), Size: c.QueryInt("size", domain.DefaultPageSize)}.Normalize()
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "entity not found"})
}

func sortedValues[T domain.Entity](items map[int64]T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}
