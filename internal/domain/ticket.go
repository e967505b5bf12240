package domain

import (
	"net/url"
	"time"
)

// TicketStatus is a ticket's primary lifecycle state. Overdue and unassigned
// are derived flags, never statuses.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is a support request raised for a client.
type Ticket struct {
	ID                   int64          `json:"id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Status               TicketStatus   `json:"status"`
	Priority             TicketPriority `json:"priority"`
	ServiceType          string         `json:"serviceType"`
	ClientID             int64          `json:"clientId"`
	AssignedTechnicianID *int64         `json:"assignedTechnicianId"`
	DueAt                *time.Time     `json:"dueAt"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

func (t Ticket) EntityID() int64 { return t.ID }

// TicketInput is the create/update payload.
type TicketInput struct {
	Title                string         `json:"title" validate:"required"`
	Description          string         `json:"description"`
	Priority             TicketPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	ServiceType          string         `json:"serviceType"`
	ClientID             int64          `json:"clientId" validate:"required,gt=0"`
	AssignedTechnicianID *int64         `json:"assignedTechnicianId,omitempty"`
	DueAt                *time.Time     `json:"dueAt,omitempty"`
}

// AssignTicketInput is the body of the assign action.
type AssignTicketInput struct {
	TechnicianID int64 `json:"technicianId" validate:"required,gt=0"`
}

// TicketFilter narrows ticket searches.
type TicketFilter struct {
	Query        string
	Status       TicketStatus
	Priority     TicketPriority
	ClientID     *int64
	TechnicianID *int64
}

// Values encodes the filter as query parameters.
func (f TicketFilter) Values() url.Values {
	values := url.Values{}
	setString(values, "query", f.Query)
	setString(values, "status", string(f.Status))
	setString(values, "priority", string(f.Priority))
	setID(values, "clientId", f.ClientID)
	setID(values, "technicianId", f.TechnicianID)
	return values
}

// TicketStatistics is the backend's precomputed ticket aggregate over the
// full dataset.
type TicketStatistics struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	Closed     int64 `json:"closed"`
	Overdue    int64 `json:"overdue"`
	Unassigned int64 `json:"unassigned"`
	Urgent     int64 `json:"urgent"`
}
