package domain

import (
	"net/url"
	"time"
)

// AppointmentStatus enumerates visit states.
type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

// Appointment is a scheduled technician visit for a ticket.
type Appointment struct {
	ID             int64             `json:"id"`
	TicketID       int64             `json:"ticketId"`
	TechnicianID   int64             `json:"technicianId"`
	ScheduledStart time.Time         `json:"scheduledStart"`
	ScheduledEnd   time.Time         `json:"scheduledEnd"`
	Status         AppointmentStatus `json:"status"`
	Notes          string            `json:"notes"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (a Appointment) EntityID() int64 { return a.ID }

// AppointmentInput is the create/update payload.
type AppointmentInput struct {
	TicketID       int64             `json:"ticketId" validate:"required,gt=0"`
	TechnicianID   int64             `json:"technicianId" validate:"required,gt=0"`
	ScheduledStart time.Time         `json:"scheduledStart" validate:"required"`
	ScheduledEnd   time.Time         `json:"scheduledEnd" validate:"required,gtfield=ScheduledStart"`
	Status         AppointmentStatus `json:"status,omitempty"`
	Notes          string            `json:"notes"`
}

// AppointmentFilter narrows appointment searches.
type AppointmentFilter struct {
	Query        string
	Status       AppointmentStatus
	TicketID     *int64
	TechnicianID *int64
}

// Values encodes the filter as query parameters.
func (f AppointmentFilter) Values() url.Values {
	values := url.Values{}
	setString(values, "query", f.Query)
	setString(values, "status", string(f.Status))
	setID(values, "ticketId", f.TicketID)
	setID(values, "technicianId", f.TechnicianID)
	return values
}
