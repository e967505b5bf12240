package domain

import (
	"net/url"
	"slices"
	"time"
)

// TechnicianStatus enumerates a technician's availability state.
type TechnicianStatus string

const (
	TechnicianStatusActive     TechnicianStatus = "ACTIVE"
	TechnicianStatusOnVacation TechnicianStatus = "ON_VACATION"
	TechnicianStatusSickLeave  TechnicianStatus = "SICK_LEAVE"
	TechnicianStatusTerminated TechnicianStatus = "TERMINATED"
)

// Technician is a field engineer tickets get assigned to.
type Technician struct {
	ID        int64            `json:"id"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Status    TechnicianStatus `json:"status"`
	Skills    []string         `json:"skills"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (t Technician) EntityID() int64 { return t.ID }

// HasSkill reports whether the technician lists skill.
func (t Technician) HasSkill(skill string) bool {
	return slices.Contains(t.Skills, skill)
}

// TechnicianInput is the create/update payload.
type TechnicianInput struct {
	FirstName string           `json:"firstName" validate:"required"`
	LastName  string           `json:"lastName" validate:"required"`
	Email     string           `json:"email" validate:"required,email"`
	Phone     string           `json:"phone"`
	Status    TechnicianStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE ON_VACATION SICK_LEAVE TERMINATED"`
	Skills    []string         `json:"skills"`
}

// TechnicianFilter narrows technician searches.
type TechnicianFilter struct {
	Query  string
	Status TechnicianStatus
	Skill  string
}

// Values encodes the filter as query parameters.
func (f TechnicianFilter) Values() url.Values {
	values := url.Values{}
	setString(values, "query", f.Query)
	setString(values, "status", string(f.Status))
	setString(values, "skill", f.Skill)
	return values
}

// TechnicianWorkload is the backend's per-technician load summary.
type TechnicianWorkload struct {
	TechnicianID          int64 `json:"technicianId"`
	OpenTickets           int64 `json:"openTickets"`
	ScheduledAppointments int64 `json:"scheduledAppointments"`
}

// TechnicianStatistics is the backend's precomputed technician aggregate.
type TechnicianStatistics struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	OnVacation int64 `json:"onVacation"`
	SickLeave  int64 `json:"sickLeave"`
	Terminated int64 `json:"terminated"`
}
