package dto

import (
	"github.com/spec-kit/support-dashboard/internal/domain"
)

// ClientQuery captures client list and search filters.
type ClientQuery struct {
	Page   int    `query:"page" validate:"gte=0"`
	Size   int    `query:"size" validate:"gte=0,lte=200"`
	Query  string `query:"query"`
	Status string `query:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED TERMINATED"`
}

// PageRequest returns the page part of the query.
func (q ClientQuery) PageRequest() domain.PageRequest {
	return PageQuery{Page: q.Page, Size: q.Size}.PageRequest()
}

// Filter returns the filter part of the query.
func (q ClientQuery) Filter() domain.ClientFilter {
	return domain.ClientFilter{Query: q.Query, Status: domain.ClientStatus(q.Status)}
}

// TechnicianQuery captures technician list and search filters.
type TechnicianQuery struct {
	Page   int    `query:"page" validate:"gte=0"`
	Size   int    `query:"size" validate:"gte=0,lte=200"`
	Query  string `query:"query"`
	Status string `query:"status" validate:"omitempty,oneof=ACTIVE ON_VACATION SICK_LEAVE TERMINATED"`
	Skill  string `query:"skill"`
}

// PageRequest returns the page part of the query.
func (q TechnicianQuery) PageRequest() domain.PageRequest {
	return PageQuery{Page: q.Page, Size: q.Size}.PageRequest()
}

// Filter returns the filter part of the query.
func (q TechnicianQuery) Filter() domain.TechnicianFilter {
	return domain.TechnicianFilter{Query: q.Query, Status: domain.TechnicianStatus(q.Status), Skill: q.Skill}
}

// AppointmentQuery captures appointment list and search filters.
type AppointmentQuery struct {
	Page         int    `query:"page" validate:"gte=0"`
	Size         int    `query:"size" validate:"gte=0,lte=200"`
	Query        string `query:"query"`
	Status       string `query:"status" validate:"omitempty,oneof=PENDING CONFIRMED IN_PROGRESS COMPLETED CANCELLED NO_SHOW"`
	TicketID     int64  `query:"ticketId" validate:"gte=0"`
	TechnicianID int64  `query:"technicianId" validate:"gte=0"`
}

// PageRequest returns the page part of the query.
func (q AppointmentQuery) PageRequest() domain.PageRequest {
	return PageQuery{Page: q.Page, Size: q.Size}.PageRequest()
}

// Filter returns the filter part of the query.
func (q AppointmentQuery) Filter() domain.AppointmentFilter {
	return domain.AppointmentFilter{
		Query:        q.Query,
		Status:       domain.AppointmentStatus(q.Status),
		TicketID:     optionalID(q.TicketID),
		TechnicianID: optionalID(q.TechnicianID),
	}
}
