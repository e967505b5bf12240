package dto

import (
	"github.com/spec-kit/support-dashboard/internal/domain"
)

// PageQuery is the page selection shared by every list endpoint.
type PageQuery struct {
	Page int `query:"page" validate:"gte=0"`
	Size int `query:"size" validate:"gte=0,lte=200"`
}

// PageRequest converts the query into a normalized request.
func (q PageQuery) PageRequest() domain.PageRequest {
	return domain.PageRequest{Page: q.Page, Size: q.Size}.Normalize()
}

// TicketQuery captures ticket list and search filters.
type TicketQuery struct {
	Page         int    `query:"page" validate:"gte=0"`
	Size         int    `query:"size" validate:"gte=0,lte=200"`
	Query        string `query:"query"`
	Status       string `query:"status" validate:"omitempty,oneof=OPEN CLOSED"`
	Priority     string `query:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	ClientID     int64  `query:"clientId" validate:"gte=0"`
	TechnicianID int64  `query:"technicianId" validate:"gte=0"`
}

// PageRequest returns the page part of the query.
func (q TicketQuery) PageRequest() domain.PageRequest {
	return PageQuery{Page: q.Page, Size: q.Size}.PageRequest()
}

// Filter returns the filter part of the query.
func (q TicketQuery) Filter() domain.TicketFilter {
	return domain.TicketFilter{
		Query:        q.Query,
		Status:       domain.TicketStatus(q.Status),
		Priority:     domain.TicketPriority(q.Priority),
		ClientID:     optionalID(q.ClientID),
		TechnicianID: optionalID(q.TechnicianID),
	}
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	TechnicianID int64 `json:"technicianId" validate:"required,gt=0"`
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
