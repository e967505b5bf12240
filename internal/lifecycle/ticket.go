// Package lifecycle turns ticket records into display-ready state: the
// OPEN/CLOSED machine, the derived overdue and assigned flags, and the
// aggregate counts over a ticket collection. Everything here is a pure
// function of its inputs and the supplied time.
package lifecycle

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/support-dashboard/internal/domain"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

// Transition names a server-side status action.
type Transition string

const (
	TransitionClose  Transition = "close"
	TransitionReopen Transition = "reopen"
)

var allowedTransitions = map[domain.TicketStatus]map[Transition]domain.TicketStatus{
	domain.TicketStatusOpen:   {TransitionClose: domain.TicketStatusClosed},
	domain.TicketStatusClosed: {TransitionReopen: domain.TicketStatusOpen},
}

// Next returns the status a transition leads to from current, or a CONFLICT
// error when the transition does not apply.
func Next(current domain.TicketStatus, t Transition) (domain.TicketStatus, error) {
	next, ok := allowedTransitions[current][t]
	if !ok {
		return current, apperrors.NewDomainError(apperrors.CodeConflict,
			fmt.Sprintf("cannot %s a ticket in status %s", t, current),
			http.StatusConflict,
			map[string]any{"status": current, "transition": t})
	}
	return next, nil
}

// AllowedTransitions lists the actions available from status.
func AllowedTransitions(status domain.TicketStatus) []Transition {
	switch status {
	case domain.TicketStatusOpen:
		return []Transition{TransitionClose}
	case domain.TicketStatusClosed:
		return []Transition{TransitionReopen}
	default:
		return nil
	}
}

// IsOverdue: open, has a due date, and the due date is before now. A closed
// ticket is never overdue.
func IsOverdue(t domain.Ticket, now time.Time) bool {
	return t.Status == domain.TicketStatusOpen && t.DueAt != nil && t.DueAt.Before(now)
}

// IsAssigned reports whether a technician is associated.
func IsAssigned(t domain.Ticket) bool {
	return t.AssignedTechnicianID != nil
}

// IsUrgent reports URGENT priority.
func IsUrgent(t domain.Ticket) bool {
	return t.Priority == domain.TicketPriorityUrgent
}

// TicketView is a ticket with its derived flags, recomputed on every read.
type TicketView struct {
	domain.Ticket
	Overdue  bool         `json:"overdue"`
	Assigned bool         `json:"assigned"`
	Urgent   bool         `json:"urgent"`
	Actions  []Transition `json:"actions"`
}

// Describe derives the view of t as of now.
func Describe(t domain.Ticket, now time.Time) TicketView {
	return TicketView{
		Ticket:   t,
		Overdue:  IsOverdue(t, now),
		Assigned: IsAssigned(t),
		Urgent:   IsUrgent(t),
		Actions:  AllowedTransitions(t.Status),
	}
}

// DescribeAll derives views for a collection, preserving order.
func DescribeAll(tickets []domain.Ticket, now time.Time) []TicketView {
	views := make([]TicketView, len(tickets))
	for i, t := range tickets {
		views[i] = Describe(t, now)
	}
	return views
}
