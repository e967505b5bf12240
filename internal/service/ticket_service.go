package service

import (
	"context"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/lifecycle"
	"github.com/spec-kit/support-dashboard/internal/mutation"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

// TicketService is the ticket view layer: cached reads, writes with their
// invalidation rules, and lifecycle-derived state.
type TicketService struct {
	*entityService[domain.Ticket, domain.TicketInput]
	api *transport.TicketAPI
}

// StatisticsKey is the cache key of the server-side ticket aggregate.
var StatisticsKey = cachekey.New(cachekey.KindTickets, cachekey.OpStatistics, nil)

// Overdue returns open tickets past their due date.
func (s *TicketService) Overdue(ctx context.Context, page domain.PageRequest) (View[domain.Page[domain.Ticket]], error) {
	return s.view(ctx, cachekey.OpOverdue, page, s.api.Overdue)
}

// Unassigned returns tickets without a technician.
func (s *TicketService) Unassigned(ctx context.Context, page domain.PageRequest) (View[domain.Page[domain.Ticket]], error) {
	return s.view(ctx, cachekey.OpUnassigned, page, s.api.Unassigned)
}

// Urgent returns open URGENT tickets.
func (s *TicketService) Urgent(ctx context.Context, page domain.PageRequest) (View[domain.Page[domain.Ticket]], error) {
	return s.view(ctx, cachekey.OpUrgent, page, s.api.Urgent)
}

func (s *TicketService) view(
	ctx context.Context,
	op cachekey.Operation,
	page domain.PageRequest,
	fetch func(context.Context, domain.PageRequest) (domain.Page[domain.Ticket], error),
) (View[domain.Page[domain.Ticket]], error) {
	return read(ctx, s.queries, ListKey(s.kind, op, page, nil), func(ctx context.Context) (domain.Page[domain.Ticket], error) {
		return fetch(ctx, page)
	})
}

// Statistics returns the backend's aggregate over every ticket.
func (s *TicketService) Statistics(ctx context.Context) (View[domain.TicketStatistics], error) {
	return read(ctx, s.queries, StatisticsKey, s.api.Statistics)
}

// PageStatistics folds the ticket page selected by page and filter. The
// counts cover that page only and are never merged with Statistics.
func (s *TicketService) PageStatistics(ctx context.Context, page domain.PageRequest, filter domain.TicketFilter) (View[lifecycle.Statistics], error) {
	list, err := s.List(ctx, page, filter)
	if err != nil {
		return View[lifecycle.Statistics]{}, err
	}
	return View[lifecycle.Statistics]{
		Data:      lifecycle.Aggregate(list.Data.Content, s.queries.Store().Now()),
		FetchedAt: list.FetchedAt,
		Stale:     list.Stale,
	}, nil
}

// CachedStatistics folds whatever ticket page is cached under page and
// filter without fetching. It reports false when nothing is cached there.
func (s *TicketService) CachedStatistics(page domain.PageRequest, filter domain.TicketFilter) (lifecycle.Statistics, bool) {
	store := s.queries.Store()
	return lifecycle.AggregateCached(store, ListKey(s.kind, cachekey.OpList, page, filter), store.Now())
}

// Describe returns a ticket with its derived flags and available actions.
func (s *TicketService) Describe(ctx context.Context, id int64) (View[lifecycle.TicketView], error) {
	ticket, err := s.Get(ctx, id)
	if err != nil {
		return View[lifecycle.TicketView]{}, err
	}
	return View[lifecycle.TicketView]{
		Data:      lifecycle.Describe(ticket.Data, s.queries.Store().Now()),
		FetchedAt: ticket.FetchedAt,
		Stale:     ticket.Stale,
	}, nil
}

// Assign hands a ticket to a technician. The detail entry is refetched on
// next read rather than seeded.
func (s *TicketService) Assign(ctx context.Context, id, technicianID int64) (domain.Ticket, error) {
	return mutation.Run(ctx, s.mutations, mutation.AssignTicket, mutation.Params{ID: id}, func(ctx context.Context) (domain.Ticket, error) {
		return s.api.Assign(ctx, id, technicianID)
	})
}

// Close moves an OPEN ticket to CLOSED.
func (s *TicketService) Close(ctx context.Context, id int64) (domain.Ticket, error) {
	return s.transition(ctx, id, lifecycle.TransitionClose)
}

// Reopen moves a CLOSED ticket back to OPEN.
func (s *TicketService) Reopen(ctx context.Context, id int64) (domain.Ticket, error) {
	return s.transition(ctx, id, lifecycle.TransitionReopen)
}

// transition runs the server action. The status shown afterwards is the one
// the backend returns; no local transition is applied.
func (s *TicketService) transition(ctx context.Context, id int64, t lifecycle.Transition) (domain.Ticket, error) {
	op, call := mutation.CloseTicket, s.api.Close
	if t == lifecycle.TransitionReopen {
		op, call = mutation.ReopenTicket, s.api.Reopen
	}
	return mutation.Run(ctx, s.mutations, op, mutation.Params{ID: id}, func(ctx context.Context) (domain.Ticket, error) {
		return call(ctx, id)
	})
}
