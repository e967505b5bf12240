package lifecycle

import (
	"time"

	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/domain"
)

// Statistics are the counts folded over the tickets a view holds. They
// describe that collection only; the server's full-dataset aggregate is
// domain.TicketStatistics and the two are never mixed.
type Statistics struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	Closed     int `json:"closed"`
	Overdue    int `json:"overdue"`
	Unassigned int `json:"unassigned"`
	Urgent     int `json:"urgent"`
}

// Aggregate folds tickets into Statistics in a single pass.
func Aggregate(tickets []domain.Ticket, now time.Time) Statistics {
	var s Statistics
	for _, t := range tickets {
		s.Total++
		switch t.Status {
		case domain.TicketStatusOpen:
			s.Open++
		case domain.TicketStatusClosed:
			s.Closed++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
		if !IsAssigned(t) {
			s.Unassigned++
		}
		if IsUrgent(t) {
			s.Urgent++
		}
	}
	return s
}

// Reader is the read-only view of the cache the engine needs.
type Reader interface {
	Get(key cachekey.Key) (cache.Entry, bool)
}

// AggregateCached folds the tickets cached under key without fetching. It
// reports false when nothing usable is cached there.
func AggregateCached(r Reader, key cachekey.Key, now time.Time) (Statistics, bool) {
	entry, ok := r.Get(key)
	if !ok {
		return Statistics{}, false
	}
	tickets, ok := Tickets(entry.Value)
	if !ok {
		return Statistics{}, false
	}
	return Aggregate(tickets, now), true
}

// Tickets extracts a ticket collection from a cached value.
func Tickets(value any) ([]domain.Ticket, bool) {
	switch v := value.(type) {
	case domain.Page[domain.Ticket]:
		return v.Content, true
	case *domain.Page[domain.Ticket]:
		if v == nil {
			return nil, false
		}
		return v.Content, true
	case []domain.Ticket:
		return v, true
	case domain.Ticket:
		return []domain.Ticket{v}, true
	default:
		return nil, false
	}
}
