package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-dashboard/internal/domain"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

var now = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrID(id int64) *int64 { return &id }

func TestIsOverdue(t *testing.T) {
	due := ptrTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	open := domain.Ticket{Status: domain.TicketStatusOpen, DueAt: due}
	assert.True(t, IsOverdue(open, now))

	closed := open
	closed.Status = domain.TicketStatusClosed
	assert.False(t, IsOverdue(closed, now))

	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusClosed} {
		assert.False(t, IsOverdue(domain.Ticket{Status: status}, now), status)
	}

	future := domain.Ticket{Status: domain.TicketStatusOpen, DueAt: ptrTime(now.Add(time.Hour))}
	assert.False(t, IsOverdue(future, now))

	exactlyDue := domain.Ticket{Status: domain.TicketStatusOpen, DueAt: ptrTime(now)}
	assert.False(t, IsOverdue(exactlyDue, now))
}

func TestIsAssigned(t *testing.T) {
	assert.False(t, IsAssigned(domain.Ticket{}))
	assert.True(t, IsAssigned(domain.Ticket{AssignedTechnicianID: ptrID(4)}))
}

func TestNext(t *testing.T) {
	next, err := Next(domain.TicketStatusOpen, TransitionClose)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, next)

	next, err = Next(domain.TicketStatusClosed, TransitionReopen)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, next)

	_, err = Next(domain.TicketStatusClosed, TransitionClose)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.ToDomainError(err).Code)

	_, err = Next(domain.TicketStatusOpen, TransitionReopen)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	ticket := domain.Ticket{
		ID:       3,
		Status:   domain.TicketStatusOpen,
		Priority: domain.TicketPriorityUrgent,
		DueAt:    ptrTime(now.Add(-time.Hour)),
	}

	view := Describe(ticket, now)

	assert.Equal(t, int64(3), view.ID)
	assert.True(t, view.Overdue)
	assert.False(t, view.Assigned)
	assert.True(t, view.Urgent)
	assert.Equal(t, []Transition{TransitionClose}, view.Actions)

	ticket.Status = domain.TicketStatusClosed
	view = Describe(ticket, now)
	assert.False(t, view.Overdue)
	assert.Equal(t, []Transition{TransitionReopen}, view.Actions)
}
