package mutation

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/clock"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/retry"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

var epoch = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

var (
	ticketsPage0    = cachekey.New(cachekey.KindTickets, cachekey.OpList, cachekey.Params{"page": 0, "size": 20})
	ticketsSearch   = cachekey.New(cachekey.KindTickets, cachekey.OpSearch, cachekey.Params{"query": "vpn"})
	ticketStats     = cachekey.New(cachekey.KindTickets, cachekey.OpStatistics, nil)
	overdueView     = cachekey.New(cachekey.KindTickets, cachekey.OpOverdue, cachekey.Params{"page": 0})
	unassignedView  = cachekey.New(cachekey.KindTickets, cachekey.OpUnassigned, cachekey.Params{"page": 0})
	ticket1         = cachekey.Detail(cachekey.KindTickets, 1)
	ticket2         = cachekey.Detail(cachekey.KindTickets, 2)
	technicianList  = cachekey.New(cachekey.KindTechnicians, cachekey.OpList, cachekey.Params{"page": 0})
	technicianStats = cachekey.New(cachekey.KindTechnicians, cachekey.OpStatistics, nil)
	availableView   = cachekey.New(cachekey.KindTechnicians, cachekey.OpAvailable, nil)
	workloadView    = cachekey.New(cachekey.KindTechnicians, cachekey.OpWorkload, cachekey.Params{cachekey.ParamID: 5})
	clientList      = cachekey.New(cachekey.KindClients, cachekey.OpList, cachekey.Params{"page": 0})
)

var everyKey = []cachekey.Key{
	ticketsPage0, ticketsSearch, ticketStats, overdueView, unassignedView, ticket1, ticket2,
	technicianList, technicianStats, availableView, workloadView, clientList,
}

func newTestRunner(t *testing.T) (*Runner, *cache.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := cache.NewStore(cache.Options{Clock: clock.NewFake(epoch), Logger: logger})
	for _, key := range everyKey {
		store.Put(key, "cached", epoch)
	}
	runner := NewRunner(store, Options{
		Policy: retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Logger: logger,
	})
	return runner, store
}

func staleKeys(t *testing.T, store *cache.Store) map[cachekey.Key]bool {
	t.Helper()
	out := map[cachekey.Key]bool{}
	for _, key := range everyKey {
		if entry, ok := store.Get(key); ok && entry.IsStale {
			out[key] = true
		}
	}
	return out
}

func setOf(keys ...cachekey.Key) map[cachekey.Key]bool {
	out := map[cachekey.Key]bool{}
	for _, key := range keys {
		out[key] = true
	}
	return out
}

func TestMutate_InvalidationTable(t *testing.T) {
	tests := []struct {
		name  string
		op    Operation
		id    int64
		stale map[cachekey.Key]bool
	}{
		{
			name:  "create ticket",
			op:    CreateTicket,
			stale: setOf(ticketsPage0, ticketsSearch, ticketStats, unassignedView, availableView, workloadView),
		},
		{
			name:  "update ticket",
			op:    UpdateTicket,
			id:    1,
			stale: setOf(ticketsPage0, ticketsSearch, ticketStats, overdueView, unassignedView, availableView, workloadView),
		},
		{
			name:  "assign ticket",
			op:    AssignTicket,
			id:    1,
			stale: setOf(ticket1, ticketsPage0, ticketsSearch, unassignedView, ticketStats, availableView, workloadView),
		},
		{
			name:  "close ticket",
			op:    CloseTicket,
			id:    1,
			stale: setOf(ticketsPage0, ticketsSearch, ticketStats, overdueView, availableView, workloadView),
		},
		{
			name:  "create technician",
			op:    CreateTechnician,
			stale: setOf(technicianList, technicianStats, availableView, workloadView),
		},
		{
			name:  "update client",
			op:    UpdateClient,
			id:    1,
			stale: setOf(clientList),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, store := newTestRunner(t)

			_, err := runner.Mutate(context.Background(), tt.op, Params{ID: tt.id}, func(ctx context.Context) (any, error) {
				return map[string]string{"status": "ok"}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.stale, staleKeys(t, store))
		})
	}
}

func TestMutate_AssignLeavesOtherDetailsAlone(t *testing.T) {
	runner, store := newTestRunner(t)

	_, err := runner.Mutate(context.Background(), AssignTicket, Params{ID: 1}, func(ctx context.Context) (any, error) {
		return domain.Ticket{ID: 1}, nil
	})
	require.NoError(t, err)

	entry, ok := store.Get(ticket1)
	require.True(t, ok)
	assert.True(t, entry.IsStale)
	assert.Equal(t, "cached", entry.Value, "assign refetches the detail rather than seeding it")

	entry, ok = store.Get(ticket2)
	require.True(t, ok)
	assert.False(t, entry.IsStale)

	entry, ok = store.Get(unassignedView)
	require.True(t, ok)
	assert.True(t, entry.IsStale)
}

func TestMutate_SeedsDetailWithCreatedID(t *testing.T) {
	runner, store := newTestRunner(t)
	created := domain.Ticket{ID: 9, Title: "new", Status: domain.TicketStatusOpen}

	got, err := Run(context.Background(), runner, CreateTicket, Params{}, func(ctx context.Context) (domain.Ticket, error) {
		return created, nil
	})
	require.NoError(t, err)
	assert.Equal(t, created, got)

	entry, ok := store.Get(cachekey.Detail(cachekey.KindTickets, 9))
	require.True(t, ok)
	assert.Equal(t, created, entry.Value)
	assert.False(t, entry.IsStale)
}

func TestMutate_CloseSeedsDetail(t *testing.T) {
	runner, store := newTestRunner(t)
	closed := domain.Ticket{ID: 1, Status: domain.TicketStatusClosed}

	_, err := Run(context.Background(), runner, CloseTicket, Params{ID: 1}, func(ctx context.Context) (domain.Ticket, error) {
		return closed, nil
	})
	require.NoError(t, err)

	entry, ok := store.Get(ticket1)
	require.True(t, ok)
	assert.Equal(t, closed, entry.Value)
	assert.False(t, entry.IsStale)
}

func TestMutate_DeleteRemovesDetail(t *testing.T) {
	runner, store := newTestRunner(t)

	_, err := Run(context.Background(), runner, DeleteTicket, Params{ID: 1}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)

	_, ok := store.Get(ticket1)
	assert.False(t, ok)
	_, ok = store.Get(ticket2)
	assert.True(t, ok)
	assert.Equal(t,
		setOf(ticketsPage0, ticketsSearch, ticketStats, overdueView, unassignedView, availableView, workloadView),
		staleKeys(t, store))
}

func TestMutate_FailureLeavesCacheUntouched(t *testing.T) {
	runner, store := newTestRunner(t)
	calls := 0

	_, err := runner.Mutate(context.Background(), AssignTicket, Params{ID: 1}, func(ctx context.Context) (any, error) {
		calls++
		return nil, apperrors.FromStatus(http.StatusServiceUnavailable, "", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, staleKeys(t, store))
	assert.Equal(t, len(everyKey), store.Len())
}

func TestMutate_ClientErrorNotRetried(t *testing.T) {
	runner, _ := newTestRunner(t)
	calls := 0

	_, err := runner.Mutate(context.Background(), CreateTicket, Params{}, func(ctx context.Context) (any, error) {
		calls++
		return nil, apperrors.FromStatus(http.StatusUnprocessableEntity, "title is required", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestMutate_RateLimitedNotRetried(t *testing.T) {
	runner, store := newTestRunner(t)
	calls := 0

	_, err := runner.Mutate(context.Background(), CreateTicket, Params{}, func(ctx context.Context) (any, error) {
		calls++
		return nil, apperrors.FromStatus(http.StatusTooManyRequests, "", nil)
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRateLimited, apperrors.ToDomainError(err).Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, staleKeys(t, store))
}

func TestMutate_UnknownOperation(t *testing.T) {
	runner, _ := newTestRunner(t)

	_, err := runner.Mutate(context.Background(), Operation("tickets.merge"), Params{}, func(ctx context.Context) (any, error) {
		t.Fatal("fetch must not run")
		return nil, nil
	})
	require.Error(t, err)
}

func TestRules_EveryOperationInvalidatesSomething(t *testing.T) {
	for _, op := range Operations() {
		rule, ok := RuleFor(op)
		require.True(t, ok)
		assert.NotEmpty(t, rule.Invalidate, op)
		assert.NotEmpty(t, rule.Kind, op)
	}
}
