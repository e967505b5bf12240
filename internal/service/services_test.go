package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/clock"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/lifecycle"
	"github.com/spec-kit/support-dashboard/internal/mutation"
	"github.com/spec-kit/support-dashboard/internal/query"
	"github.com/spec-kit/support-dashboard/internal/retry"
	"github.com/spec-kit/support-dashboard/internal/service"
	"github.com/spec-kit/support-dashboard/internal/testutil/fakebackend"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

var now = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

type env struct {
	backend  *fakebackend.Backend
	services *service.Services
	queries  *query.Runner
	store    *cache.Store
	clock    *clock.Fake
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	clk := clock.NewFake(now)
	backend := fakebackend.Start(t)
	backend.SetNow(clk.Now)

	api := transport.NewAPI(transport.NewClient(transport.Config{BaseURL: backend.URL, Timeout: 2 * time.Second}, logger))
	store := cache.NewStore(cache.Options{Clock: clk, Logger: logger})
	fast := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	queries := query.NewRunner(store, query.Options{Policy: fast, Logger: logger})
	t.Cleanup(queries.Close)
	mutations := mutation.NewRunner(store, mutation.Options{Policy: retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}, Logger: logger})

	return &env{
		backend:  backend,
		services: service.New(service.Dependencies{API: api, Queries: queries, Mutations: mutations}),
		queries:  queries,
		store:    store,
		clock:    clk,
	}
}

// statistics reads the server aggregate the way a view does: served from
// cache, refreshed in the background when stale, then read again.
func (e *env) statistics(t *testing.T) domain.TicketStatistics {
	t.Helper()
	view, err := e.services.Tickets.Statistics(context.Background())
	require.NoError(t, err)
	if !view.Stale {
		return view.Data
	}
	e.queries.Wait()
	view, err = e.services.Tickets.Statistics(context.Background())
	require.NoError(t, err)
	require.False(t, view.Stale)
	return view.Data
}

func TestTicketLifecycleEndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := e.backend.SeedClient(domain.Client{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	tech := e.backend.SeedTechnician(domain.Technician{FirstName: "Grace", LastName: "Hopper"})
	due := now.Add(-24 * time.Hour)

	before := e.statistics(t)

	created, err := e.services.Tickets.Create(ctx, domain.TicketInput{
		Title:    "VPN down",
		Priority: domain.TicketPriorityHigh,
		ClientID: client.ID,
		DueAt:    &due,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Nil(t, created.AssignedTechnicianID)

	afterCreate := e.statistics(t)
	assert.Equal(t, before.Open+1, afterCreate.Open)
	assert.Equal(t, before.Unassigned+1, afterCreate.Unassigned)
	assert.Equal(t, before.Overdue+1, afterCreate.Overdue)

	_, err = e.services.Tickets.Assign(ctx, created.ID, tech.ID)
	require.NoError(t, err)

	afterAssign := e.statistics(t)
	assert.Equal(t, afterCreate.Unassigned-1, afterAssign.Unassigned)

	closed, err := e.services.Tickets.Close(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)

	afterClose := e.statistics(t)
	assert.Equal(t, afterAssign.Open-1, afterClose.Open)
	assert.Equal(t, afterAssign.Closed+1, afterClose.Closed)
	assert.Equal(t, afterAssign.Overdue-1, afterClose.Overdue)

	described, err := e.services.Tickets.Describe(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, described.Data.Overdue)
	assert.True(t, described.Data.Assigned)
	assert.Equal(t, []lifecycle.Transition{lifecycle.TransitionReopen}, described.Data.Actions)
}

func TestAssignInvalidatesUnassignedView(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tech := e.backend.SeedTechnician(domain.Technician{FirstName: "Grace"})
	ticket := e.backend.SeedTicket(domain.Ticket{Title: "printer", Priority: domain.TicketPriorityLow})

	view, err := e.services.Tickets.Unassigned(ctx, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, view.Data.Content, 1)

	_, err = e.services.Tickets.Assign(ctx, ticket.ID, tech.ID)
	require.NoError(t, err)

	view, err = e.services.Tickets.Unassigned(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.True(t, view.Stale, "pre-assignment page must not be served as current")

	e.queries.Wait()
	view, err = e.services.Tickets.Unassigned(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.False(t, view.Stale)
	assert.Empty(t, view.Data.Content)
}

func TestReadsAreServedFromCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.backend.SeedTicket(domain.Ticket{Title: "a"})

	for i := 0; i < 3; i++ {
		_, err := e.services.Tickets.List(ctx, domain.PageRequest{Size: 10}, domain.TicketFilter{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, e.backend.Calls("GET /api/tickets"))

	e.clock.Advance(3 * time.Minute)
	view, err := e.services.Tickets.List(ctx, domain.PageRequest{Size: 10}, domain.TicketFilter{})
	require.NoError(t, err)
	assert.True(t, view.Stale)
	e.queries.Wait()
	assert.Equal(t, 2, e.backend.Calls("GET /api/tickets"))
}

func TestPageStatisticsFoldsCachedPage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	techID := e.backend.SeedTechnician(domain.Technician{FirstName: "Grace"}).ID
	past := now.Add(-96 * time.Hour)
	e.backend.SeedTicket(domain.Ticket{Title: "a", Priority: domain.TicketPriorityUrgent, DueAt: &past, AssignedTechnicianID: &techID})
	e.backend.SeedTicket(domain.Ticket{Title: "b", Priority: domain.TicketPriorityLow})
	e.backend.SeedTicket(domain.Ticket{Title: "c", Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusClosed, AssignedTechnicianID: &techID})

	_, ok := e.services.Tickets.CachedStatistics(domain.PageRequest{}, domain.TicketFilter{})
	assert.False(t, ok)

	view, err := e.services.Tickets.PageStatistics(ctx, domain.PageRequest{}, domain.TicketFilter{})
	require.NoError(t, err)
	want := lifecycle.Statistics{Total: 3, Open: 2, Closed: 1, Overdue: 1, Unassigned: 1, Urgent: 1}
	assert.Equal(t, want, view.Data)

	cached, ok := e.services.Tickets.CachedStatistics(domain.PageRequest{}, domain.TicketFilter{})
	require.True(t, ok)
	assert.Equal(t, want, cached)
}

func TestDeleteRemovesDetail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := e.backend.SeedClient(domain.Client{FirstName: "Ada", Email: "ada@example.com"})

	_, err := e.services.Clients.Get(ctx, client.ID)
	require.NoError(t, err)
	require.NoError(t, e.services.Clients.Delete(ctx, client.ID))

	_, err = e.services.Clients.Get(ctx, client.ID)
	require.Error(t, err)
	assert.Equal(t, 2, e.backend.Calls("GET /api/clients/1"))
}

func TestTechnicianWorkloadRefreshesAfterAssign(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tech := e.backend.SeedTechnician(domain.Technician{FirstName: "Grace"})
	ticket := e.backend.SeedTicket(domain.Ticket{Title: "a"})

	load, err := e.services.Technicians.Workload(ctx, tech.ID)
	require.NoError(t, err)
	assert.Zero(t, load.Data.OpenTickets)

	_, err = e.services.Tickets.Assign(ctx, ticket.ID, tech.ID)
	require.NoError(t, err)
	_, err = e.services.Technicians.Workload(ctx, tech.ID)
	require.NoError(t, err)
	e.queries.Wait()

	load, err = e.services.Technicians.Workload(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), load.Data.OpenTickets)
}
