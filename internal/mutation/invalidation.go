package mutation

import (
	"github.com/spec-kit/support-dashboard/internal/cachekey"
)

// Operation names a server-side write.
type Operation string

const (
	CreateTicket Operation = "tickets.create"
	UpdateTicket Operation = "tickets.update"
	AssignTicket Operation = "tickets.assign"
	CloseTicket  Operation = "tickets.close"
	ReopenTicket Operation = "tickets.reopen"
	DeleteTicket Operation = "tickets.delete"

	CreateTechnician Operation = "technicians.create"
	UpdateTechnician Operation = "technicians.update"
	DeleteTechnician Operation = "technicians.delete"

	CreateClient Operation = "clients.create"
	UpdateClient Operation = "clients.update"
	DeleteClient Operation = "clients.delete"

	CreateAppointment Operation = "appointments.create"
	UpdateAppointment Operation = "appointments.update"
	DeleteAppointment Operation = "appointments.delete"
)

// Seed says what a successful write does to the entity's own detail entry.
type Seed int

const (
	// SeedNone leaves the detail entry to the invalidation list.
	SeedNone Seed = iota
	// SeedDetail stores the returned entity at its detail key.
	SeedDetail
	// RemoveDetail drops the detail entry.
	RemoveDetail
)

// Action is applied to every entry a Target selects.
type Action string

const (
	ActionStale  Action = "stale"
	ActionRemove Action = "remove"
)

// Target is one invalidation step.
type Target struct {
	Prefix cachekey.Prefix
	Action Action
	// ByID narrows the prefix to keys carrying the mutated entity's id.
	ByID bool
}

// Rule is the cache effect of one Operation.
type Rule struct {
	Kind       cachekey.Kind
	Seed       Seed
	Invalidate []Target
}

var (
	ticketDetail      = cachekey.All(cachekey.KindTickets).Ops(cachekey.OpDetail)
	ticketLists       = cachekey.All(cachekey.KindTickets).Ops(cachekey.OpList, cachekey.OpSearch)
	ticketStatistics  = cachekey.All(cachekey.KindTickets).Ops(cachekey.OpStatistics)
	overdueTickets    = cachekey.All(cachekey.KindTickets).Ops(cachekey.OpOverdue)
	unassignedTickets = cachekey.All(cachekey.KindTickets).Ops(cachekey.OpUnassigned)
	urgentTickets     = cachekey.All(cachekey.KindTickets).Ops(cachekey.OpUrgent)

	technicianLists      = cachekey.All(cachekey.KindTechnicians).Ops(cachekey.OpList, cachekey.OpSearch)
	technicianStatistics = cachekey.All(cachekey.KindTechnicians).Ops(cachekey.OpStatistics)
	availability         = cachekey.All(cachekey.KindTechnicians).Ops(cachekey.OpAvailable, cachekey.OpWorkload)

	clientLists      = cachekey.All(cachekey.KindClients).Ops(cachekey.OpList, cachekey.OpSearch)
	appointmentLists = cachekey.All(cachekey.KindAppointments).Ops(cachekey.OpList, cachekey.OpSearch)
)

func stale(prefixes ...cachekey.Prefix) []Target {
	targets := make([]Target, len(prefixes))
	for i, p := range prefixes {
		targets[i] = Target{Prefix: p, Action: ActionStale}
	}
	return targets
}

func staleByID(p cachekey.Prefix) []Target {
	return []Target{{Prefix: p, Action: ActionStale, ByID: true}}
}

// Invalidation is coarse and prefix based. Ticket writes also touch the
// urgent view and technician workload, which count open tickets.
var rules = map[Operation]Rule{
	CreateTicket: {
		Kind:       cachekey.KindTickets,
		Seed:       SeedDetail,
		Invalidate: stale(ticketLists, ticketStatistics, unassignedTickets, urgentTickets, availability),
	},
	UpdateTicket: {
		Kind:       cachekey.KindTickets,
		Seed:       SeedDetail,
		Invalidate: stale(ticketLists, ticketStatistics, overdueTickets, unassignedTickets, urgentTickets, availability),
	},
	AssignTicket: {
		Kind:       cachekey.KindTickets,
		Seed:       SeedNone,
		Invalidate: append(staleByID(ticketDetail), stale(ticketLists, unassignedTickets, ticketStatistics, availability)...),
	},
	CloseTicket: {
		Kind:       cachekey.KindTickets,
		Seed:       SeedDetail,
		Invalidate: stale(ticketLists, ticketStatistics, overdueTickets, urgentTickets, availability),
	},
	ReopenTicket: {
		Kind:       cachekey.KindTickets,
		Seed:       SeedDetail,
		Invalidate: stale(ticketLists, ticketStatistics, overdueTickets, urgentTickets, availability),
	},
	DeleteTicket: {
		Kind:       cachekey.KindTickets,
		Seed:       RemoveDetail,
		Invalidate: stale(ticketLists, ticketStatistics, overdueTickets, unassignedTickets, urgentTickets, availability),
	},

	CreateTechnician: {
		Kind:       cachekey.KindTechnicians,
		Seed:       SeedDetail,
		Invalidate: stale(technicianLists, technicianStatistics, availability),
	},
	UpdateTechnician: {
		Kind:       cachekey.KindTechnicians,
		Seed:       SeedDetail,
		Invalidate: stale(technicianLists, technicianStatistics, availability),
	},
	DeleteTechnician: {
		Kind:       cachekey.KindTechnicians,
		Seed:       RemoveDetail,
		Invalidate: stale(technicianLists, technicianStatistics, availability),
	},

	CreateClient: {Kind: cachekey.KindClients, Seed: SeedDetail, Invalidate: stale(clientLists)},
	UpdateClient: {Kind: cachekey.KindClients, Seed: SeedDetail, Invalidate: stale(clientLists)},
	DeleteClient: {Kind: cachekey.KindClients, Seed: RemoveDetail, Invalidate: stale(clientLists)},

	CreateAppointment: {
		Kind:       cachekey.KindAppointments,
		Seed:       SeedDetail,
		Invalidate: stale(appointmentLists, availability),
	},
	UpdateAppointment: {
		Kind:       cachekey.KindAppointments,
		Seed:       SeedDetail,
		Invalidate: stale(appointmentLists, availability),
	},
	DeleteAppointment: {
		Kind:       cachekey.KindAppointments,
		Seed:       RemoveDetail,
		Invalidate: stale(appointmentLists, availability),
	},
}

// RuleFor returns the rule registered for op.
func RuleFor(op Operation) (Rule, bool) {
	rule, ok := rules[op]
	return rule, ok
}

// Operations lists every registered operation.
func Operations() []Operation {
	ops := make([]Operation, 0, len(rules))
	for op := range rules {
		ops = append(ops, op)
	}
	return ops
}
