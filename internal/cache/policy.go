package cache

import (
	"time"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
)

// Freshness is the two-window lifetime of a cache entry: after StaleAfter it
// is still served but refetched on the next read; after EvictAfter without
// being observed it is dropped by the sweep.
type Freshness struct {
	StaleAfter time.Duration
	EvictAfter time.Duration
}

// PolicySet resolves the freshness of a key. Operation overrides win over
// kind policies, which win over Default.
type PolicySet struct {
	Default    Freshness
	Kinds      map[cachekey.Kind]Freshness
	Operations map[cachekey.Operation]Freshness
}

// DefaultPolicies is the policy the dashboard ships with. Availability and
// workload views go stale first.
func DefaultPolicies() PolicySet {
	busy := Freshness{StaleAfter: 2 * time.Minute, EvictAfter: 10 * time.Minute}
	directory := Freshness{StaleAfter: 5 * time.Minute, EvictAfter: 10 * time.Minute}
	operational := Freshness{StaleAfter: time.Minute, EvictAfter: 5 * time.Minute}
	return PolicySet{
		Default: directory,
		Kinds: map[cachekey.Kind]Freshness{
			cachekey.KindTickets:      busy,
			cachekey.KindAppointments: busy,
			cachekey.KindClients:      directory,
			cachekey.KindTechnicians:  directory,
		},
		Operations: map[cachekey.Operation]Freshness{
			cachekey.OpAvailable: operational,
			cachekey.OpWorkload:  operational,
		},
	}
}

// For returns the freshness that applies to key.
func (p PolicySet) For(key cachekey.Key) Freshness {
	if f, ok := p.Operations[key.Operation()]; ok {
		return f
	}
	if f, ok := p.Kinds[key.Kind()]; ok {
		return f
	}
	return p.Default
}
