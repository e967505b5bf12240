package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordLookup("tickets", LookupHit)
	m.RecordLookup("tickets", LookupHit)
	m.RecordLookup("tickets", LookupMiss)
	m.RecordFetch("tickets", nil)
	m.RecordFetch("tickets", errors.New("boom"))
	m.RecordRetry("tickets", "query")
	m.RecordInvalidation("tickets", "stale", 3)
	m.RecordInvalidation("tickets", "stale", 0)
	m.RecordEviction(2)
	m.RecordRequest("/api/tickets", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/tickets", "GET", "NOT_FOUND")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("tickets", LookupHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("tickets", LookupMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("tickets", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("tickets", "query")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.invalidations.WithLabelValues("tickets", "stale")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.evictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/api/tickets", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCount.WithLabelValues("/api/tickets", "GET", "NOT_FOUND")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLookup("tickets", LookupHit)
		m.RecordFetch("tickets", nil)
		m.RecordEviction(1)
		m.RecordRequest("/", "GET", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}
