package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Cache.Tickets.StaleAfter())
	assert.Equal(t, 5*time.Minute, cfg.Cache.Clients.StaleAfter())
	assert.Equal(t, time.Minute, cfg.Cache.Availability.StaleAfter())
	assert.Equal(t, 3, cfg.Retry.ReadAttempts)
	assert.Equal(t, 2, cfg.Retry.MutationAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay())
	assert.Equal(t, "@every 1m", cfg.Cache.GCSchedule)
	assert.Equal(t, "0.0.0.0:8081", cfg.App.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.internal:9000")
	t.Setenv("CACHE_TICKETS_STALE_AFTER_SECONDS", "30")
	t.Setenv("RETRY_READ_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend.internal:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Cache.Tickets.StaleAfter())
	assert.Equal(t, 5, cfg.Retry.ReadAttempts)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"bad url":            {"BACKEND_BASE_URL": "not a url"},
		"evict before stale": {"CACHE_TICKETS_STALE_AFTER_SECONDS": "900", "CACHE_TICKETS_EVICT_AFTER_SECONDS": "60"},
		"zero attempts":      {"RETRY_READ_ATTEMPTS": "0"},
		"unknown level":      {"LOG_LEVEL": "verbose"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
