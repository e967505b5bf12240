package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/support-dashboard/pkg/util/validation"
)

// Config aggregates runtime configuration for the dashboard.
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Cache   CacheConfig
	Retry   RetryConfig
	Logger  LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `validate:"required"`
	Env                   string `validate:"oneof=development staging production test"`
	Host                  string
	Port                  string `validate:"required,numeric"`
	Version               string
	RequestTimeoutSeconds int `validate:"gte=0"`
}

// BackendConfig points the transport at the REST backend.
type BackendConfig struct {
	BaseURL            string `validate:"required,url"`
	TimeoutSeconds     int    `validate:"gt=0"`
	BreakerFailures    int    `validate:"gt=0"`
	BreakerOpenSeconds int    `validate:"gt=0"`
}

// FreshnessConfig is one staleAfter/evictAfter pair in seconds.
type FreshnessConfig struct {
	StaleAfterSeconds int `validate:"gt=0"`
	EvictAfterSeconds int `validate:"gtefield=StaleAfterSeconds"`
}

// CacheConfig holds per-family freshness windows and the sweep schedule.
type CacheConfig struct {
	Default      FreshnessConfig
	Tickets      FreshnessConfig
	Clients      FreshnessConfig
	Technicians  FreshnessConfig
	Appointments FreshnessConfig
	// Availability applies to the technician available and workload views.
	Availability FreshnessConfig
	GCSchedule   string `validate:"required"`
}

// RetryConfig bounds the query and mutation retry loops.
type RetryConfig struct {
	ReadAttempts     int `validate:"gte=1"`
	MutationAttempts int `validate:"gte=1"`
	BaseDelayMillis  int `validate:"gt=0"`
	MaxDelayMillis   int `validate:"gtefield=BaseDelayMillis"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-dashboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8081"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Backend: BackendConfig{
			BaseURL:            getEnv("BACKEND_BASE_URL", "http://127.0.0.1:8080"),
			TimeoutSeconds:     getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 10),
			BreakerFailures:    getEnvAsInt("BACKEND_BREAKER_FAILURES", 5),
			BreakerOpenSeconds: getEnvAsInt("BACKEND_BREAKER_OPEN_SECONDS", 30),
		},
		Cache: CacheConfig{
			Default:      getFreshness("CACHE_DEFAULT", 300, 600),
			Tickets:      getFreshness("CACHE_TICKETS", 120, 600),
			Clients:      getFreshness("CACHE_CLIENTS", 300, 600),
			Technicians:  getFreshness("CACHE_TECHNICIANS", 300, 600),
			Appointments: getFreshness("CACHE_APPOINTMENTS", 120, 600),
			Availability: getFreshness("CACHE_AVAILABILITY", 60, 300),
			GCSchedule:   getEnv("CACHE_GC_SCHEDULE", "@every 1m"),
		},
		Retry: RetryConfig{
			ReadAttempts:     getEnvAsInt("RETRY_READ_ATTEMPTS", 3),
			MutationAttempts: getEnvAsInt("RETRY_MUTATION_ATTEMPTS", 2),
			BaseDelayMillis:  getEnvAsInt("RETRY_BASE_DELAY_MS", 1000),
			MaxDelayMillis:   getEnvAsInt("RETRY_MAX_DELAY_MS", 30000),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// Timeout is the per-call transport timeout.
func (b BackendConfig) Timeout() time.Duration {
	return seconds(b.TimeoutSeconds)
}

// BreakerOpenFor is how long the circuit stays open once tripped.
func (b BackendConfig) BreakerOpenFor() time.Duration {
	return seconds(b.BreakerOpenSeconds)
}

// StaleAfter returns the window after which an entry needs a refetch.
func (f FreshnessConfig) StaleAfter() time.Duration {
	return seconds(f.StaleAfterSeconds)
}

// EvictAfter returns the idle window after which an entry is swept.
func (f FreshnessConfig) EvictAfter() time.Duration {
	return seconds(f.EvictAfterSeconds)
}

// BaseDelay is the first backoff interval.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMillis) * time.Millisecond
}

// MaxDelay caps the backoff interval.
func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMillis) * time.Millisecond
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getFreshness(prefix string, staleAfter, evictAfter int) FreshnessConfig {
	return FreshnessConfig{
		StaleAfterSeconds: getEnvAsInt(prefix+"_STALE_AFTER_SECONDS", staleAfter),
		EvictAfterSeconds: getEnvAsInt(prefix+"_EVICT_AFTER_SECONDS", evictAfter),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
