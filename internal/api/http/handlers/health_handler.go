package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

// BreakerReporter exposes the backend circuit state.
type BreakerReporter interface {
	BreakerState() string
}

// CacheReporter exposes the number of cached entries.
type CacheReporter interface {
	Len() int
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	backend     BreakerReporter
	cache       CacheReporter
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, backend BreakerReporter, cache CacheReporter) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, backend: backend, cache: cache}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness. The dashboard is not ready while the backend
// circuit is open; cached views are still reported.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	breaker := h.backend.BreakerState()
	depStatus := fiber.Map{
		"backend":       breaker,
		"cache_entries": h.cache.Len(),
	}

	if breaker != gobreaker.StateOpen.String() {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "backend circuit is open",
			"details": depStatus,
		},
	})
}
