package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	httptransport "github.com/spec-kit/support-dashboard/internal/api/http"
	"github.com/spec-kit/support-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/support-dashboard/internal/cache"
	"github.com/spec-kit/support-dashboard/internal/clock"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/mutation"
	"github.com/spec-kit/support-dashboard/internal/observability"
	"github.com/spec-kit/support-dashboard/internal/query"
	"github.com/spec-kit/support-dashboard/internal/retry"
	"github.com/spec-kit/support-dashboard/internal/service"
	"github.com/spec-kit/support-dashboard/internal/testutil/fakebackend"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

var now = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func newApp(t *testing.T) (*fiber.App, *fakebackend.Backend) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()
	clk := clock.NewFake(now)
	backend := fakebackend.Start(t)
	backend.SetNow(clk.Now)

	client := transport.NewClient(transport.Config{BaseURL: backend.URL, Timeout: 2 * time.Second}, logger)
	store := cache.NewStore(cache.Options{Clock: clk, Logger: logger, Metrics: metrics})
	fast := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	queries := query.NewRunner(store, query.Options{Policy: fast, Logger: logger, Metrics: metrics})
	t.Cleanup(queries.Close)
	mutations := mutation.NewRunner(store, mutation.Options{Policy: fast, Logger: logger, Metrics: metrics})
	services := service.New(service.Dependencies{API: transport.NewAPI(client), Queries: queries, Mutations: mutations})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler("support-dashboard", "test", client, store),
		Tickets:      handlers.NewTicketsHandler(services.Tickets),
		Technicians:  handlers.NewTechniciansHandler(services.Technicians),
		Clients:      handlers.NewClientsHandler(services.Clients),
		Appointments: handlers.NewAppointmentsHandler(services.Appointments),
		Registry:     metrics.Registry(),
	})
	return app, backend
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app, _ := newApp(t)

	status, body := call(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = call(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "closed", deps["backend"])
}

func TestCreateTicketValidation(t *testing.T) {
	app, backend := newApp(t)

	status, body := call(t, app, http.MethodPost, "/api/tickets", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	fields := errBody["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "priority")
	assert.Zero(t, backend.Calls("POST /api/tickets"), "invalid payloads never reach the backend")
}

func TestTicketFlow(t *testing.T) {
	app, backend := newApp(t)
	client := backend.SeedClient(domain.Client{FirstName: "Ada", Email: "ada@example.com"})
	due := now.Add(-time.Hour)

	status, body := call(t, app, http.MethodPost, "/api/tickets", domain.TicketInput{
		Title:    "VPN down",
		Priority: domain.TicketPriorityUrgent,
		ClientID: client.ID,
		DueAt:    &due,
	})
	require.Equal(t, http.StatusCreated, status)
	id := int64(body["data"].(map[string]any)["id"].(float64))

	status, body = call(t, app, http.MethodGet, "/api/tickets/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["overdue"])
	assert.Equal(t, true, data["urgent"])
	assert.Equal(t, false, data["assigned"])
	assert.Equal(t, []any{"close"}, data["actions"])

	status, body = call(t, app, http.MethodGet, "/api/tickets/statistics/local?size=50", nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["data"].(map[string]any)
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["overdue"])

	status, _ = call(t, app, http.MethodPost, "/api/tickets/"+itoa(id)+"/close", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = call(t, app, http.MethodPost, "/api/tickets/"+itoa(id)+"/close", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}

func TestUnknownTicketIsNotFound(t *testing.T) {
	app, _ := newApp(t)

	status, body := call(t, app, http.MethodGet, "/api/tickets/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	status, _ = call(t, app, http.MethodGet, "/api/tickets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInvalidFilterRejected(t *testing.T) {
	app, _ := newApp(t)

	status, body := call(t, app, http.MethodGet, "/api/tickets?status=PENDING", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestOpenBreakerAnswersRetryAfter(t *testing.T) {
	app, backend := newApp(t)
	backend.Fail("GET /api/tickets/statistics", http.StatusInternalServerError, 10)

	var resp *http.Response
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/tickets/statistics", nil)
		var err error
		resp, err = app.Test(req, 5000)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusServiceUnavailable {
			break
		}
	}
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	assert.LessOrEqual(t, backend.Calls("GET /api/tickets/statistics"), 5)
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	app, _ := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/999", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.Equal(t, resp.Header.Get("X-Request-ID"), body.Error.RequestID)
	assert.Empty(t, resp.Header.Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newApp(t)
	call(t, app, http.MethodGet, "/api/clients", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "dashboard_cache_lookups_total")
	assert.Contains(t, string(raw), "dashboard_http_requests_total")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
