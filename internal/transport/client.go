// Package transport is the typed façade over the backend's REST contract.
// It knows paths and verbs and nothing about caching; every failure comes
// back as an errorutil.DomainError so callers can classify it.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

// Config controls the backend connection.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// BreakerFailures is the number of consecutive transient failures that
	// opens the circuit; BreakerOpenFor is how long it stays open.
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

// Client performs JSON round trips against the backend.
type Client struct {
	baseURL string
	timeout time.Duration
	openFor time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// breakerDefaultOpen is gobreaker's open period when none is configured.
const breakerDefaultOpen = 60 * time.Second

// NewClient builds a client guarded by a circuit breaker.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("transport")
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = breakerDefaultOpen
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		openFor: openFor,
		logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "backend",
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !apperrors.IsTransient(err)
			},
		}),
	}
}

// BreakerState reports the circuit state (closed, half-open, open).
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Do sends body (if any) as JSON and decodes a successful response into out
// (if non-nil). Status codes >= 400 become DomainErrors carrying the status.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewCircuitOpen(err, c.openFor)
	}
	return err
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return apperrors.NewNetworkError(context.DeadlineExceeded)
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	requestID := uuid.NewString()
	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(target)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderXRequestID, requestID)
	if body != nil {
		agent.JSON(body)
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return apperrors.NewNetworkError(err)
	}

	start := time.Now()
	status, payload, errs := agent.Bytes()
	logger := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		logger.Warn("backend call failed", zap.Error(err))
		return apperrors.NewNetworkError(err)
	}
	logger.Debug("backend call", zap.Int("status", status), zap.Duration("duration", time.Since(start)))

	if status >= fiber.StatusBadRequest {
		var eb errorBody
		_ = json.Unmarshal(payload, &eb)
		message := eb.Message
		if message == "" {
			message = eb.Error
		}
		return apperrors.FromStatus(status, message, map[string]any{"path": path, "method": method})
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}
