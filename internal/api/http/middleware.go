package http

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-dashboard/internal/observability"
	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

// RegisterMiddlewares attaches request ids, request logging, error rendering
// and the per-request deadline, outermost first.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

// requestTimeoutMiddleware bounds the user context handlers read with.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
				logger.Error("request failed",
					zap.String("code", domainErr.Code),
					zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
					zap.Error(domainErr))
			}
			err = renderError(c, domainErr)
		}()
		return c.Next()
	}
}

// errorEnvelope is the body of every failed dashboard response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"requestId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// renderError writes domainErr as an errorEnvelope. A backend that is
// shedding load (open breaker, rate limit) yields a Retry-After header when
// the error carries a wait hint.
func renderError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	switch domainErr.Code {
	case apperrors.CodeCircuitOpen, apperrors.CodeRateLimited:
		if wait, ok := apperrors.RetryAfter(domainErr); ok {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(wait/time.Second)))
		}
	}
	return c.Status(domainErr.HTTPStatus).JSON(errorEnvelope{Error: errorBody{
		Code:      domainErr.Code,
		Message:   domainErr.Message,
		RequestID: c.GetRespHeader(fiber.HeaderXRequestID),
		Details:   domainErr.Details,
	}})
}
