package errorutil

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Error codes shared by the transport, the runners and the dashboard API.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeClient       = "CLIENT_ERROR"
	CodeServer       = "SERVER_ERROR"
	CodeNetwork      = "NETWORK_ERROR"
	CodeCircuitOpen  = "CIRCUIT_OPEN"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewNetworkError wraps a connection failure or timeout from the backend.
func NewNetworkError(err error) error {
	return &DomainError{
		Code:       CodeNetwork,
		Message:    "backend unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// DetailRetryAfter carries, in whole seconds, how long a caller should wait
// before trying again.
const DetailRetryAfter = "retryAfterSeconds"

// NewCircuitOpen reports a call rejected by an open circuit breaker that
// will let calls through again after retryAfter.
func NewCircuitOpen(err error, retryAfter time.Duration) error {
	details := map[string]any{}
	if retryAfter > 0 {
		details[DetailRetryAfter] = int(math.Ceil(retryAfter.Seconds()))
	}
	return &DomainError{
		Code:       CodeCircuitOpen,
		Message:    "backend temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    details,
		Err:        err,
	}
}

// RetryAfter returns the wait hint attached to err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return 0, false
	}
	seconds, ok := domainErr.Details[DetailRetryAfter].(int)
	if !ok || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// FromStatus maps a backend HTTP status to a DomainError. A blank message
// falls back to the status text.
func FromStatus(status int, message string, details map[string]any) error {
	if message == "" {
		message = http.StatusText(status)
	}
	code := CodeServer
	switch {
	case status == http.StatusNotFound:
		code = CodeNotFound
	case status == http.StatusTooManyRequests:
		code = CodeRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = CodeValidation
	case status == http.StatusUnauthorized:
		code = CodeUnauthorized
	case status == http.StatusForbidden:
		code = CodeForbidden
	case status == http.StatusConflict:
		code = CodeConflict
	case status >= 400 && status < 500:
		code = CodeClient
	}
	return NewDomainError(code, message, status, details)
}

// Class groups errors by how callers and the retry policy treat them.
type Class int

const (
	ClassUnknown Class = iota
	ClassNotFound
	ClassClient
	ClassRateLimited
	ClassTransient
	ClassCanceled
)

func (c Class) String() string {
	switch c {
	case ClassNotFound:
		return "not_found"
	case ClassClient:
		return "client"
	case ClassRateLimited:
		return "rate_limited"
	case ClassTransient:
		return "transient"
	case ClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify buckets err into a failure class.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCanceled
	}
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return ClassUnknown
	}
	switch domainErr.Code {
	case CodeNetwork, CodeCircuitOpen:
		return ClassTransient
	case CodeInternal:
		return ClassUnknown
	}
	switch status := domainErr.HTTPStatus; {
	case status == http.StatusNotFound:
		return ClassNotFound
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status >= 400 && status < 500:
		return ClassClient
	case status >= 500:
		return ClassTransient
	}
	return ClassUnknown
}

// IsRetryable reports whether a failed call may be attempted again.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case ClassRateLimited, ClassTransient:
		return true
	default:
		return false
	}
}

// IsTransient reports server-side or connectivity failures, the ones that
// count against the circuit breaker.
func IsTransient(err error) bool {
	return Classify(err) == ClassTransient
}

// IsNotFound reports a missing entity.
func IsNotFound(err error) bool {
	return Classify(err) == ClassNotFound
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Code:       CodeNetwork,
			Message:    "request timed out",
			HTTPStatus: http.StatusGatewayTimeout,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
