package abapforge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrEmptyInput is returned when a required input slice is empty.
	ErrEmptyInput = errors.New("empty input")

	// ErrMalformedResponse is returned when a provider replies outside the
	// expected schema, e.g. without any content.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNotFound is returned by a CredentialStore when no credential exists.
	ErrNotFound = errors.New("not found")

	// ErrGuardUnavailable means the guard's designated provider is not
	// configured or enabled.
	ErrGuardUnavailable = errors.New("guard unavailable")

	// ErrGuardRejected means the guard did not approve the request.
	ErrGuardRejected = errors.New("guard rejected request")

	// ErrNoProviderConfigured means the registry resolved no candidates.
	ErrNoProviderConfigured = errors.New("no provider configured")
)

// ErrorKind classifies provider failures independent of the vendor.
type ErrorKind string

const (
	// KindAuth indicates invalid or missing credentials (HTTP 401/403).
	KindAuth ErrorKind = "auth_error"

	// KindRateLimited indicates the vendor throttled the request (HTTP 429).
	KindRateLimited ErrorKind = "rate_limited"

	// KindInvalidRequest indicates the request itself was rejected
	// (HTTP 400/404/422 or local validation).
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindUpstreamFailure indicates a vendor-side failure or a malformed reply.
	KindUpstreamFailure ErrorKind = "upstream_failure"

	// KindTimeout indicates the call exceeded its deadline.
	KindTimeout ErrorKind = "timeout"
)

// ProviderError is the single failure type returned by ChatProvider
// implementations. The orchestrator never inspects vendor-specific shapes.
type ProviderError struct {
	Provider   Provider
	Kind       ErrorKind
	Msg        string
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(p Provider, kind ErrorKind, msg string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider: p,
		Kind:     kind,
		Msg:      msg,
		Code:     statusCode,
		Cause:    cause,
	}
}

// Error returns the error message.
func (e *ProviderError) Error() string {
	prefix := string(e.Kind)
	if e.Provider != "" {
		prefix = fmt.Sprintf("%s %s", e.Provider, e.Kind)
	}
	if e.Cause != nil && e.Msg != e.Cause.Error() {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *ProviderError) StatusCode() int {
	return e.Code
}

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *ProviderError) RetryAfter() time.Duration {
	return e.RetryDelay
}

// Retryable reports whether the same request could succeed later.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindUpstreamFailure, KindTimeout:
		return true
	}
	return false
}

// KindOf returns the ErrorKind of err, or "" if err is not a ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether err is a retryable ProviderError.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// KindForStatus maps an HTTP status code onto the ErrorKind taxonomy.
func KindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code == http.StatusBadRequest || code == http.StatusNotFound ||
		code == http.StatusConflict || code == http.StatusRequestEntityTooLarge ||
		code == http.StatusUnprocessableEntity:
		return KindInvalidRequest
	default:
		return KindUpstreamFailure
	}
}

// StatusError builds a ProviderError from an HTTP status code returned by
// a vendor SDK. resp may be nil.
func StatusError(p Provider, code int, resp *http.Response, cause error) *ProviderError {
	e := NewProviderError(p, KindForStatus(code), fmt.Sprintf("status %d", code), code, cause)
	if e.Kind == KindRateLimited {
		e.RetryDelay = ParseRetryAfter(resp)
	}
	return e
}

// TransportError classifies an error that carries no HTTP status: context
// deadlines and network timeouts become KindTimeout, everything else is an
// upstream failure. Existing ProviderErrors are returned unchanged.
func TransportError(p Provider, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(p, KindTimeout, "deadline exceeded", 0, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewProviderError(p, KindTimeout, "network timeout", 0, err)
	}
	if errors.Is(err, context.Canceled) {
		return NewProviderError(p, KindTimeout, "request canceled", 0, err)
	}
	return NewProviderError(p, KindUpstreamFailure, "request failed", 0, err)
}

// MalformedResponse reports a provider reply outside the expected schema.
func MalformedResponse(p Provider, detail string) *ProviderError {
	return NewProviderError(p, KindUpstreamFailure, detail, 0, ErrMalformedResponse)
}

// ParseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return 0
}
