package retry

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	ai "github.com/spetersoncode/abapforge"
)

// IsTransient reports whether err is worth retrying. Provider errors use
// their own classification; everything else falls back to network
// heuristics.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}

	if errors.Is(err, ai.ErrNotFound) {
		return false
	}

	return isTransientNetworkError(err)
}

// retryAfterFromError extracts a server-suggested delay, if any.
func retryAfterFromError(err error) time.Duration {
	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter()
	}
	return 0
}

// isTransientNetworkError checks for network-level transient errors.
func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	// Fallback for drivers and brokers that only expose messages.
	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset",
		"connection refused",
		"timeout",
		"temporary failure",
		"service unavailable",
		"database is locked",
		"no responders",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
