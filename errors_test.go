package abapforge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	t.Run("Error includes provider, kind and cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewProviderError(ProviderGroq, KindUpstreamFailure, "request failed", 0, cause)
		assert.Equal(t, "groq upstream_failure: request failed: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Error omits a cause equal to the message", func(t *testing.T) {
		err := NewProviderError("", KindAuth, "bad key", 0, errors.New("bad key"))
		assert.Equal(t, "auth_error: bad key", err.Error())
	})

	t.Run("Retryable", func(t *testing.T) {
		tests := []struct {
			kind ErrorKind
			want bool
		}{
			{KindAuth, false},
			{KindInvalidRequest, false},
			{KindRateLimited, true},
			{KindUpstreamFailure, true},
			{KindTimeout, true},
		}
		for _, tt := range tests {
			t.Run(string(tt.kind), func(t *testing.T) {
				err := NewProviderError(ProviderOpenAI, tt.kind, "x", 0, nil)
				assert.Equal(t, tt.want, err.Retryable())
				assert.Equal(t, tt.want, IsRetryable(fmt.Errorf("wrapped: %w", err)))
			})
		}
	})

	t.Run("KindOf unwraps", func(t *testing.T) {
		err := fmt.Errorf("attempt 1: %w", NewProviderError(ProviderArcee, KindRateLimited, "slow down", 429, nil))
		assert.Equal(t, KindRateLimited, KindOf(err))
		assert.Empty(t, KindOf(errors.New("plain")))
		assert.False(t, IsRetryable(errors.New("plain")))
	})
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusBadRequest, KindInvalidRequest},
		{http.StatusNotFound, KindInvalidRequest},
		{http.StatusUnprocessableEntity, KindInvalidRequest},
		{http.StatusInternalServerError, KindUpstreamFailure},
		{http.StatusServiceUnavailable, KindUpstreamFailure},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.code))
		})
	}
}

func TestStatusError(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}

	err := StatusError(ProviderGroq, http.StatusTooManyRequests, resp, nil)
	assert.Equal(t, KindRateLimited, err.Kind)
	assert.Equal(t, http.StatusTooManyRequests, err.StatusCode())
	assert.Equal(t, 7*time.Second, err.RetryAfter())

	err = StatusError(ProviderGroq, http.StatusBadGateway, resp, nil)
	assert.Equal(t, KindUpstreamFailure, err.Kind)
	assert.Zero(t, err.RetryAfter())
}

func TestTransportError(t *testing.T) {
	t.Run("deadline is a timeout", func(t *testing.T) {
		err := TransportError(ProviderAnthropic, fmt.Errorf("post: %w", context.DeadlineExceeded))
		assert.Equal(t, KindTimeout, err.Kind)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("cancellation is a timeout", func(t *testing.T) {
		assert.Equal(t, KindTimeout, TransportError(ProviderGoogle, context.Canceled).Kind)
	})

	t.Run("other errors are upstream failures", func(t *testing.T) {
		assert.Equal(t, KindUpstreamFailure, TransportError(ProviderGoogle, errors.New("eof")).Kind)
	})

	t.Run("provider errors pass through", func(t *testing.T) {
		orig := NewProviderError(ProviderOpenAI, KindAuth, "bad key", 401, nil)
		assert.Same(t, orig, TransportError(ProviderGroq, fmt.Errorf("wrapped: %w", orig)))
	})
}

func TestMalformedResponse(t *testing.T) {
	err := MalformedResponse(ProviderArcee, "empty content")
	assert.Equal(t, KindUpstreamFailure, err.Kind)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Zero(t, ParseRetryAfter(nil))
	assert.Zero(t, ParseRetryAfter(&http.Response{Header: http.Header{}}))
	assert.Zero(t, ParseRetryAfter(&http.Response{Header: http.Header{"Retry-After": []string{"soon"}}}))
	assert.Equal(t, 3*time.Second, ParseRetryAfter(&http.Response{Header: http.Header{"Retry-After": []string{"3"}}}))

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := ParseRetryAfter(&http.Response{Header: http.Header{"Retry-After": []string{future}}})
	require.Positive(t, d)
	assert.LessOrEqual(t, d, time.Minute)
}
