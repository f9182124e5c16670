package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ai "github.com/spetersoncode/abapforge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const completionJSON = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "llama-3.1-8b-instant",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "APROVADO"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 42, "completion_tokens": 2, "total_tokens": 44}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func conversation() []ai.Message {
	return []ai.Message{
		ai.SystemMessage("classify"),
		ai.UserMessage("1. Tipo: program"),
	}
}

func TestChat_Success(t *testing.T) {
	var got capturedRequest
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	})

	c := NewGroq("test-key", WithBaseURL(srv.URL+"/v1/"))
	resp, err := c.Chat(context.Background(), conversation(),
		ai.WithModel(ai.ModelAuto),
		ai.WithTemperature(0),
		ai.WithMaxTokens(10),
	)

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "APROVADO", resp.Content)
	assert.Equal(t, ai.ProviderGroq, resp.Provider)
	assert.Equal(t, "llama-3.1-8b-instant", resp.Model)
	assert.Equal(t, 44, resp.TokensUsed())

	assert.Equal(t, "llama-3.1-8b-instant", got.Model, "auto resolves to the fast tier for short prompts")
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.0, *got.Temperature)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 10, *got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestChat_ArceeAutoPassesThrough(t *testing.T) {
	var got capturedRequest
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	})

	c := NewArcee("k", WithBaseURL(srv.URL+"/v1/"))
	resp, err := c.Chat(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, "auto", got.Model)
	assert.Equal(t, ai.ProviderArcee, resp.Provider)
}

func TestChat_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ai.ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, ai.KindAuth},
		{"forbidden", http.StatusForbidden, ai.KindAuth},
		{"rate limited", http.StatusTooManyRequests, ai.KindRateLimited},
		{"bad request", http.StatusBadRequest, ai.KindInvalidRequest},
		{"server error", http.StatusInternalServerError, ai.KindUpstreamFailure},
		{"bad gateway", http.StatusBadGateway, ai.KindUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "error"}}`))
			})

			c := NewGroq("k", WithBaseURL(srv.URL+"/v1/"))
			_, err := c.Chat(context.Background(), conversation())

			require.Error(t, err)
			var pe *ai.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.status, pe.StatusCode())
			assert.Equal(t, ai.ProviderGroq, pe.Provider)
			assert.Equal(t, int32(1), calls.Load(), "client must not retry")
			if tt.kind == ai.KindRateLimited {
				assert.Equal(t, 3*time.Second, pe.RetryAfter())
			}
		})
	}
}

func TestChat_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`},
		{"empty content", `{"id": "x", "object": "chat.completion", "model": "m", "choices": [{"index": 0, "message": {"role": "assistant", "content": "  "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			c := New("k", WithBaseURL(srv.URL+"/v1/"))
			_, err := c.Chat(context.Background(), conversation())

			assert.ErrorIs(t, err, ai.ErrMalformedResponse)
			assert.Equal(t, ai.KindUpstreamFailure, ai.KindOf(err))
		})
	}
}

func TestChat_Timeout(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewGroq("k", WithBaseURL(srv.URL+"/v1/"))
	_, err := c.Chat(ctx, conversation())

	assert.Equal(t, ai.KindTimeout, ai.KindOf(err))
}

func TestChat_InvalidConversation(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	c := NewGroq("k", WithBaseURL(srv.URL+"/v1/"))

	t.Run("empty", func(t *testing.T) {
		_, err := c.Chat(context.Background(), nil)
		assert.Equal(t, ai.KindInvalidRequest, ai.KindOf(err))
	})

	t.Run("only system", func(t *testing.T) {
		_, err := c.Chat(context.Background(), []ai.Message{ai.SystemMessage("x")})
		assert.Equal(t, ai.KindInvalidRequest, ai.KindOf(err))
	})

	assert.Equal(t, int32(0), calls.Load())
}

func TestConvertMessages(t *testing.T) {
	msgs := convertMessages([]ai.Message{
		ai.SystemMessage("s"),
		ai.UserMessage(""),
		ai.UserMessage("u"),
		ai.AssistantMessage("a"),
	})
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}
