package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ai "github.com/spetersoncode/abapforge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messageJSON = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-haiku-4-5",
	"content": [{"type": "text", "text": "REPORT zdemo."}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 12, "output_tokens": 5}
}`

func TestChat_Success(t *testing.T) {
	var body struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageJSON))
	}))
	defer srv.Close()

	c := New("key", WithBaseURL(srv.URL))
	resp, err := c.Chat(context.Background(), []ai.Message{
		ai.SystemMessage("you write ABAP"),
		ai.UserMessage("a report"),
	})

	require.NoError(t, err)
	assert.Equal(t, "REPORT zdemo.", resp.Content)
	assert.Equal(t, ai.ProviderAnthropic, resp.Provider)
	assert.Equal(t, 17, resp.TokensUsed())

	assert.Equal(t, "claude-haiku-4-5", body.Model)
	assert.Equal(t, DefaultMaxTokens, body.MaxTokens)
	require.Len(t, body.System, 1)
	assert.Equal(t, "you write ABAP", body.System[0].Text)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "user", body.Messages[0].Role)
}

func TestChat_AuthError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer srv.Close()

	c := New("bad", WithBaseURL(srv.URL))
	_, err := c.Chat(context.Background(), []ai.Message{ai.UserMessage("hi")})

	assert.Equal(t, ai.KindAuth, ai.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]ai.Message{
		ai.SystemMessage("a"),
		ai.SystemMessage("b"),
		ai.UserMessage("q"),
		ai.AssistantMessage(""),
		ai.AssistantMessage("r"),
	})

	assert.Len(t, system, 2)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}
