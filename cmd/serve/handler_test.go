package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/orchestrator"
	"github.com/spetersoncode/abapforge/store"
	"github.com/spetersoncode/abapforge/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorFunc func(ctx context.Context, req orchestrator.Request) ai.Result

func (f generatorFunc) Generate(ctx context.Context, req orchestrator.Request) ai.Result {
	return f(ctx, req)
}

func newTestServer(t *testing.T, gen Generator) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(gen, mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(h.Routes(prometheus.NewRegistry(), "*"))
	t.Cleanup(srv.Close)
	return srv, mem
}

func do(t *testing.T, method, url, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGenerate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got orchestrator.Request
		srv, _ := newTestServer(t, generatorFunc(func(_ context.Context, req orchestrator.Request) ai.Result {
			got = req
			return ai.Result{Success: true, Code: "REPORT zvendas.", Provider: ai.ProviderGroq, Model: "llama-3.3-70b-versatile", TokensUsed: 60, EstimatedCostCents: 1}
		}))

		resp := do(t, http.MethodPost, srv.URL+"/api/generate", "u1",
			`{"kind":"program","description":"relatório de vendas","provider":"groq"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

		var res ai.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.True(t, res.Success)
		assert.Equal(t, "REPORT zvendas.", res.Code)
		assert.Equal(t, 1, res.EstimatedCostCents)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, ai.KindProgram, got.Intent.Kind)
		assert.Equal(t, ai.ProviderGroq, got.Preference)
	})

	t.Run("status mapping", func(t *testing.T) {
		tests := []struct {
			reason ai.Reason
			status int
		}{
			{ai.ReasonGuardRejected, http.StatusForbidden},
			{ai.ReasonGuardUnavailable, http.StatusForbidden},
			{ai.ReasonInvalidRequest, http.StatusBadRequest},
			{ai.ReasonNoProvider, http.StatusBadRequest},
			{ai.ReasonProviderFailure, http.StatusBadGateway},
			{ai.ReasonInternal, http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(string(tt.reason), func(t *testing.T) {
				srv, _ := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
					return ai.Failure(tt.reason, "falhou")
				}))
				resp := do(t, http.MethodPost, srv.URL+"/api/generate", "u1", `{"kind":"chat","description":"oi"}`)
				assert.Equal(t, tt.status, resp.StatusCode)

				var res ai.Result
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
				assert.False(t, res.Success)
				assert.Equal(t, tt.reason, res.Reason)
				assert.Equal(t, "falhou", res.Error)
			})
		}
	})

	t.Run("rejects bad input before generating", func(t *testing.T) {
		calls := 0
		srv, _ := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
			calls++
			return ai.Result{Success: true}
		}))

		resp := do(t, http.MethodPost, srv.URL+"/api/generate", "u1", `{"kind":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = do(t, http.MethodPost, srv.URL+"/api/generate", "u1", `{"kind":"chat","description":"oi","apiKey":"x"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = do(t, http.MethodPost, srv.URL+"/api/generate", "", `{"kind":"chat","description":"oi"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = do(t, http.MethodGet, srv.URL+"/api/generate", "u1", "")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

		assert.Zero(t, calls)
	})

	t.Run("preflight", func(t *testing.T) {
		srv, _ := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
			return ai.Result{}
		}))
		resp := do(t, http.MethodOptions, srv.URL+"/api/generate", "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), userHeader)
	})
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
		return ai.Result{}
	}))

	for _, path := range []string{"/api/credentials", "/api/credentials/groq", "/api/usage"} {
		t.Run(path, func(t *testing.T) {
			resp := do(t, http.MethodOptions, srv.URL+path, "", "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
			methods := resp.Header.Get("Access-Control-Allow-Methods")
			for _, m := range []string{"GET", "PUT", "DELETE"} {
				assert.Contains(t, methods, m)
			}
		})
	}

	resp := do(t, http.MethodPut, srv.URL+"/api/credentials/groq", "u1", `{"apiKey":"k","enabled":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = do(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCredentials(t *testing.T) {
	srv, mem := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
		return ai.Result{}
	}))
	ctx := context.Background()

	resp := do(t, http.MethodPut, srv.URL+"/api/credentials/groq", "u1", `{"apiKey":" gsk-123 ","enabled":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cred, err := mem.ProviderCredential(ctx, "u1", ai.ProviderGroq)
	require.NoError(t, err)
	assert.Equal(t, "gsk-123", cred.APIKey)
	assert.True(t, cred.Enabled)

	resp = do(t, http.MethodPut, srv.URL+"/api/credentials/mistral", "u1", `{"apiKey":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/credentials", "u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"provider":"groq","enabled":true,"hasKey":true}]`, string(body))
	assert.NotContains(t, string(body), "gsk-123")

	resp = do(t, http.MethodDelete, srv.URL+"/api/credentials/groq", "u1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodDelete, srv.URL+"/api/credentials/groq", "u1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsage(t *testing.T) {
	srv, mem := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
		return ai.Result{}
	}))
	ctx := context.Background()

	resp := do(t, http.MethodGet, srv.URL+"/api/usage", "u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tokensUsed":0,"estimatedCost":0,"records":[]}`, string(body))

	require.NoError(t, mem.RecordUsage(ctx, usage.Record{ID: "r1", UserID: "u1", Provider: ai.ProviderGroq, TokensUsed: 60, CostCents: 1}))
	require.NoError(t, mem.RecordUsage(ctx, usage.Record{ID: "r2", UserID: "u1", Provider: ai.ProviderOpenAI, TokensUsed: 40, CostCents: 5}))

	resp = do(t, http.MethodGet, srv.URL+"/api/usage", "u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		TokensUsed int            `json:"tokensUsed"`
		CostCents  int            `json:"estimatedCost"`
		Records    []usage.Record `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, 100, view.TokensUsed)
	assert.Equal(t, 6, view.CostCents)
	assert.Len(t, view.Records, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, generatorFunc(func(context.Context, orchestrator.Request) ai.Result {
		return ai.Result{}
	}))

	resp := do(t, http.MethodGet, srv.URL+"/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
