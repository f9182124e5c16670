package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/internal/metrics"
	"github.com/spetersoncode/abapforge/orchestrator"
	"github.com/spetersoncode/abapforge/store"
)

// userHeader carries the authenticated user id, set by the gateway in
// front of this server.
const userHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

// Generator runs a generation request.
type Generator interface {
	Generate(ctx context.Context, req orchestrator.Request) ai.Result
}

// Handler serves the generation and credential APIs.
type Handler struct {
	gen    Generator
	store  store.Store
	logger *slog.Logger
}

// NewHandler creates a handler.
func NewHandler(gen Generator, s store.Store, logger *slog.Logger) *Handler {
	return &Handler{gen: gen, store: s, logger: logger}
}

// Routes returns the server mux.
func (h *Handler) Routes(gatherer prometheus.Gatherer, corsOrigin string) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/generate", h.generate)
	api.HandleFunc("GET /api/credentials", h.listCredentials)
	api.HandleFunc("PUT /api/credentials/{provider}", h.putCredential)
	api.HandleFunc("DELETE /api/credentials/{provider}", h.deleteCredential)
	api.HandleFunc("GET /api/usage", h.listUsage)

	mux := http.NewServeMux()
	mux.Handle("/api/", corsMiddleware(corsOrigin, api))
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler(gatherer))
	return mux
}

// generate handles POST /api/generate.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	log := h.logger.With("user_id", userID)

	var in orchestrator.Input
	if err := decodeJSON(w, r, &in); err != nil {
		log.Warn("invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, ai.Failure(ai.ReasonInvalidRequest, "invalid request body: "+err.Error()))
		return
	}

	res := h.gen.Generate(r.Context(), in.Request(userID))
	status := statusFor(res)
	log.Info("request completed",
		"status", status,
		"reason", res.Reason,
		"duration_ms", time.Since(start).Milliseconds())
	writeJSON(w, status, res)
}

// statusFor maps a result onto an HTTP status.
func statusFor(res ai.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Reason {
	case ai.ReasonGuardRejected, ai.ReasonGuardUnavailable:
		return http.StatusForbidden
	case ai.ReasonInvalidRequest, ai.ReasonNoProvider:
		return http.StatusBadRequest
	case ai.ReasonProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type credentialView struct {
	Provider     ai.Provider `json:"provider"`
	Enabled      bool        `json:"enabled"`
	DefaultModel string      `json:"defaultModel,omitempty"`
	HasKey       bool        `json:"hasKey"`
}

type credentialInput struct {
	APIKey       string `json:"apiKey"`
	Enabled      bool   `json:"enabled"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

// listCredentials handles GET /api/credentials. Keys are never returned.
func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	creds, err := h.store.ListCredentials(r.Context(), userID)
	if err != nil {
		h.logger.Error("list credentials failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load credentials")
		return
	}
	views := make([]credentialView, 0, len(creds))
	for _, c := range creds {
		views = append(views, credentialView{
			Provider:     c.Provider,
			Enabled:      c.Enabled,
			DefaultModel: c.DefaultModel,
			HasKey:       strings.TrimSpace(c.APIKey) != "",
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// putCredential handles PUT /api/credentials/{provider}.
func (h *Handler) putCredential(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := ai.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var in credentialInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	cred := ai.Credential{
		UserID:       userID,
		Provider:     p,
		APIKey:       strings.TrimSpace(in.APIKey),
		Enabled:      in.Enabled,
		DefaultModel: strings.TrimSpace(in.DefaultModel),
	}
	if err := h.store.PutCredential(r.Context(), cred); err != nil {
		h.logger.Error("put credential failed", "user_id", userID, "provider", p, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save credential")
		return
	}
	h.logger.Info("credential saved", "user_id", userID, "provider", p, "enabled", cred.Enabled)
	writeJSON(w, http.StatusOK, credentialView{
		Provider:     p,
		Enabled:      cred.Enabled,
		DefaultModel: cred.DefaultModel,
		HasKey:       cred.APIKey != "",
	})
}

// deleteCredential handles DELETE /api/credentials/{provider}.
func (h *Handler) deleteCredential(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := ai.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	err = h.store.DeleteCredential(r.Context(), userID, p)
	switch {
	case errors.Is(err, ai.ErrNotFound):
		writeError(w, http.StatusNotFound, "credential not found")
	case err != nil:
		h.logger.Error("delete credential failed", "user_id", userID, "provider", p, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete credential")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type usageView struct {
	TokensUsed int `json:"tokensUsed"`
	CostCents  int `json:"estimatedCost"`
	Records    any `json:"records"`
}

// listUsage handles GET /api/usage.
func (h *Handler) listUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	records, err := h.store.Usage(r.Context(), userID)
	if err != nil {
		h.logger.Error("list usage failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load usage")
		return
	}
	tokens, cost, err := h.store.UsageTotals(r.Context(), userID)
	if err != nil {
		h.logger.Error("usage totals failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load usage")
		return
	}
	view := usageView{TokensUsed: tokens, CostCents: cost, Records: records}
	if records == nil {
		view.Records = []struct{}{}
	}
	writeJSON(w, http.StatusOK, view)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(userHeader))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, userHeader+" header is required")
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
