// Command serve exposes ABAP generation over HTTP.
//
// Configuration is via environment variables (a .env file is loaded if
// present):
//
//	ABAPFORGE_ADDR             - Listen address (default: :8000)
//	ABAPFORGE_LOG_LEVEL        - debug, info, warn or error (default: info)
//	ABAPFORGE_STORE            - sqlite or memory (default: sqlite)
//	ABAPFORGE_DB_PATH          - SQLite database path (default: abapforge.db)
//	ABAPFORGE_NATS_URL         - Publish usage records to NATS (optional)
//	ABAPFORGE_NATS_FLUSH       - Flush NATS after every usage record (default: false)
//	ABAPFORGE_GUARD_PROVIDER   - Guard provider (default: groq)
//	ABAPFORGE_GUARD_API_KEY    - Platform key for the guard (optional)
//	ABAPFORGE_PROVIDER_ORDER   - Fallback order, e.g. groq,anthropic
//	ABAPFORGE_ATTEMPT_TIMEOUT  - Per-provider deadline (default: 90s)
//	ABAPFORGE_RATES            - Rate overrides in cents, e.g. openai:5,groq:1
//
// Endpoints:
//
//	POST   /api/generate
//	GET    /api/credentials
//	PUT    /api/credentials/{provider}
//	DELETE /api/credentials/{provider}
//	GET    /api/usage
//	GET    /health
//	GET    /metrics
//
// Requests identify the user with the X-User-ID header.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/abapforge/internal/app"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	handler := NewHandler(a.Orchestrator, a.Store, logger)

	// A request may run the guard and then every provider in turn.
	order, _ := cfg.Order()
	writeTimeout := cfg.GuardTimeout + cfg.AttemptTimeout*time.Duration(len(order)) + 10*time.Second

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Routes(a.Gatherer, cfg.CORSOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting",
		"addr", cfg.Addr,
		"store", cfg.Store,
		"guard_provider", cfg.GuardProvider)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		logger.Error("close failed", "error", err)
	}
	logger.Info("server stopped")
}
