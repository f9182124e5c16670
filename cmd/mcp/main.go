// Command mcp serves the generate_abap tool over MCP stdio.
//
// It reads the same environment variables as cmd/serve. Credentials are
// looked up for a single local user, ABAPFORGE_MCP_USER (default: local),
// and can be managed through the HTTP server sharing the same database.
//
// Usage:
//
//	go run ./cmd/mcp
//
// Configuration for an MCP client:
//
//	{
//	    "mcpServers": {
//	        "abapforge": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/abapforge"
//	        }
//	    }
//	}
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spetersoncode/abapforge/internal/app"
	"github.com/spetersoncode/abapforge/mcp"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr.
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	serveErr := mcp.ServeStdio(a.Orchestrator,
		mcp.WithName("abapforge"),
		mcp.WithVersion("1.0.0"),
		mcp.WithUserID(cfg.MCPUser),
		mcp.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		logger.Error("close failed", "error", err)
	}
	if serveErr != nil {
		logger.Error("mcp server error", "error", serveErr)
		os.Exit(1)
	}
}
