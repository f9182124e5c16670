package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/orchestrator"
)

// DefaultUserID is the credential owner used when none is configured.
const DefaultUserID = "local"

// Generator runs a generation request.
type Generator interface {
	Generate(ctx context.Context, req orchestrator.Request) ai.Result
}

// GeneratorFunc is a function that implements Generator.
type GeneratorFunc func(ctx context.Context, req orchestrator.Request) ai.Result

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req orchestrator.Request) ai.Result {
	return f(ctx, req)
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	userID  string
	logger  *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithUserID sets whose credentials the tool generates with. A stdio
// server has one local user.
func WithUserID(id string) ServerOption {
	return func(c *serverConfig) {
		c.userID = id
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = l
	}
}

// NewServer creates an MCP server exposing the generate_abap tool backed by
// gen.
func NewServer(gen Generator, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "abapforge",
		version: "1.0.0",
		userID:  DefaultUserID,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)
	s.AddTool(GenerateTool(), generateHandler(gen, cfg))
	return s
}

func generateHandler(gen Generator, cfg *serverConfig) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in, err := ParseArguments(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := gen.Generate(ctx, in.Request(cfg.userID))
		cfg.logger.InfoContext(ctx, "tool call finished",
			"tool", ToolName,
			"kind", in.Kind,
			"success", res.Success,
			"reason", res.Reason)
		return ToCallToolResult(res), nil
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(gen Generator, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(gen, opts...))
}
