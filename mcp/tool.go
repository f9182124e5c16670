// Package mcp exposes ABAP generation as an MCP (Model Context Protocol)
// tool so MCP clients can request code, specifications or chat replies.
//
// The server registers a single tool, generate_abap, whose arguments mirror
// the HTTP request body:
//
//	s := mcp.NewServer(orch, mcp.WithUserID("local"))
//	if err := server.ServeStdio(s); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/orchestrator"
)

// ToolName is the name of the generation tool.
const ToolName = "generate_abap"

const toolDescription = "Generate ABAP code (module or program), a technical specification, or a chat reply about ABAP. " +
	"Requests are screened for ABAP/SAP relevance before any generation."

var generateSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "kind": {
      "type": "string",
      "enum": ["module", "program", "specification", "chat"],
      "description": "What to generate"
    },
    "description": {
      "type": "string",
      "description": "What the code, specification or reply should cover"
    },
    "subType": {
      "type": "string",
      "description": "Module or program type, e.g. function module or report"
    },
    "additionalContext": {
      "type": "string",
      "description": "Extra context for the generation"
    },
    "preferences": {
      "type": "object",
      "properties": {
        "modernSyntax": {"type": "boolean"},
        "comments": {"type": "boolean"},
        "errorHandling": {"type": "boolean"},
        "namingConventions": {"type": "boolean"},
        "unitTests": {"type": "boolean"},
        "performance": {"type": "boolean"}
      }
    },
    "history": {
      "type": "array",
      "description": "Prior chat turns, oldest first",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string", "enum": ["user", "assistant"]},
          "content": {"type": "string"}
        },
        "required": ["role", "content"]
      }
    },
    "provider": {
      "type": "string",
      "enum": ["groq", "arcee", "openai", "anthropic", "google"],
      "description": "Preferred provider"
    },
    "temperature": {"type": "number", "minimum": 0, "maximum": 2},
    "maxTokens": {"type": "integer", "minimum": 0}
  },
  "required": ["kind", "description"]
}`)

// GenerateTool returns the MCP definition of the generation tool.
func GenerateTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(ToolName, toolDescription, generateSchema)
}

// ParseArguments decodes tool call arguments into an orchestrator input.
func ParseArguments(args any) (orchestrator.Input, error) {
	var in orchestrator.Input
	if args == nil {
		return in, fmt.Errorf("arguments are required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return in, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("invalid arguments: %w", err)
	}
	return in, nil
}

// ToCallToolResult converts a generation result into a tool result. Failures
// become tool errors carrying the user-facing message.
func ToCallToolResult(res ai.Result) *mcp.CallToolResult {
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "generation failed"
		}
		return mcp.NewToolResultError(msg)
	}

	var b strings.Builder
	b.WriteString(res.Output())
	if res.Provider != "" {
		fmt.Fprintf(&b, "\n\n[%s/%s, %d tokens, ~%d cents]", res.Provider, res.Model, res.TokensUsed, res.EstimatedCostCents)
	}
	return mcp.NewToolResultText(b.String())
}
