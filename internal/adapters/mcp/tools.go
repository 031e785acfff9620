package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

const (
	ServerName    = "facade-estimator"
	ServerVersion = "1.0.0"
)

// NewServer exposes the estimate deriver as MCP tools. Neither tool calls a
// provider, so the server works without credentials.
func NewServer(deriver ports.Deriver) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false))
	h := handlers{deriver: deriver}

	s.AddTool(mcp.NewTool("derive_estimate",
		mcp.WithDescription("Parse facade analysis text into sections and an investment range."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Analysis text with **Section:** markers.")),
		mcp.WithString("surfaceArea", mcp.Description("Declared surface area: a number, a bucket such as 50-100, or unknown.")),
	), h.deriveEstimate)

	s.AddTool(mcp.NewTool("resolve_area",
		mcp.WithDescription("Resolve a declared surface area to the square metres used for pricing."),
		mcp.WithString("surfaceArea", mcp.Required(), mcp.Description("Declared surface area.")),
	), h.resolveArea)

	return s
}

type handlers struct {
	deriver ports.Deriver
}

func (h handlers) deriveEstimate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	est := h.deriver.Derive(text, req.GetString("surfaceArea", ""))
	return jsonResult(est)
}

func (h handlers) resolveArea(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("surfaceArea")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"surfaceArea": raw,
		"areaM2":      h.deriver.ResolveArea(raw),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
