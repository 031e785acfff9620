package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/estimate"
)

func callTool(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("tool call: %v", err)
	}
	if res == nil {
		t.Fatalf("expected result")
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestDeriveEstimateTool(t *testing.T) {
	h := handlers{deriver: estimate.NewDeriver(estimate.DefaultPricing())}

	res := callTool(t, h.deriveEstimate, map[string]any{
		"text":        "**Pricing:** Total: 6.500 - 9.800 EUR",
		"surfaceArea": "50-100",
	})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var got domain.ParsedEstimate
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.InvestmentRange != (domain.InvestmentRange{Min: 6500, Max: 9800}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
	if got.Source != domain.SourceTotalRange {
		t.Fatalf("expected total_range, got %s", got.Source)
	}
}

func TestDeriveEstimateToolRequiresText(t *testing.T) {
	h := handlers{deriver: estimate.NewDeriver(estimate.DefaultPricing())}

	res := callTool(t, h.deriveEstimate, map[string]any{"surfaceArea": "80"})
	if !res.IsError {
		t.Fatalf("expected tool error without text")
	}
}

func TestResolveAreaTool(t *testing.T) {
	h := handlers{deriver: estimate.NewDeriver(estimate.DefaultPricing())}

	res := callTool(t, h.resolveArea, map[string]any{"surfaceArea": "80 m2"})
	var got struct {
		SurfaceArea string  `json:"surfaceArea"`
		AreaM2      float64 `json:"areaM2"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.AreaM2 != 80 || got.SurfaceArea != "80 m2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(estimate.NewDeriver(estimate.DefaultPricing()))
	tools := s.ListTools()
	for _, name := range []string{"derive_estimate", "resolve_area"} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("tool %s not registered", name)
		}
	}
}
