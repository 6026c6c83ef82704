package runtime

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/agentcore/runtime/pkg/mcp"
	"github.com/agentcore/runtime/pkg/schema"
)

// mcpAdapterConfig holds the optional knobs ToolsFromMCP accepts.
type mcpAdapterConfig struct {
	limiter *rate.Limiter
}

// MCPAdapterOption configures ToolsFromMCP.
type MCPAdapterOption func(*mcpAdapterConfig)

// WithRateLimit throttles outbound CallTool invocations to requestsPerSecond
// with the given burst, grounded on the teacher's
// examples/middleware/rate-limiting's token-bucket-over-golang.org/x/time/rate
// pattern. An MCP server is an external collaborator the runtime does not
// control; without a limiter a parallel tool-call turn (spec §4.6) can fire
// arbitrarily many concurrent requests at it.
func WithRateLimit(requestsPerSecond float64, burst int) MCPAdapterOption {
	return func(c *mcpAdapterConfig) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// ToolsFromMCP lists client's tools and converts each into a runtime.Tool,
// grounded on mcp.MCPToolConverter's schema/execute mapping but returning
// this package's Tool rather than the provider-level types.Tool, so MCP
// tools can sit directly in an Agent.Tools slice alongside local ones.
func ToolsFromMCP(ctx context.Context, client *mcp.MCPClient, opts ...MCPAdapterOption) ([]Tool, error) {
	cfg := &mcpAdapterConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	mcpTools, err := client.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("runtime: list MCP tools: %w", err)
	}

	tools := make([]Tool, len(mcpTools))
	for i, mcpTool := range mcpTools {
		tools[i] = mcpToolToTool(client, mcpTool, cfg.limiter)
	}
	return tools, nil
}

func mcpToolToTool(client *mcp.MCPClient, mcpTool mcp.MCPTool, limiter *rate.Limiter) Tool {
	var inputSchema schema.Schema
	if len(mcpTool.InputSchema) > 0 {
		inputSchema = schema.NewSimpleJSONSchema(mcpTool.InputSchema)
	}

	return Tool{
		Name:        mcpTool.Name,
		Description: mcpTool.Description,
		InputSchema: inputSchema,
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("mcp tool %q: rate limit wait: %w", mcpTool.Name, err)
				}
			}
			result, err := client.CallTool(ctx, mcpTool.Name, args)
			if err != nil {
				return nil, fmt.Errorf("mcp tool %q failed: %w", mcpTool.Name, err)
			}
			if result.IsError {
				return nil, fmt.Errorf("mcp tool %q returned an error result: %v", mcpTool.Name, result.Content)
			}
			contentParts, err := mcp.ConvertMCPContentToAISDK(result.Content)
			if err != nil {
				return nil, fmt.Errorf("mcp tool %q: convert content: %w", mcpTool.Name, err)
			}
			return contentParts, nil
		},
	}
}
