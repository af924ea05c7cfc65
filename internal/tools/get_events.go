package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type getEventsTool struct {
	gateway services.GatewayService
}

func NewGetEventsTool(gateway services.GatewayService) *getEventsTool {
	return &getEventsTool{gateway: gateway}
}

func (t *getEventsTool) GetTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Fetch and decode the logs of one contract event over a block range"),
		mcp.WithString("event_name",
			mcp.Required(),
			mcp.Description("Name of the event in the contract's ABI"),
		),
		mcp.WithString("from_block",
			mcp.Description("First block: a number, 0x hex, or latest, earliest, pending, safe, finalized. Optional, defaults to latest."),
		),
		mcp.WithString("to_block",
			mcp.Description("Last block, same forms as from_block. Optional, defaults to latest."),
		),
	}
	opts = append(opts, contractOptions()...)
	return mcp.NewTool("get_events", opts...)
}

func (t *getEventsTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args services.GetEventsArgs
		if err := bindArguments(request, &args); err != nil {
			return nil, err
		}

		events, err := t.gateway.GetEvents(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success": true,
			"events":  events,
			"count":   len(events),
		})
	}
}
