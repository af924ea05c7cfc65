package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
	"github.com/rxtech-lab/web3-gateway/internal/utils"
)

type getBalanceTool struct {
	gateway services.GatewayService
}

func NewGetBalanceTool(gateway services.GatewayService) *getBalanceTool {
	return &getBalanceTool{gateway: gateway}
}

func (t *getBalanceTool) GetTool() mcp.Tool {
	return mcp.NewTool("get_balance",
		mcp.WithDescription("Get the ETH balance of an address. The balance is exact, converted from wei."),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Account address (0x-prefixed, 20 bytes)"),
		),
	)
}

func (t *getBalanceTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		address, err := request.RequireString("address")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		balance, err := t.gateway.GetBalance(ctx, address)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success": true,
			"address": address,
			"balance": utils.EtherNumber(balance),
			"unit":    "ETH",
		})
	}
}
