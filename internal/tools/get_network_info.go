package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type getNetworkInfoTool struct {
	gateway services.GatewayService
}

func NewGetNetworkInfoTool(gateway services.GatewayService) *getNetworkInfoTool {
	return &getNetworkInfoTool{gateway: gateway}
}

func (t *getNetworkInfoTool) GetTool() mcp.Tool {
	return mcp.NewTool("get_network_info",
		mcp.WithDescription("Report the connected network: chain id, name, latest block, gas price in wei and whether it is a testnet"),
	)
}

func (t *getNetworkInfoTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(map[string]any{
			"status":  "healthy",
			"message": "Web3 gateway is running",
			"network": t.gateway.NetworkInfo(ctx),
		})
	}
}
