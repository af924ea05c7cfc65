package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type getTransactionTool struct {
	gateway services.GatewayService
}

func NewGetTransactionTool(gateway services.GatewayService) *getTransactionTool {
	return &getTransactionTool{gateway: gateway}
}

func (t *getTransactionTool) GetTool() mcp.Tool {
	return mcp.NewTool("get_transaction",
		mcp.WithDescription("Get a transaction by hash together with its receipt. The receipt is null while the transaction is pending."),
		mcp.WithString("tx_hash",
			mcp.Required(),
			mcp.Description("Transaction hash (0x-prefixed, 32 bytes)"),
		),
	)
}

func (t *getTransactionTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hash, err := request.RequireString("tx_hash")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		details, err := t.gateway.GetTransaction(ctx, hash)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success":     true,
			"transaction": details,
		})
	}
}
