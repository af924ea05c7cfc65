package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type listTransactionsTool struct {
	gateway services.GatewayService
}

func NewListTransactionsTool(gateway services.GatewayService) *listTransactionsTool {
	return &listTransactionsTool{gateway: gateway}
}

func (t *listTransactionsTool) GetTool() mcp.Tool {
	return mcp.NewTool("list_transactions",
		mcp.WithDescription("List transactions this gateway has sent, newest first, with their last observed status"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries. Optional, defaults to 50, at most 500."),
		),
	)
}

func (t *listTransactionsTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		txs, err := t.gateway.ListTransactions(request.GetInt("limit", 0))
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success":      true,
			"transactions": txs,
			"count":        len(txs),
		})
	}
}
