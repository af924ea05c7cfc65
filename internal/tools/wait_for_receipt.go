package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type waitForReceiptTool struct {
	gateway services.GatewayService
}

func NewWaitForReceiptTool(gateway services.GatewayService) *waitForReceiptTool {
	return &waitForReceiptTool{gateway: gateway}
}

func (t *waitForReceiptTool) GetTool() mcp.Tool {
	return mcp.NewTool("wait_for_receipt",
		mcp.WithDescription("Wait until a transaction is mined and return its receipt"),
		mcp.WithString("tx_hash",
			mcp.Required(),
			mcp.Description("Transaction hash (0x-prefixed, 32 bytes)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Seconds to wait before giving up. Optional, defaults to 120."),
		),
	)
}

func (t *waitForReceiptTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hash, err := request.RequireString("tx_hash")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		timeout := request.GetInt("timeout", services.DefaultReceiptTimeoutSeconds)

		receipt, err := t.gateway.WaitForReceipt(ctx, hash, timeout)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success": true,
			"receipt": receipt,
		})
	}
}
