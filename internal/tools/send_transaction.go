package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type sendTransactionTool struct {
	gateway services.GatewayService
}

func NewSendTransactionTool(gateway services.GatewayService) *sendTransactionTool {
	return &sendTransactionTool{gateway: gateway}
}

func valueOption() mcp.ToolOption {
	return mcp.WithString("value",
		mcp.Description("ETH to send in wei as a decimal string (e.g. \"1000000000000000000\" for 1 ETH). Optional, defaults to \"0\"."),
	)
}

func (t *sendTransactionTool) GetTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Sign a contract function call with the configured account and broadcast it. Returns the transaction hash without waiting for it to be mined."),
	}
	opts = append(opts, contractOptions()...)
	opts = append(opts, functionOptions()...)
	opts = append(opts, valueOption())
	return mcp.NewTool("send_transaction", opts...)
}

func (t *sendTransactionTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args services.SendTransactionArgs
		if err := bindArguments(request, &args); err != nil {
			return nil, err
		}

		hash, err := t.gateway.SendTransaction(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success":          true,
			"transaction_hash": hash,
			"contract_address": args.ContractAddress,
			"function_name":    args.FunctionName,
		})
	}
}
