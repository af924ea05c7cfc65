package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type callFunctionTool struct {
	gateway services.GatewayService
}

func NewCallFunctionTool(gateway services.GatewayService) *callFunctionTool {
	return &callFunctionTool{gateway: gateway}
}

func (t *callFunctionTool) GetTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Call a read-only contract function and return its decoded result. Bytes come back as 0x hex, tuples as objects and named outputs as an object keyed by name."),
	}
	opts = append(opts, contractOptions()...)
	opts = append(opts, functionOptions()...)
	return mcp.NewTool("call_function", opts...)
}

func (t *callFunctionTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args services.CallFunctionArgs
		if err := bindArguments(request, &args); err != nil {
			return nil, err
		}

		result, err := t.gateway.CallFunction(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success":          true,
			"result":           result,
			"contract_address": args.ContractAddress,
			"function_name":    args.FunctionName,
		})
	}
}
