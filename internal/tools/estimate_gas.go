package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type estimateGasTool struct {
	gateway services.GatewayService
}

func NewEstimateGasTool(gateway services.GatewayService) *estimateGasTool {
	return &estimateGasTool{gateway: gateway}
}

func (t *estimateGasTool) GetTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Estimate the gas a contract function call would use when sent from the configured account"),
	}
	opts = append(opts, contractOptions()...)
	opts = append(opts, functionOptions()...)
	opts = append(opts, valueOption())
	return mcp.NewTool("estimate_gas", opts...)
}

func (t *estimateGasTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args services.SendTransactionArgs
		if err := bindArguments(request, &args); err != nil {
			return nil, err
		}

		gas, err := t.gateway.EstimateGas(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}

		return textResult(map[string]any{
			"success":          true,
			"gas_estimate":     gas,
			"contract_address": args.ContractAddress,
			"function_name":    args.FunctionName,
		})
	}
}
