package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// textResult returns payload as indented JSON in a single text block.
func textResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func bindArguments(request mcp.CallToolRequest, v any) error {
	if err := request.BindArguments(v); err != nil {
		return fmt.Errorf("failed to bind arguments: %w", err)
	}
	return nil
}

// contractOptions are the parameters shared by every tool that resolves a contract.
func contractOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("contract_address",
			mcp.Required(),
			mcp.Description("Contract address (0x-prefixed, 20 bytes)"),
		),
		mcp.WithString("abi_path",
			mcp.Description("Path to an ABI JSON file. Relative paths are also tried under DEFAULT_CONTRACT_ABI_PATH. Optional."),
		),
		mcp.WithString("abi",
			mcp.Description("Inline ABI as a JSON string (an ABI array or a compiler artifact with an \"abi\" field). Takes precedence over abi_path. Optional."),
		),
	}
}

func functionOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("function_name",
			mcp.Required(),
			mcp.Description("Name of the function in the contract's ABI"),
		),
		mcp.WithArray("function_args",
			mcp.Description("Function arguments in ABI order. Pass large integers as decimal strings to keep them exact. Optional."),
			mcp.Items(map[string]any{
				"description": "Argument value: string, number, boolean, array or object for tuples",
			}),
		),
	}
}
