package mcp

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/services"
	"github.com/rxtech-lab/web3-gateway/internal/tools"
)

type MCPServer struct {
	server  *server.MCPServer
	gateway services.GatewayService
}

func NewMCPServer(gateway services.GatewayService, version string) *MCPServer {
	mcpServer := &MCPServer{
		gateway: gateway,
	}
	mcpServer.InitializeTools(version)
	return mcpServer
}

func (s *MCPServer) InitializeTools(version string) {
	srv := server.NewMCPServer(
		"Web3 Gateway MCP Server",
		version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	srv.AddPrompt(mcp.NewPrompt("web3-gateway-usage",
		mcp.WithPromptDescription("Instructions for using the web3 gateway tools"),
		mcp.WithArgument("tool_category",
			mcp.ArgumentDescription("Category of tools to get instructions for (network, contract, transaction, or all)"),
			mcp.RequiredArgument(),
		),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		category := request.Params.Arguments["tool_category"]
		if category == "" {
			return nil, fmt.Errorf("tool_category is required")
		}

		return mcp.NewGetPromptResult(
			fmt.Sprintf("Web3 Gateway Tools - %s", category),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(getToolInstructions(category)),
				),
			},
		), nil
	})

	// Network and account tools
	getNetworkInfoTool := tools.NewGetNetworkInfoTool(s.gateway)
	srv.AddTool(getNetworkInfoTool.GetTool(), getNetworkInfoTool.GetHandler())

	getBalanceTool := tools.NewGetBalanceTool(s.gateway)
	srv.AddTool(getBalanceTool.GetTool(), getBalanceTool.GetHandler())

	// Contract tools
	callFunctionTool := tools.NewCallFunctionTool(s.gateway)
	srv.AddTool(callFunctionTool.GetTool(), callFunctionTool.GetHandler())

	sendTransactionTool := tools.NewSendTransactionTool(s.gateway)
	srv.AddTool(sendTransactionTool.GetTool(), sendTransactionTool.GetHandler())

	estimateGasTool := tools.NewEstimateGasTool(s.gateway)
	srv.AddTool(estimateGasTool.GetTool(), estimateGasTool.GetHandler())

	getEventsTool := tools.NewGetEventsTool(s.gateway)
	srv.AddTool(getEventsTool.GetTool(), getEventsTool.GetHandler())

	// Transaction tools
	getTransactionTool := tools.NewGetTransactionTool(s.gateway)
	srv.AddTool(getTransactionTool.GetTool(), getTransactionTool.GetHandler())

	waitForReceiptTool := tools.NewWaitForReceiptTool(s.gateway)
	srv.AddTool(waitForReceiptTool.GetTool(), waitForReceiptTool.GetHandler())

	listTransactionsTool := tools.NewListTransactionsTool(s.gateway)
	srv.AddTool(listTransactionsTool.GetTool(), listTransactionsTool.GetHandler())

	s.server = srv
}

// StartStdioServer serves MCP over the given streams until ctx is done or
// stdin closes. Protocol errors go to the application log.
func (s *MCPServer) StartStdioServer(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.server)
	stdio.SetErrorLogger(log.New(logging.Writer(), "mcp: ", 0))
	return stdio.Listen(ctx, stdin, stdout)
}

// GetServer returns the underlying MCP server.
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.server
}

func getToolInstructions(category string) string {
	switch category {
	case "network":
		return `Network Tools:
- get_network_info: chain id, network name, latest block, gas price in wei, testnet flag.
- get_balance: exact ETH balance of an address.`

	case "contract":
		return `Contract Tools:
Every contract tool takes contract_address plus either abi (inline JSON) or abi_path (file).
When neither is given the server's DEFAULT_CONTRACT_ABI is used.
- call_function: read-only call. Bytes return as 0x hex, tuples as objects.
- send_transaction: signs with the server's account and broadcasts. Returns the hash.
- estimate_gas: gas estimate for the same call sent from the server's account.
- get_events: decoded logs of one event between from_block and to_block.
Pass large integers as decimal strings.`

	case "transaction":
		return `Transaction Tools:
- get_transaction: transaction fields and its receipt (null while pending).
- wait_for_receipt: blocks until mined or the timeout (seconds, default 120) passes.
- list_transactions: transactions sent by this server, newest first, with status.`

	case "all":
		return getToolInstructions("network") + "\n\n" +
			getToolInstructions("contract") + "\n\n" +
			getToolInstructions("transaction")

	default:
		return `Invalid category. Available categories: network, contract, transaction, all`
	}
}
