package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/web3-gateway/internal/api"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/server"
)

const (
	// Local anvil node
	TESTNET_RPC        = "http://localhost:8545"
	TESTNET_NETWORK_ID = 31337

	// First anvil development account
	TESTING_PK_1      = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	TESTING_ADDRESS_1 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// TestSetup holds a gateway wired to the local node and serving HTTP on a free port.
type TestSetup struct {
	Services   *server.Services
	APIServer  *api.APIServer
	ServerPort int
	EthClient  *ethclient.Client
	t          *testing.T
}

// SkipWithoutAnvil skips the test unless anvil answers on TESTNET_RPC.
func SkipWithoutAnvil(t *testing.T) {
	t.Helper()
	client, err := ethclient.Dial(TESTNET_RPC)
	if err != nil {
		t.Skipf("Skipping integration test: anvil not running on %s", TESTNET_RPC)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	networkID, err := client.NetworkID(ctx)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to network: %v", err)
	}
	if networkID.Cmp(big.NewInt(TESTNET_NETWORK_ID)) != 0 {
		t.Skipf("Skipping integration test: wrong network ID (got %s, expected %d)", networkID, TESTNET_NETWORK_ID)
	}
}

// NewTestSetup builds the gateway from environment-style settings.
func NewTestSetup(t *testing.T) *TestSetup {
	env := map[string]string{
		"WEB3_PROVIDER_URL":         TESTNET_RPC,
		"NETWORK_ID":                fmt.Sprint(TESTNET_NETWORK_ID),
		"NETWORK_NAME":              "anvil",
		"PRIVATE_KEY":               TESTING_PK_1,
		"WALLET_ADDRESS":            TESTING_ADDRESS_1,
		"HOST":                      "127.0.0.1",
		"GAS_PRICE_GWEI":            "1",
		"DEFAULT_CONTRACT_ABI_PATH": t.TempDir(),
	}
	settings, err := config.LoadFrom(func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})
	require.NoError(t, err)
	require.NoError(t, logging.Init("warn", "", io.Discard))

	svcs, err := server.InitializeServices(context.Background(), settings)
	require.NoError(t, err)

	apiServer := api.NewAPIServer(settings, svcs.Gateway, svcs.Metrics, logging.WithComponent("api"))
	apiServer.SetupRoutes()
	port, err := apiServer.Start(nil)
	require.NoError(t, err)

	ethClient, err := ethclient.Dial(TESTNET_RPC)
	require.NoError(t, err)

	return &TestSetup{
		Services:   svcs,
		APIServer:  apiServer,
		ServerPort: port,
		EthClient:  ethClient,
		t:          t,
	}
}

// MakeAPIRequest sends a request to the running gateway and decodes the JSON envelope.
func (s *TestSetup) MakeAPIRequest(method, path, body string) (int, map[string]any) {
	s.t.Helper()
	url := fmt.Sprintf("http://127.0.0.1:%d%s", s.ServerPort, path)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(s.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var payload map[string]any
	require.NoError(s.t, decoder.Decode(&payload))
	return resp.StatusCode, payload
}

// Cleanup shuts down the server and releases the node connections.
func (s *TestSetup) Cleanup() {
	if s.APIServer != nil {
		s.APIServer.Shutdown()
	}
	if s.Services != nil {
		s.Services.Close()
	}
	if s.EthClient != nil {
		s.EthClient.Close()
	}
}
