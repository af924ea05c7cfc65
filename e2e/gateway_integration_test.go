package e2e

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Second anvil development account, used to create traffic the gateway did not send.
const TESTING_PK_2 = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

const transferEventABI = `[{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"}]`

// TestGatewayIntegration exercises the HTTP surface against a local node.
// This test requires anvil to be running on localhost:8545
func TestGatewayIntegration(t *testing.T) {
	SkipWithoutAnvil(t)

	setup := NewTestSetup(t)
	defer setup.Cleanup()

	t.Run("Health", func(t *testing.T) {
		status, payload := setup.MakeAPIRequest(http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "healthy", payload["status"])

		network, ok := payload["network"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, network["connected"])
		assert.Equal(t, true, network["is_testnet"])
		assert.Equal(t, "anvil", network["network_name"])
	})

	t.Run("Balance", func(t *testing.T) {
		status, payload := setup.MakeAPIRequest(http.MethodGet, "/api/balance/"+TESTING_ADDRESS_1, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, payload["success"])
		assert.Equal(t, "ETH", payload["unit"])
		assert.NotEqual(t, json.Number("0"), payload["balance"])
	})

	t.Run("EventsOnEmptyContract", func(t *testing.T) {
		body := `{"contract_address":"0x5FbDB2315678afecb367f032d93F642f64180aa3","event_name":"Transfer","from_block":0,"to_block":"latest","abi":` + transferEventABI + `}`
		status, payload := setup.MakeAPIRequest(http.MethodPost, "/api/contract/events", body)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []any{}, payload["events"])
	})

	t.Run("TransactionLookupAndWait", func(t *testing.T) {
		txHash := sendTransfer(t, setup)

		status, payload := setup.MakeAPIRequest(http.MethodPost, "/api/transaction/"+txHash.Hex()+"/wait?timeout=30", "")
		require.Equal(t, http.StatusOK, status)
		receipt, ok := payload["receipt"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, txHash.Hex(), receipt["transaction_hash"])

		status, payload = setup.MakeAPIRequest(http.MethodGet, "/api/transaction/"+txHash.Hex(), "")
		require.Equal(t, http.StatusOK, status)
		tx, ok := payload["transaction"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, txHash.Hex(), tx["hash"])
		assert.NotNil(t, tx["receipt"])
	})

	t.Run("UnknownTransaction", func(t *testing.T) {
		unknown := common.HexToHash("0x01").Hex()
		status, payload := setup.MakeAPIRequest(http.MethodGet, "/api/transaction/"+unknown, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, payload["success"])
	})
}

// sendTransfer moves 1 gwei between development accounts outside the gateway.
func sendTransfer(t *testing.T, setup *TestSetup) common.Hash {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := crypto.HexToECDSA(TESTING_PK_2)
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := setup.EthClient.PendingNonceAt(ctx, from)
	require.NoError(t, err)
	gasPrice, err := setup.EthClient.SuggestGasPrice(ctx)
	require.NoError(t, err)

	to := common.HexToAddress(TESTING_ADDRESS_1)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(1_000_000_000),
		Gas:      21_000,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(TESTNET_NETWORK_ID)), key)
	require.NoError(t, err)
	require.NoError(t, setup.EthClient.SendTransaction(ctx, signed))
	return signed.Hash()
}
