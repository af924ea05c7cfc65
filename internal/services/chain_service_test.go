package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCNode serves JSON-RPC over HTTP. reply returns either a result or an
// error object for each method call.
func newRPCNode(t *testing.T, reply func(method string) (result any, rpcErr map[string]any)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		calls.Add(1)

		response := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		result, rpcErr := reply(req.Method)
		if rpcErr != nil {
			response["error"] = rpcErr
		} else {
			response["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestChainService(t *testing.T, url string) *chainService {
	t.Helper()
	client, err := rpc.DialContext(context.Background(), url)
	require.NoError(t, err)
	chain := NewChainServiceFromClient(client, logging.Discard()).(*chainService)
	chain.pollInterval = 10 * time.Millisecond
	t.Cleanup(chain.Close)
	return chain
}

func failingNode(string) (any, map[string]any) {
	return nil, map[string]any{"code": -32000, "message": "node exploded"}
}

func TestWaitForReceiptReturnsNodeErrors(t *testing.T) {
	node, calls := newRPCNode(t, failingNode)
	chain := newTestChainService(t, node.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	_, err := chain.WaitForReceipt(ctx, crypto.Keccak256Hash([]byte("pending")))

	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "node exploded")
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(started), time.Second)
}

func TestWaitForReceiptPollsUntilDeadline(t *testing.T) {
	node, calls := newRPCNode(t, func(string) (any, map[string]any) {
		return nil, nil
	})
	chain := newTestChainService(t, node.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := chain.WaitForReceipt(ctx, crypto.Keccak256Hash([]byte("pending")))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, calls.Load(), int32(1))
}

func TestGatewayWaitForReceiptSurfacesAdapterError(t *testing.T) {
	node, _ := newRPCNode(t, failingNode)
	chain := newTestChainService(t, node.URL)
	gateway := NewGatewayService(&config.Settings{GasLimit: 3_000_000}, chain, NewContractService(chain, ""), nil, nil, nil)

	_, err := gateway.WaitForReceipt(context.Background(), crypto.Keccak256Hash([]byte("pending")).Hex(), 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAdapter)
	assert.NotErrorIs(t, err, apperr.ErrTimeout)
}

func TestGetTransactionReceiptNotFound(t *testing.T) {
	node, _ := newRPCNode(t, func(string) (any, map[string]any) {
		return nil, nil
	})
	chain := newTestChainService(t, node.URL)

	_, err := chain.GetTransactionReceipt(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = chain.GetTransaction(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ErrNotFound)
}
