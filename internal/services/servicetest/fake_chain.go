// Package servicetest provides an in-memory ChainService for tests.
package servicetest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

// TokenABI is a small ERC-20 style ABI used across tests.
const TokenABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"digest","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"getReserves","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"}]},
	{"type":"event","name":"Transfer","anonymous":false,
	 "inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

// OwnableABI declares a different function set for the same address in cache tests.
const OwnableABI = `[
	{"type":"function","name":"owner","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

// FakeChain records every call and answers from its fields. Set the Func
// fields to override a primitive.
type FakeChain struct {
	mu    sync.Mutex
	calls map[string]int

	ChainIDValue  *big.Int
	BlockNumber   uint64
	GasPriceValue *big.Int
	Balance       *big.Int
	Nonce         uint64
	SentHash      common.Hash

	Transactions map[common.Hash]*services.RPCTransaction
	Receipts     map[common.Hash]*types.Receipt
	Logs         []services.DecodedLog

	CallFunc        func(binding *services.ContractBinding, function string, args []any) ([]any, error)
	EstimateFunc    func(function string, args []any, from common.Address, value *big.Int) (uint64, error)
	ReceiptErr      error
	SendErr         error
	BalanceErr      error
	WaitForReceiptF func(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	LastTx    *types.Transaction
	LastLogs  [2]services.BlockRef
	LastValue *big.Int
}

func NewFakeChain() *FakeChain {
	return &FakeChain{
		calls:         make(map[string]int),
		ChainIDValue:  big.NewInt(31337),
		BlockNumber:   100,
		GasPriceValue: big.NewInt(1_000_000_000),
		Balance:       new(big.Int),
		SentHash:      crypto.Keccak256Hash([]byte("sent")),
		Transactions:  make(map[common.Hash]*services.RPCTransaction),
		Receipts:      make(map[common.Hash]*types.Receipt),
	}
}

func (f *FakeChain) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

// Calls returns how often the named primitive was invoked.
func (f *FakeChain) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of calls across all primitives.
func (f *FakeChain) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeChain) IsConnected(ctx context.Context) bool {
	f.count("IsConnected")
	return true
}

func (f *FakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	f.count("ChainID")
	return f.ChainIDValue, nil
}

func (f *FakeChain) LatestBlockNumber(ctx context.Context) (uint64, error) {
	f.count("LatestBlockNumber")
	return f.BlockNumber, nil
}

func (f *FakeChain) GasPrice(ctx context.Context) (*big.Int, error) {
	f.count("GasPrice")
	return f.GasPriceValue, nil
}

func (f *FakeChain) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	f.count("GetBalance")
	if f.BalanceErr != nil {
		return nil, f.BalanceErr
	}
	return f.Balance, nil
}

func (f *FakeChain) GetTransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	f.count("GetTransactionCount")
	return f.Nonce, nil
}

func (f *FakeChain) GetTransaction(ctx context.Context, hash common.Hash) (*services.RPCTransaction, error) {
	f.count("GetTransaction")
	tx, ok := f.Transactions[hash]
	if !ok {
		return nil, services.ErrNotFound
	}
	return tx, nil
}

func (f *FakeChain) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.count("GetTransactionReceipt")
	if f.ReceiptErr != nil {
		return nil, f.ReceiptErr
	}
	receipt, ok := f.Receipts[hash]
	if !ok {
		return nil, services.ErrNotFound
	}
	return receipt, nil
}

func (f *FakeChain) SendRawTransaction(ctx context.Context, signed []byte) (common.Hash, error) {
	f.count("SendRawTransaction")
	if f.SendErr != nil {
		return common.Hash{}, f.SendErr
	}
	return f.SentHash, nil
}

func (f *FakeChain) Bind(address common.Address, contractABI *abi.ABI) *services.ContractBinding {
	f.count("Bind")
	return services.NewContractBinding(address, contractABI, nil)
}

func (f *FakeChain) Call(ctx context.Context, binding *services.ContractBinding, function string, args []any) ([]any, error) {
	f.count("Call")
	if f.CallFunc != nil {
		return f.CallFunc(binding, function, args)
	}
	return nil, nil
}

func (f *FakeChain) EstimateGas(ctx context.Context, binding *services.ContractBinding, function string, args []any, from common.Address, value *big.Int) (uint64, error) {
	f.count("EstimateGas")
	f.LastValue = value
	if f.EstimateFunc != nil {
		return f.EstimateFunc(function, args, from, value)
	}
	return 21_000, nil
}

func (f *FakeChain) BuildTransaction(binding *services.ContractBinding, function string, args []any, params services.TxParams) (*types.Transaction, error) {
	f.count("BuildTransaction")
	data, err := binding.ABI.Pack(function, args...)
	if err != nil {
		return nil, err
	}
	to := binding.Address
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    params.Nonce,
		To:       &to,
		Value:    params.Value,
		Gas:      params.GasLimit,
		GasPrice: params.GasPrice,
		Data:     data,
	})
	f.LastTx = tx
	return tx, nil
}

func (f *FakeChain) Sign(ctx context.Context, tx *types.Transaction, key *ecdsa.PrivateKey) ([]byte, error) {
	f.count("Sign")
	if key == nil {
		return nil, errors.New("missing key")
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(f.ChainIDValue), key)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}

func (f *FakeChain) GetLogs(ctx context.Context, binding *services.ContractBinding, event string, fromBlock, toBlock services.BlockRef) ([]services.DecodedLog, error) {
	f.count("GetLogs")
	f.LastLogs = [2]services.BlockRef{fromBlock, toBlock}
	if _, err := fromBlock.BlockNumber(); err != nil {
		return nil, err
	}
	if _, err := toBlock.BlockNumber(); err != nil {
		return nil, err
	}
	return f.Logs, nil
}

func (f *FakeChain) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.count("WaitForReceipt")
	if f.WaitForReceiptF != nil {
		return f.WaitForReceiptF(ctx, hash)
	}
	if receipt, ok := f.Receipts[hash]; ok {
		return receipt, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *FakeChain) Close() {}
