package services

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/rxtech-lab/web3-gateway/internal/logging"
)

// ErrNotFound is returned when the node has no record of a transaction or receipt.
var ErrNotFound = errors.New("not found")

const defaultReceiptPollInterval = time.Second

// ChainService is the gateway's view of a remote node.
type ChainService interface {
	IsConnected(ctx context.Context) bool
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)
	GetTransactionCount(ctx context.Context, address common.Address) (uint64, error)
	GetTransaction(ctx context.Context, hash common.Hash) (*RPCTransaction, error)
	GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	SendRawTransaction(ctx context.Context, signed []byte) (common.Hash, error)

	Bind(address common.Address, contractABI *abi.ABI) *ContractBinding
	Call(ctx context.Context, binding *ContractBinding, function string, args []any) ([]any, error)
	EstimateGas(ctx context.Context, binding *ContractBinding, function string, args []any, from common.Address, value *big.Int) (uint64, error)
	BuildTransaction(binding *ContractBinding, function string, args []any, params TxParams) (*types.Transaction, error)
	Sign(ctx context.Context, tx *types.Transaction, key *ecdsa.PrivateKey) ([]byte, error)
	GetLogs(ctx context.Context, binding *ContractBinding, event string, fromBlock, toBlock BlockRef) ([]DecodedLog, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	Close()
}

type chainService struct {
	rpcClient    *rpc.Client
	client       *ethclient.Client
	logger       logging.Logger
	pollInterval time.Duration
}

// NewChainService dials the node at providerURL. The connection is shared by
// every request for the life of the process.
func NewChainService(ctx context.Context, providerURL string, logger logging.Logger) (ChainService, error) {
	rpcClient, err := rpc.DialContext(ctx, providerURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", providerURL)
	}
	return NewChainServiceFromClient(rpcClient, logger), nil
}

// NewChainServiceFromClient wraps an existing RPC client.
func NewChainServiceFromClient(rpcClient *rpc.Client, logger logging.Logger) ChainService {
	return &chainService{
		rpcClient:    rpcClient,
		client:       ethclient.NewClient(rpcClient),
		logger:       logger,
		pollInterval: defaultReceiptPollInterval,
	}
}

func (s *chainService) IsConnected(ctx context.Context) bool {
	var version string
	if err := s.rpcClient.CallContext(ctx, &version, "net_version"); err != nil {
		s.logger.WithError(err).Debug("node connectivity check failed")
		return false
	}
	return true
}

func (s *chainService) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := s.client.ChainID(ctx)
	return id, errors.WithStack(err)
}

func (s *chainService) LatestBlockNumber(ctx context.Context) (uint64, error) {
	number, err := s.client.BlockNumber(ctx)
	return number, errors.WithStack(err)
}

func (s *chainService) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := s.client.SuggestGasPrice(ctx)
	return price, errors.WithStack(err)
}

func (s *chainService) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := s.client.BalanceAt(ctx, address, nil)
	return balance, errors.WithStack(err)
}

// GetTransactionCount returns the pending nonce so back-to-back submissions do not collide.
func (s *chainService) GetTransactionCount(ctx context.Context, address common.Address) (uint64, error) {
	nonce, err := s.client.PendingNonceAt(ctx, address)
	return nonce, errors.WithStack(err)
}

func (s *chainService) GetTransaction(ctx context.Context, hash common.Hash) (*RPCTransaction, error) {
	var tx *RPCTransaction
	if err := s.rpcClient.CallContext(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, errors.WithStack(err)
	}
	if tx == nil {
		return nil, ErrNotFound
	}
	return tx, nil
}

func (s *chainService) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := s.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, ErrNotFound
	}
	return receipt, errors.WithStack(err)
}

func (s *chainService) SendRawTransaction(ctx context.Context, signed []byte) (common.Hash, error) {
	var hash common.Hash
	err := s.rpcClient.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(signed))
	return hash, errors.WithStack(err)
}

func (s *chainService) Bind(address common.Address, contractABI *abi.ABI) *ContractBinding {
	contract := bind.NewBoundContract(address, *contractABI, s.client, s.client, s.client)
	return NewContractBinding(address, contractABI, contract)
}

func (s *chainService) Call(ctx context.Context, binding *ContractBinding, function string, args []any) ([]any, error) {
	var results []any
	if err := binding.Contract.Call(&bind.CallOpts{Context: ctx}, &results, function, args...); err != nil {
		return nil, errors.WithStack(err)
	}
	return results, nil
}

func (s *chainService) EstimateGas(ctx context.Context, binding *ContractBinding, function string, args []any, from common.Address, value *big.Int) (uint64, error) {
	data, err := binding.ABI.Pack(function, args...)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	to := binding.Address
	gas, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	return gas, errors.WithStack(err)
}

func (s *chainService) BuildTransaction(binding *ContractBinding, function string, args []any, params TxParams) (*types.Transaction, error) {
	data, err := binding.ABI.Pack(function, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	to := binding.Address
	value := params.Value
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    params.Nonce,
		To:       &to,
		Value:    value,
		Gas:      params.GasLimit,
		GasPrice: params.GasPrice,
		Data:     data,
	}), nil
}

func (s *chainService) Sign(ctx context.Context, tx *types.Transaction, key *ecdsa.PrivateKey) ([]byte, error) {
	chainID, err := s.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	raw, err := signed.MarshalBinary()
	return raw, errors.WithStack(err)
}

func (s *chainService) GetLogs(ctx context.Context, binding *ContractBinding, event string, fromBlock, toBlock BlockRef) ([]DecodedLog, error) {
	abiEvent, ok := binding.Event(event)
	if !ok {
		return nil, errors.Errorf("event %s not found in contract ABI", event)
	}
	from, err := fromBlock.BlockNumber()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	to, err := toBlock.BlockNumber()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{binding.Address},
		Topics:    [][]common.Hash{{abiEvent.ID}},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	decoded := make([]DecodedLog, 0, len(logs))
	for _, log := range logs {
		args := make(map[string]any)
		if err := binding.Contract.UnpackLogIntoMap(args, event, log); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s log %s/%d", event, log.TxHash.Hex(), log.Index)
		}
		decoded = append(decoded, DecodedLog{Event: event, Log: log, Args: args})
	}
	return decoded, nil
}

// WaitForReceipt polls for the receipt until it is available or ctx ends.
// Only a missing receipt is polled again. Any other node error is returned.
func (s *chainService) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(s.pollInterval)
	defer queryTicker.Stop()

	logger := s.logger.WithField("hash", hash.Hex())
	for {
		receipt, err := s.GetTransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ErrNotFound) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		logger.Debug("transaction not yet mined")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

func (s *chainService) Close() {
	s.client.Close()
}
