package services

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/metrics"
	"github.com/rxtech-lab/web3-gateway/internal/models"
	"github.com/rxtech-lab/web3-gateway/internal/utils"
)

const DefaultReceiptTimeoutSeconds = 120

const (
	opNetworkInfo      = "network_info"
	opGetBalance       = "get_balance"
	opCallFunction     = "call_function"
	opSendTransaction  = "send_transaction"
	opEstimateGas      = "estimate_gas"
	opGetTransaction   = "get_transaction"
	opGetEvents        = "get_events"
	opWaitForReceipt   = "wait_for_receipt"
	opListTransactions = "list_transactions"
)

// GatewayService validates requests, resolves contracts and turns chain
// results into JSON-safe values. It holds no per-request state.
type GatewayService interface {
	NetworkInfo(ctx context.Context) models.NetworkInfo
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
	CallFunction(ctx context.Context, args CallFunctionArgs) (any, error)
	SendTransaction(ctx context.Context, args SendTransactionArgs) (string, error)
	EstimateGas(ctx context.Context, args SendTransactionArgs) (uint64, error)
	GetTransaction(ctx context.Context, hash string) (*models.TransactionDetails, error)
	GetEvents(ctx context.Context, args GetEventsArgs) ([]models.EventRecord, error)
	WaitForReceipt(ctx context.Context, hash string, timeoutSeconds int) (*models.ReceiptDetails, error)
	ListTransactions(limit int) ([]models.SubmittedTransaction, error)
}

type gatewayService struct {
	settings  *config.Settings
	chain     ChainService
	contracts ContractService
	journal   TransactionService
	metrics   *metrics.Metrics
	logger    logging.Logger
	validator *validator.Validate
}

// NewGatewayService wires the dispatcher. journal and m may be nil.
func NewGatewayService(settings *config.Settings, chain ChainService, contracts ContractService, journal TransactionService, m *metrics.Metrics, logger logging.Logger) GatewayService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &gatewayService{
		settings:  settings,
		chain:     chain,
		contracts: contracts,
		journal:   journal,
		metrics:   m,
		logger:    logger,
		validator: validator.New(),
	}
}

// NetworkInfo never fails; when the node cannot be queried the error is reported in the result.
func (s *gatewayService) NetworkInfo(ctx context.Context) models.NetworkInfo {
	info, err := s.networkInfo(ctx)
	if err != nil {
		s.fail(opNetworkInfo, err)
		return models.NetworkInfo{Error: err.Error()}
	}
	return info
}

func (s *gatewayService) networkInfo(ctx context.Context) (models.NetworkInfo, error) {
	chainID, err := s.chain.ChainID(ctx)
	if err != nil {
		return models.NetworkInfo{}, apperr.Adapter(err)
	}
	latest, err := s.chain.LatestBlockNumber(ctx)
	if err != nil {
		return models.NetworkInfo{}, apperr.Adapter(err)
	}
	gasPrice, err := s.chain.GasPrice(ctx)
	if err != nil {
		return models.NetworkInfo{}, apperr.Adapter(err)
	}
	return models.NetworkInfo{
		NetworkID:   chainID.Int64(),
		NetworkName: s.settings.NetworkName,
		LatestBlock: latest,
		GasPrice:    gasPrice.String(),
		IsTestnet:   s.settings.IsTestnet(),
		Connected:   s.chain.IsConnected(ctx),
	}, nil
}

func (s *gatewayService) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !utils.IsValidEthereumAddress(address) {
		return decimal.Zero, s.fail(opGetBalance, apperr.New(apperr.ErrInvalidAddress, "Invalid address: %s", address))
	}
	wei, err := s.chain.GetBalance(ctx, common.HexToAddress(address))
	if err != nil {
		return decimal.Zero, s.fail(opGetBalance, apperr.Adapter(err))
	}
	return utils.WeiToEther(wei), nil
}

func (s *gatewayService) CallFunction(ctx context.Context, args CallFunctionArgs) (any, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, s.fail(opCallFunction, apperr.New(apperr.ErrMissingField, "contract_address and function_name are required"))
	}
	binding, method, callArgs, err := s.prepareCall(args)
	if err != nil {
		return nil, s.fail(opCallFunction, err)
	}

	results, err := s.chain.Call(ctx, binding, method.Name, callArgs)
	if err != nil {
		return nil, s.fail(opCallFunction, apperr.Adapter(err))
	}

	s.logger.WithFields(logging.Fields{
		"contract": binding.Address.Hex(),
		"function": method.Name,
	}).Info("called contract function")
	return utils.NormalizeOutputs(method.Outputs, results), nil
}

func (s *gatewayService) SendTransaction(ctx context.Context, args SendTransactionArgs) (string, error) {
	if !s.settings.HasCredential() {
		return "", s.fail(opSendTransaction, apperr.New(apperr.ErrNoSigningAccount, "No account loaded for sending transactions"))
	}
	if err := s.validator.Struct(args); err != nil {
		return "", s.fail(opSendTransaction, apperr.New(apperr.ErrMissingField, "contract_address and function_name are required"))
	}
	binding, method, callArgs, err := s.prepareCall(args.callArgs())
	if err != nil {
		return "", s.fail(opSendTransaction, err)
	}
	value, err := utils.ParseWei(args.Value)
	if err != nil {
		return "", s.fail(opSendTransaction, apperr.Wrap(apperr.ErrInvalidArgument, err, "%v", err))
	}

	credential := s.settings.Credential
	nonce, err := s.chain.GetTransactionCount(ctx, credential.Address)
	if err != nil {
		return "", s.fail(opSendTransaction, apperr.Adapter(err))
	}
	params := TxParams{
		From:     credential.Address,
		GasLimit: s.settings.GasLimit,
		GasPrice: s.settings.GasPriceWei(),
		Nonce:    nonce,
		Value:    value,
	}
	tx, err := s.chain.BuildTransaction(binding, method.Name, callArgs, params)
	if err != nil {
		return "", s.fail(opSendTransaction, apperr.Adapter(err))
	}
	signed, err := s.chain.Sign(ctx, tx, credential.PrivateKey())
	if err != nil {
		return "", s.fail(opSendTransaction, apperr.Adapter(err))
	}
	hash, err := s.chain.SendRawTransaction(ctx, signed)
	if err != nil {
		return "", s.fail(opSendTransaction, apperr.Adapter(err))
	}

	txHash := strings.ToLower(hash.Hex())
	s.record(txHash, binding, method.Name, args.FunctionArgs, params)
	s.logger.WithFields(logging.Fields{
		"hash":     txHash,
		"contract": binding.Address.Hex(),
		"function": method.Name,
	}).Info("sent transaction")
	return txHash, nil
}

func (s *gatewayService) EstimateGas(ctx context.Context, args SendTransactionArgs) (uint64, error) {
	if !s.settings.HasCredential() {
		return 0, s.fail(opEstimateGas, apperr.New(apperr.ErrNoSigningAccount, "No account loaded for gas estimation"))
	}
	if err := s.validator.Struct(args); err != nil {
		return 0, s.fail(opEstimateGas, apperr.New(apperr.ErrMissingField, "contract_address and function_name are required"))
	}
	binding, method, callArgs, err := s.prepareCall(args.callArgs())
	if err != nil {
		return 0, s.fail(opEstimateGas, err)
	}
	value, err := utils.ParseWei(args.Value)
	if err != nil {
		return 0, s.fail(opEstimateGas, apperr.Wrap(apperr.ErrInvalidArgument, err, "%v", err))
	}

	gas, err := s.chain.EstimateGas(ctx, binding, method.Name, callArgs, s.settings.Credential.Address, value)
	if err != nil {
		return 0, s.fail(opEstimateGas, apperr.Adapter(err))
	}
	s.logger.WithFields(logging.Fields{"function": method.Name, "gas": gas}).Info("estimated gas")
	return gas, nil
}

func (s *gatewayService) GetTransaction(ctx context.Context, hash string) (*models.TransactionDetails, error) {
	if !utils.IsValidTransactionHash(hash) {
		return nil, s.fail(opGetTransaction, apperr.New(apperr.ErrInvalidArgument, "Invalid transaction hash: %s", hash))
	}
	txHash := common.HexToHash(hash)

	tx, err := s.chain.GetTransaction(ctx, txHash)
	if errors.Is(err, ErrNotFound) {
		return nil, s.fail(opGetTransaction, apperr.Wrap(apperr.ErrAdapter, err, "Transaction %s not found", hash))
	}
	if err != nil {
		return nil, s.fail(opGetTransaction, apperr.Adapter(err))
	}

	details := transactionDetails(tx)

	// A missing receipt means the transaction is not mined yet.
	receipt, err := s.chain.GetTransactionReceipt(ctx, txHash)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, s.fail(opGetTransaction, apperr.Adapter(err))
	default:
		details.Receipt = receiptDetails(receipt)
		s.observeReceipt(receipt)
	}

	if s.journal != nil {
		entry, err := s.journal.GetTransaction(hash)
		if err != nil {
			s.logger.WithError(err).WithField("hash", hash).Warn("failed to read journal entry")
		}
		details.Submitted = entry
	}
	return details, nil
}

func (s *gatewayService) GetEvents(ctx context.Context, args GetEventsArgs) ([]models.EventRecord, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, s.fail(opGetEvents, apperr.New(apperr.ErrMissingField, "contract_address and event_name are required"))
	}
	binding, err := s.contracts.ResolveContract(args.ContractAddress, args.ABISource)
	if err != nil {
		return nil, s.fail(opGetEvents, err)
	}
	if _, ok := binding.Event(args.EventName); !ok {
		return nil, s.fail(opGetEvents, apperr.New(apperr.ErrUnknownEvent, "Event %s not found in contract ABI", args.EventName))
	}

	logs, err := s.chain.GetLogs(ctx, binding, args.EventName, args.FromBlock, args.ToBlock)
	if err != nil {
		return nil, s.fail(opGetEvents, apperr.Adapter(err))
	}

	events := make([]models.EventRecord, 0, len(logs))
	for _, decoded := range logs {
		eventArgs := make(map[string]any, len(decoded.Args))
		for name, value := range decoded.Args {
			eventArgs[name] = utils.NormalizeValue(value)
		}
		events = append(events, models.EventRecord{
			Event:           decoded.Event,
			TransactionHash: decoded.Log.TxHash.Hex(),
			BlockNumber:     decoded.Log.BlockNumber,
			Args:            eventArgs,
			Address:         decoded.Log.Address.Hex(),
			LogIndex:        decoded.Log.Index,
		})
	}

	s.logger.WithFields(logging.Fields{
		"contract": binding.Address.Hex(),
		"event":    args.EventName,
		"count":    len(events),
	}).Info("retrieved events")
	return events, nil
}

func (s *gatewayService) WaitForReceipt(ctx context.Context, hash string, timeoutSeconds int) (*models.ReceiptDetails, error) {
	if !utils.IsValidTransactionHash(hash) {
		return nil, s.fail(opWaitForReceipt, apperr.New(apperr.ErrInvalidArgument, "Invalid transaction hash: %s", hash))
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultReceiptTimeoutSeconds
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	receipt, err := s.chain.WaitForReceipt(waitCtx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, s.fail(opWaitForReceipt, apperr.Wrap(apperr.ErrTimeout, err, "Transaction %s was not mined within %d seconds", hash, timeoutSeconds))
		}
		return nil, s.fail(opWaitForReceipt, apperr.Adapter(err))
	}

	s.observeReceipt(receipt)
	return receiptDetails(receipt), nil
}

func (s *gatewayService) ListTransactions(limit int) ([]models.SubmittedTransaction, error) {
	if s.journal == nil {
		return []models.SubmittedTransaction{}, nil
	}
	txs, err := s.journal.ListTransactions(limit)
	if err != nil {
		return nil, s.fail(opListTransactions, err)
	}
	return txs, nil
}

// prepareCall resolves the contract, looks up the function and coerces its arguments.
func (s *gatewayService) prepareCall(args CallFunctionArgs) (*ContractBinding, abi.Method, []any, error) {
	binding, err := s.contracts.ResolveContract(args.ContractAddress, args.ABISource)
	if err != nil {
		return nil, abi.Method{}, nil, err
	}
	method, ok := binding.Function(args.FunctionName)
	if !ok {
		return nil, abi.Method{}, nil, apperr.New(apperr.ErrUnknownFunction, "Function %s not found in contract ABI", args.FunctionName)
	}
	callArgs, err := utils.CoerceArguments(method.Name, method.Inputs, args.FunctionArgs)
	if err != nil {
		return nil, abi.Method{}, nil, apperr.Wrap(apperr.ErrInvalidArgument, err, "%v", err)
	}
	return binding, method, callArgs, nil
}

// record adds a submitted transaction to the journal. Failures are logged only.
func (s *gatewayService) record(hash string, binding *ContractBinding, function string, args []any, params TxParams) {
	if s.journal == nil {
		return
	}
	entry := &models.SubmittedTransaction{
		Hash:            hash,
		From:            params.From.Hex(),
		ContractAddress: binding.Address.Hex(),
		FunctionName:    function,
		Args:            models.Args(args),
		Value:           params.Value.String(),
		Nonce:           params.Nonce,
		GasLimit:        params.GasLimit,
		GasPrice:        params.GasPrice.String(),
		Status:          models.TransactionStatusPending,
	}
	if err := s.journal.RecordSubmitted(entry); err != nil {
		s.logger.WithError(err).WithField("hash", hash).Warn("failed to record transaction in journal")
	}
}

func (s *gatewayService) observeReceipt(receipt *types.Receipt) {
	if s.journal == nil || receipt == nil {
		return
	}
	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	status := models.StatusFromReceipt(receipt.Status)
	if err := s.journal.UpdateStatus(receipt.TxHash.Hex(), status, blockNumber); err != nil {
		s.logger.WithError(err).WithField("hash", receipt.TxHash.Hex()).Warn("failed to update journal status")
	}
}

// fail counts and logs err once, then returns it.
func (s *gatewayService) fail(operation string, err error) error {
	s.metrics.OperationFailed(operation, err)
	entry := s.logger.WithError(err).WithField("operation", operation)
	if apperr.IsDomain(err) {
		entry.Warn("operation failed")
	} else {
		entry.Error("operation failed")
	}
	return err
}

func transactionDetails(tx *RPCTransaction) *models.TransactionDetails {
	details := &models.TransactionDetails{
		Hash:     strings.ToLower(tx.Hash.Hex()),
		From:     tx.From.Hex(),
		Value:    bigString(tx.Value),
		Gas:      uint64(tx.Gas),
		GasPrice: bigString(tx.GasPrice),
		Nonce:    uint64(tx.Nonce),
	}
	if tx.To != nil {
		to := tx.To.Hex()
		details.To = &to
	}
	if tx.BlockNumber != nil {
		number := tx.BlockNumber.ToInt().Uint64()
		details.BlockNumber = &number
	}
	if tx.TransactionIndex != nil {
		index := uint64(*tx.TransactionIndex)
		details.TransactionIndex = &index
	}
	return details
}

func receiptDetails(receipt *types.Receipt) *models.ReceiptDetails {
	details := &models.ReceiptDetails{
		TransactionHash:   receipt.TxHash.Hex(),
		BlockHash:         receipt.BlockHash.Hex(),
		TransactionIndex:  receipt.TransactionIndex,
		GasUsed:           receipt.GasUsed,
		CumulativeGasUsed: receipt.CumulativeGasUsed,
		Status:            receipt.Status,
		Logs:              make([]map[string]any, 0, len(receipt.Logs)),
	}
	if receipt.BlockNumber != nil {
		details.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.EffectiveGasPrice != nil {
		details.EffectiveGasPrice = receipt.EffectiveGasPrice.String()
	}
	if receipt.ContractAddress != (common.Address{}) {
		address := receipt.ContractAddress.Hex()
		details.ContractAddress = &address
	}
	for _, log := range receipt.Logs {
		details.Logs = append(details.Logs, logMap(log))
	}
	return details
}

func logMap(log *types.Log) map[string]any {
	topics := make([]string, len(log.Topics))
	for i, topic := range log.Topics {
		topics[i] = topic.Hex()
	}
	return map[string]any{
		"address":           log.Address.Hex(),
		"topics":            topics,
		"data":              hexutil.Encode(log.Data),
		"block_number":      log.BlockNumber,
		"block_hash":        log.BlockHash.Hex(),
		"transaction_hash":  log.TxHash.Hex(),
		"transaction_index": log.TxIndex,
		"log_index":         log.Index,
		"removed":           log.Removed,
	}
}

func bigString(v *hexutil.Big) string {
	if v == nil {
		return "0"
	}
	return (*big.Int)(v).String()
}
