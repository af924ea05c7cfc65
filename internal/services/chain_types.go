package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// ContractBinding pairs a checksummed address with a parsed ABI and exposes
// name lookups for the functions and events it declares.
type ContractBinding struct {
	Address   common.Address
	ABI       *abi.ABI
	Functions map[string]abi.Method
	Events    map[string]abi.Event
	// Contract is nil for bindings that were not built against a live client.
	Contract *bind.BoundContract
}

func NewContractBinding(address common.Address, contractABI *abi.ABI, contract *bind.BoundContract) *ContractBinding {
	functions := make(map[string]abi.Method, len(contractABI.Methods))
	for name, method := range contractABI.Methods {
		functions[name] = method
	}
	events := make(map[string]abi.Event, len(contractABI.Events))
	for name, event := range contractABI.Events {
		events[name] = event
	}
	return &ContractBinding{
		Address:   address,
		ABI:       contractABI,
		Functions: functions,
		Events:    events,
		Contract:  contract,
	}
}

func (b *ContractBinding) Function(name string) (abi.Method, bool) {
	method, ok := b.Functions[name]
	return method, ok
}

func (b *ContractBinding) Event(name string) (abi.Event, bool) {
	event, ok := b.Events[name]
	return event, ok
}

// BlockRef is a block selector as sent by clients: a number, a hex string or
// one of latest, earliest, pending, safe and finalized.
type BlockRef string

// UnmarshalJSON accepts both JSON numbers and strings.
func (r *BlockRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = BlockRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("block must be a number or a string: %w", err)
	}
	*r = BlockRef(n.String())
	return nil
}

// BlockNumber resolves the reference to the form the client expects. An
// empty reference means latest; symbolic blocks map to negative numbers.
func (r BlockRef) BlockNumber() (*big.Int, error) {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return big.NewInt(int64(rpc.LatestBlockNumber)), nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return new(big.Int).SetUint64(n), nil
	}
	var bn rpc.BlockNumber
	if err := bn.UnmarshalJSON([]byte(strconv.Quote(s))); err != nil {
		return nil, fmt.Errorf("invalid block %q: %w", s, err)
	}
	return big.NewInt(bn.Int64()), nil
}

// RPCTransaction is the subset of eth_getTransactionByHash the gateway reports.
type RPCTransaction struct {
	Hash             common.Hash     `json:"hash"`
	From             common.Address  `json:"from"`
	To               *common.Address `json:"to"`
	Value            *hexutil.Big    `json:"value"`
	Gas              hexutil.Uint64  `json:"gas"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	BlockNumber      *hexutil.Big    `json:"blockNumber"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
}

// DecodedLog is a raw log together with its decoded event arguments.
type DecodedLog struct {
	Event string
	Log   types.Log
	Args  map[string]any
}

// TxParams are the envelope fields of a contract transaction.
type TxParams struct {
	From     common.Address
	GasLimit uint64
	GasPrice *big.Int
	Nonce    uint64
	Value    *big.Int
}
