package models

import "encoding/json"

// NetworkInfo describes the connected node. When the node cannot be queried
// only Error is set.
type NetworkInfo struct {
	NetworkID   int64  `json:"network_id,omitempty"`
	NetworkName string `json:"network_name,omitempty"`
	LatestBlock uint64 `json:"latest_block,omitempty"`
	GasPrice    string `json:"gas_price,omitempty"`
	IsTestnet   bool   `json:"is_testnet"`
	Connected   bool   `json:"connected"`
	Error       string `json:"error,omitempty"`
}

// MarshalJSON emits only the error when the node could not be queried.
func (n NetworkInfo) MarshalJSON() ([]byte, error) {
	if n.Error != "" {
		return json.Marshal(map[string]string{"error": n.Error})
	}
	type plain NetworkInfo
	return json.Marshal(plain(n))
}

// TransactionDetails is the JSON form of a transaction and its receipt.
// Wei amounts are decimal strings.
type TransactionDetails struct {
	Hash             string          `json:"hash"`
	From             string          `json:"from"`
	To               *string         `json:"to"`
	Value            string          `json:"value"`
	Gas              uint64          `json:"gas"`
	GasPrice         string          `json:"gas_price"`
	Nonce            uint64          `json:"nonce"`
	BlockNumber      *uint64         `json:"block_number"`
	TransactionIndex *uint64         `json:"transaction_index"`
	Receipt          *ReceiptDetails `json:"receipt"`

	// Submitted is the journal entry when this process sent the transaction.
	Submitted *SubmittedTransaction `json:"submitted,omitempty"`
}

// ReceiptDetails is the JSON form of a mined transaction's receipt.
type ReceiptDetails struct {
	TransactionHash   string           `json:"transaction_hash"`
	BlockHash         string           `json:"block_hash"`
	BlockNumber       uint64           `json:"block_number"`
	TransactionIndex  uint             `json:"transaction_index"`
	GasUsed           uint64           `json:"gas_used"`
	CumulativeGasUsed uint64           `json:"cumulative_gas_used"`
	EffectiveGasPrice string           `json:"effective_gas_price,omitempty"`
	ContractAddress   *string          `json:"contract_address"`
	Status            uint64           `json:"status"`
	Logs              []map[string]any `json:"logs"`
}

// EventRecord is one decoded contract event.
type EventRecord struct {
	Event           string         `json:"event"`
	TransactionHash string         `json:"transaction_hash"`
	BlockNumber     uint64         `json:"block_number"`
	Args            map[string]any `json:"args"`
	Address         string         `json:"address"`
	LogIndex        uint           `json:"log_index"`
}
