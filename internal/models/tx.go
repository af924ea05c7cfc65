package models

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// StatusFromReceipt maps a receipt status code (1 success, 0 reverted) to a journal status.
func StatusFromReceipt(status uint64) TransactionStatus {
	if status == 1 {
		return TransactionStatusConfirmed
	}
	return TransactionStatusFailed
}

// SubmittedTransaction is a transaction this process signed and broadcast.
type SubmittedTransaction struct {
	ID              string            `gorm:"primaryKey" json:"id"`
	Hash            string            `gorm:"uniqueIndex;not null" json:"hash"`
	From            string            `gorm:"index;not null" json:"from"`
	ContractAddress string            `gorm:"index;not null" json:"contract_address"`
	FunctionName    string            `gorm:"not null" json:"function_name"`
	Args            Args              `gorm:"type:text" json:"args"`
	Value           string            `gorm:"not null;default:0" json:"value"` // wei
	Nonce           uint64            `json:"nonce"`
	GasLimit        uint64            `json:"gas_limit"`
	GasPrice        string            `json:"gas_price"` // wei
	Status          TransactionStatus `gorm:"default:pending" json:"status"`
	BlockNumber     *uint64           `json:"block_number"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
