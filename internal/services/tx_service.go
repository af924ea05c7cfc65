package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rxtech-lab/web3-gateway/internal/models"
)

const (
	DefaultTransactionListLimit = 50
	MaxTransactionListLimit     = 500
)

// TransactionService is the journal of transactions submitted by this process.
type TransactionService interface {
	RecordSubmitted(tx *models.SubmittedTransaction) error
	UpdateStatus(hash string, status models.TransactionStatus, blockNumber uint64) error
	GetTransaction(hash string) (*models.SubmittedTransaction, error)
	ListTransactions(limit int) ([]models.SubmittedTransaction, error)
}

type transactionService struct {
	db *gorm.DB
}

func NewTransactionService(db *gorm.DB) TransactionService {
	return &transactionService{db: db}
}

func (s *transactionService) RecordSubmitted(tx *models.SubmittedTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.Hash = strings.ToLower(tx.Hash)
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return s.db.Create(tx).Error
}

// UpdateStatus records an observed receipt. Hashes this process never
// submitted are ignored.
func (s *transactionService) UpdateStatus(hash string, status models.TransactionStatus, blockNumber uint64) error {
	return s.db.Model(&models.SubmittedTransaction{}).
		Where("hash = ?", strings.ToLower(hash)).
		Updates(map[string]any{
			"status":       status,
			"block_number": blockNumber,
			"updated_at":   time.Now(),
		}).Error
}

// GetTransaction returns nil without an error when hash is not in the journal.
func (s *transactionService) GetTransaction(hash string) (*models.SubmittedTransaction, error) {
	var tx models.SubmittedTransaction
	err := s.db.Where("hash = ?", strings.ToLower(hash)).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions returns the newest entries first.
func (s *transactionService) ListTransactions(limit int) ([]models.SubmittedTransaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionListLimit
	}
	if limit > MaxTransactionListLimit {
		limit = MaxTransactionListLimit
	}
	var txs []models.SubmittedTransaction
	err := s.db.Order("created_at DESC").Order("id").Limit(limit).Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}
