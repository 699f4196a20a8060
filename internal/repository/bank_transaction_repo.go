package repository

import (
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

// CreateAll inserts transactions, silently skipping duplicates on the raw
// reference so a re-sent import file cannot double-insert.
func (r *BankTransactionRepository) CreateAll(txs []models.BankTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&txs).Error
}

func (r *BankTransactionRepository) GetByID(id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	if err := r.db.First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindByBatch returns a batch's transactions in import order.
func (r *BankTransactionRepository) FindByBatch(entityID, batchID uuid.UUID) ([]*models.BankTransaction, error) {
	var txs []*models.BankTransaction
	err := r.db.
		Where("entity_id = ? AND import_batch_id = ?", entityID, batchID).
		Order("created_at ASC, id ASC").
		Find(&txs).Error
	return txs, err
}
