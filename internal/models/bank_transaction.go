package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankTransaction is one normalized bank-statement line. Rows are written once
// by the import boundary and never mutated by the matching core.
type BankTransaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID         uuid.UUID       `gorm:"type:uuid;index" json:"entity_id"`
	AccountID        string          `json:"account_id"`
	ImportBatchID    uuid.UUID       `gorm:"type:uuid;index" json:"import_batch_id"`
	TransactionDate  time.Time       `gorm:"column:transaction_date" json:"transaction_date"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);index" json:"amount"`
	Currency         string          `gorm:"size:3" json:"currency"`
	CounterpartyName string          `json:"counterparty_name"`
	VirtualAccount   string          `gorm:"index" json:"virtual_account"`
	RawReference     string          `gorm:"uniqueIndex" json:"raw_reference"`
	CreatedAt        time.Time       `json:"created_at"`
}
