package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is an open accounting-side record (unpaid invoice or unreconciled
// journal line) eligible for matching. The accounting module owns its financial
// fields; this service only flips Reconciled through a confirmed match.
type LedgerEntry struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID         uuid.UUID       `gorm:"type:uuid;index" json:"entity_id"`
	EntryDate        time.Time       `json:"entry_date"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,2);index" json:"amount"`
	Currency         string          `gorm:"size:3" json:"currency"`
	CounterpartyName string          `gorm:"index" json:"counterparty_name"`
	VirtualAccount   string          `gorm:"index" json:"virtual_account"`
	Reconciled       bool            `gorm:"index" json:"reconciled"`
	CreatedAt        time.Time       `json:"created_at"`
}
