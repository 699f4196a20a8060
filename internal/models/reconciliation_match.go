package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Match lifecycle. Unmatched is implicit (no row exists); the constant only
// appears as the from-state of audit records for newly created matches.
const (
	MatchStatusUnmatched = "unmatched"
	MatchStatusSuggested = "suggested"
	MatchStatusConfirmed = "confirmed"
	MatchStatusRejected  = "rejected"
)

// ReconciliationMatch links exactly one bank transaction to exactly one ledger
// entry. At most one non-rejected match may exist per transaction and per entry.
type ReconciliationMatch struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID          uuid.UUID      `gorm:"type:uuid;index" json:"entity_id"`
	ImportBatchID     uuid.UUID      `gorm:"type:uuid;index" json:"import_batch_id"`
	BankTransactionID uuid.UUID      `gorm:"type:uuid;index" json:"bank_transaction_id"`
	LedgerEntryID     uuid.UUID      `gorm:"type:uuid;index" json:"ledger_entry_id"`
	Status            string         `gorm:"index" json:"status"`
	MatchType         string         `json:"match_type"`
	Confidence        float64        `json:"confidence"`
	Ambiguous         bool           `json:"ambiguous"`
	RuleScores        datatypes.JSON `json:"rule_scores"`
	Alternates        datatypes.JSON `json:"alternates"`
	ConfirmedBy       string         `json:"confirmed_by,omitempty"`
	ConfirmedAt       *time.Time     `json:"confirmed_at,omitempty"`
	RejectionReason   string         `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
