package models

import (
	"time"

	"github.com/google/uuid"
)

type ReconciliationBatch struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID          uuid.UUID  `gorm:"type:uuid;index" json:"entity_id"`
	TotalTransactions int        `json:"total_transactions"`
	ProcessedCount    int        `json:"processed_count"`
	AutoConfirmed     int        `json:"auto_confirmed"`
	Suggested         int        `json:"suggested"`
	Ambiguous         int        `json:"ambiguous"`
	NoMatch           int        `json:"no_match"`
	Status            string     `json:"status"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
