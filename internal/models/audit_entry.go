package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemActor marks transitions performed by the matching engine itself.
const SystemActor = "system"

// AuditEntry is one append-only record of a match status transition.
type AuditEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MatchID    uuid.UUID      `gorm:"type:uuid;index" json:"match_id"`
	FromStatus string         `json:"from_status"`
	ToStatus   string         `json:"to_status"`
	Actor      string         `json:"actor"`
	Reason     string         `json:"reason,omitempty"`
	RuleScores datatypes.JSON `json:"rule_scores"`
	CreatedAt  time.Time      `json:"created_at"`
}
