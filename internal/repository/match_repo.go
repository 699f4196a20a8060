package repository

import (
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(id uuid.UUID) (*models.ReconciliationMatch, error) {
	var m models.ReconciliationMatch
	if err := r.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ActiveByTransactionIDs returns the set of transaction IDs that already carry
// a non-rejected match. Used for idempotent batch replay.
func (r *MatchRepository) ActiveByTransactionIDs(ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	active := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return active, nil
	}
	var matches []models.ReconciliationMatch
	err := r.db.
		Select("bank_transaction_id").
		Where("bank_transaction_id IN ?", ids).
		Where("status <> ?", models.MatchStatusRejected).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		active[m.BankTransactionID] = true
	}
	return active, nil
}

// CountActiveForPair counts non-rejected matches touching either side of a
// candidate pair, excluding one match ID (the match being promoted). Both
// sides must come back zero before a confirmation may be written.
func (r *MatchRepository) CountActiveForPair(tx *gorm.DB, bankTxID, entryID, excludeMatchID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.ReconciliationMatch{}).
		Where("status <> ?", models.MatchStatusRejected).
		Where("id <> ?", excludeMatchID).
		Where("bank_transaction_id = ? OR ledger_entry_id = ?", bankTxID, entryID).
		Count(&n).Error
	return n, err
}

func (r *MatchRepository) Create(tx *gorm.DB, m *models.ReconciliationMatch) error {
	return tx.Create(m).Error
}

func (r *MatchRepository) Save(tx *gorm.DB, m *models.ReconciliationMatch) error {
	return tx.Save(m).Error
}

// ListSuggested returns an entity's matches awaiting human review, ambiguous
// ones first so they get priority attention.
func (r *MatchRepository) ListSuggested(entityID uuid.UUID) ([]models.ReconciliationMatch, error) {
	var matches []models.ReconciliationMatch
	err := r.db.
		Where("entity_id = ? AND status = ?", entityID, models.MatchStatusSuggested).
		Order("ambiguous DESC, confidence DESC, created_at ASC").
		Find(&matches).Error
	return matches, err
}

// ListSuggestedByBatch returns a batch's suggested matches above a confidence
// floor, skipping ambiguous ones, for bulk confirmation.
func (r *MatchRepository) ListSuggestedByBatch(batchID uuid.UUID, confidenceFloor float64) ([]models.ReconciliationMatch, error) {
	var matches []models.ReconciliationMatch
	err := r.db.
		Where("import_batch_id = ? AND status = ?", batchID, models.MatchStatusSuggested).
		Where("ambiguous = ?", false).
		Where("confidence >= ?", confidenceFloor).
		Order("created_at ASC").
		Find(&matches).Error
	return matches, err
}

// AppendAudit writes one immutable transition record.
func (r *MatchRepository) AppendAudit(tx *gorm.DB, m *models.ReconciliationMatch, fromStatus, actor, reason string) error {
	return tx.Create(&models.AuditEntry{
		ID:         uuid.New(),
		MatchID:    m.ID,
		FromStatus: fromStatus,
		ToStatus:   m.Status,
		Actor:      actor,
		Reason:     reason,
		RuleScores: m.RuleScores,
		CreatedAt:  time.Now(),
	}).Error
}

// AuditTrail returns a match's transitions oldest first.
func (r *MatchRepository) AuditTrail(matchID uuid.UUID) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.
		Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
