package repository

import (
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerEntryRepository struct {
	db *gorm.DB
}

func NewLedgerEntryRepository(db *gorm.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{db: db}
}

func (r *LedgerEntryRepository) DB() *gorm.DB {
	return r.db
}

// CreateAll inserts entries, ignoring rows whose ID already exists.
func (r *LedgerEntryRepository) CreateAll(entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
}

func (r *LedgerEntryRepository) GetByID(id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindCandidates narrows the search space for one bank transaction: same
// entity, same currency, still open, entry date within ±windowDays of the
// transaction date. Ordered by creation so downstream tie-breaking is
// deterministic.
func (r *LedgerEntryRepository) FindCandidates(
	entityID uuid.UUID,
	currency string,
	date time.Time,
	windowDays int,
) ([]*models.LedgerEntry, error) {
	window := time.Duration(windowDays) * 24 * time.Hour
	from := date.Add(-window)
	to := date.Add(window)

	var entries []*models.LedgerEntry
	err := r.db.
		Where("entity_id = ?", entityID).
		Where("currency = ?", currency).
		Where("reconciled = ?", false).
		Where("entry_date BETWEEN ? AND ?", from, to).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// Reserve flips the entry's reconciled flag with a single-row compare-and-swap.
// It reports false when the entry was already reconciled, which is how a losing
// concurrent confirmation learns it lost. Callers pass their open transaction
// so the swap commits or rolls back with the match write.
func (r *LedgerEntryRepository) Reserve(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := tx.Model(&models.LedgerEntry{}).
		Where("id = ? AND reconciled = ?", id, false).
		Update("reconciled", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release reopens an entry after an unmatch so it can be matched again.
func (r *LedgerEntryRepository) Release(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&models.LedgerEntry{}).
		Where("id = ?", id).
		Update("reconciled", false).Error
}
