package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/matching"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns the persisted match state machine. It is the only component
// that writes confirmed or rejected state, and every write goes through one
// database transaction per bank transaction.
type Service struct {
	db        *gorm.DB
	txRepo    *repository.BankTransactionRepository
	entryRepo *repository.LedgerEntryRepository
	matchRepo *repository.MatchRepository
	engine    *matching.Engine
	cfg       matching.Config
	log       *slog.Logger
}

func NewService(
	db *gorm.DB,
	txRepo *repository.BankTransactionRepository,
	entryRepo *repository.LedgerEntryRepository,
	matchRepo *repository.MatchRepository,
	cfg matching.Config,
	log *slog.Logger,
) *Service {
	return &Service{
		db:        db,
		txRepo:    txRepo,
		entryRepo: entryRepo,
		matchRepo: matchRepo,
		engine:    matching.NewEngine(matching.DefaultRuleSet(cfg), cfg),
		cfg:       cfg,
		log:       log,
	}
}

// RunSummary reports what one matching run changed.
type RunSummary struct {
	AutoConfirmed int `json:"auto_confirmed"`
	Suggested     int `json:"suggested"`
	Ambiguous     int `json:"ambiguous"`
	NoMatch       int `json:"no_match"`
}

// Alternate is a next-best valid candidate retained on a suggested match.
type Alternate struct {
	LedgerEntryID uuid.UUID `json:"ledger_entry_id"`
	Confidence    float64   `json:"confidence"`
	MatchType     string    `json:"match_type"`
}

// RunMatching scores every unmatched transaction of a batch and persists the
// outcomes. Replays are idempotent: transactions that already carry a
// non-rejected match are skipped, so a second run over the same batch changes
// nothing. Cancellation is honored between transactions; outcomes already
// written stand.
func (s *Service) RunMatching(ctx context.Context, entityID, batchID uuid.UUID) (RunSummary, error) {
	var summary RunSummary

	txs, err := s.txRepo.FindByBatch(entityID, batchID)
	if err != nil {
		return summary, fmt.Errorf("load batch transactions: %w", err)
	}

	ids := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	active, err := s.matchRepo.ActiveByTransactionIDs(ids)
	if err != nil {
		return summary, fmt.Errorf("load existing matches: %w", err)
	}

	batch, err := s.startBatch(entityID, batchID, len(txs))
	if err != nil {
		return summary, err
	}

	processed := 0
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			s.finishBatch(batch, summary, processed, "aborted")
			return summary, err
		}
		processed++
		if active[tx.ID] {
			continue
		}

		entries, err := s.entryRepo.FindCandidates(entityID, tx.Currency, tx.TransactionDate, s.cfg.CandidateWindowDays)
		if err != nil {
			s.finishBatch(batch, summary, processed, "failed")
			return summary, fmt.Errorf("find candidates for %s: %w", tx.ID, err)
		}

		decision := s.engine.Decide(tx, entries)
		switch decision.Outcome {
		case matching.OutcomeAutoConfirm:
			err = s.createConfirmed(tx, decision)
			if err == nil {
				summary.AutoConfirmed++
			}
		case matching.OutcomeSuggested:
			err = s.createSuggested(tx, decision, false)
			if err == nil {
				summary.Suggested++
			}
		case matching.OutcomeAmbiguous:
			err = s.createSuggested(tx, decision, true)
			if err == nil {
				summary.Ambiguous++
			}
		default:
			summary.NoMatch++
		}

		if errors.Is(err, ErrConflict) {
			// Another writer (a concurrent run, or a human) took one side of
			// the pair first. The transaction stays unmatched for the next run.
			s.log.Warn("match write lost to concurrent writer",
				"bank_transaction_id", tx.ID, "outcome", decision.Outcome)
			summary.NoMatch++
			err = nil
		}
		if err != nil {
			s.finishBatch(batch, summary, processed, "failed")
			return summary, err
		}

		if processed%50 == 0 {
			s.updateProgress(batch.ID, summary, processed)
		}
	}

	s.finishBatch(batch, summary, processed, "completed")
	s.log.Info("matching run finished",
		"entity_id", entityID, "batch_id", batchID,
		"auto_confirmed", summary.AutoConfirmed, "suggested", summary.Suggested,
		"ambiguous", summary.Ambiguous, "no_match", summary.NoMatch)
	return summary, nil
}

// createConfirmed writes an auto-confirmed match. The ledger entry's
// reconciled flag is the compare-and-swap: losing it means another confirmation
// got there first and the whole transaction rolls back.
func (s *Service) createConfirmed(tx *models.BankTransaction, d matching.Decision) error {
	actor := models.SystemActor
	return s.db.Transaction(func(dtx *gorm.DB) error {
		reserved, err := s.entryRepo.Reserve(dtx, d.Best.Entry.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrConflict
		}
		n, err := s.matchRepo.CountActiveForPair(dtx, tx.ID, d.Best.Entry.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}

		now := time.Now()
		m := &models.ReconciliationMatch{
			ID:                uuid.New(),
			EntityID:          tx.EntityID,
			ImportBatchID:     tx.ImportBatchID,
			BankTransactionID: tx.ID,
			LedgerEntryID:     d.Best.Entry.ID,
			Status:            models.MatchStatusConfirmed,
			MatchType:         d.Best.MatchType,
			Confidence:        d.Best.Confidence,
			RuleScores:        mustJSON(d.Best.RuleScores),
			ConfirmedBy:       actor,
			ConfirmedAt:       &now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.matchRepo.Create(dtx, m); err != nil {
			return err
		}
		return s.matchRepo.AppendAudit(dtx, m, models.MatchStatusUnmatched, actor, "")
	})
}

// createSuggested writes a suggested match with its retained alternates. The
// one-to-one invariant applies to suggestions too: an entry or transaction
// already carrying a non-rejected match cannot get another.
func (s *Service) createSuggested(tx *models.BankTransaction, d matching.Decision, ambiguous bool) error {
	return s.db.Transaction(func(dtx *gorm.DB) error {
		n, err := s.matchRepo.CountActiveForPair(dtx, tx.ID, d.Best.Entry.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}

		alternates := make([]Alternate, 0, len(d.Alternates))
		for _, a := range d.Alternates {
			alternates = append(alternates, Alternate{
				LedgerEntryID: a.Entry.ID,
				Confidence:    a.Confidence,
				MatchType:     a.MatchType,
			})
		}

		now := time.Now()
		m := &models.ReconciliationMatch{
			ID:                uuid.New(),
			EntityID:          tx.EntityID,
			ImportBatchID:     tx.ImportBatchID,
			BankTransactionID: tx.ID,
			LedgerEntryID:     d.Best.Entry.ID,
			Status:            models.MatchStatusSuggested,
			MatchType:         d.Best.MatchType,
			Confidence:        d.Best.Confidence,
			Ambiguous:         ambiguous,
			RuleScores:        mustJSON(d.Best.RuleScores),
			Alternates:        mustJSON(alternates),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.matchRepo.Create(dtx, m); err != nil {
			return err
		}
		return s.matchRepo.AppendAudit(dtx, m, models.MatchStatusUnmatched, models.SystemActor, "")
	})
}

// ConfirmMatch promotes a suggested match to confirmed on behalf of a human
// reviewer. A lost compare-and-swap or a terminal match returns ErrConflict;
// the caller refreshes and decides, nothing is retried here.
func (s *Service) ConfirmMatch(matchID uuid.UUID, actorID string) (*models.ReconciliationMatch, error) {
	var confirmed *models.ReconciliationMatch
	err := s.db.Transaction(func(dtx *gorm.DB) error {
		m, err := s.loadMatch(dtx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchStatusSuggested {
			return ErrConflict
		}

		reserved, err := s.entryRepo.Reserve(dtx, m.LedgerEntryID)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrConflict
		}
		n, err := s.matchRepo.CountActiveForPair(dtx, m.BankTransactionID, m.LedgerEntryID, m.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}

		now := time.Now()
		m.Status = models.MatchStatusConfirmed
		m.ConfirmedBy = actorID
		m.ConfirmedAt = &now
		m.UpdatedAt = now
		if err := s.matchRepo.Save(dtx, m); err != nil {
			return err
		}
		if err := s.matchRepo.AppendAudit(dtx, m, models.MatchStatusSuggested, actorID, ""); err != nil {
			return err
		}
		confirmed = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// RejectMatch dismisses a suggested match, releasing both sides for re-matching.
func (s *Service) RejectMatch(matchID uuid.UUID, actorID, reason string) (*models.ReconciliationMatch, error) {
	var rejected *models.ReconciliationMatch
	err := s.db.Transaction(func(dtx *gorm.DB) error {
		m, err := s.loadMatch(dtx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchStatusSuggested {
			return ErrConflict
		}

		m.Status = models.MatchStatusRejected
		m.RejectionReason = reason
		m.UpdatedAt = time.Now()
		if err := s.matchRepo.Save(dtx, m); err != nil {
			return err
		}
		if err := s.matchRepo.AppendAudit(dtx, m, models.MatchStatusSuggested, actorID, reason); err != nil {
			return err
		}
		rejected = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// Unmatch reverses a confirmed match. The row transitions to rejected rather
// than being deleted, preserving audit continuity, and the ledger entry is
// reopened for future runs.
func (s *Service) Unmatch(matchID uuid.UUID, actorID, reason string) (*models.ReconciliationMatch, error) {
	var unmatched *models.ReconciliationMatch
	err := s.db.Transaction(func(dtx *gorm.DB) error {
		m, err := s.loadMatch(dtx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchStatusConfirmed {
			return ErrConflict
		}

		if err := s.entryRepo.Release(dtx, m.LedgerEntryID); err != nil {
			return err
		}
		m.Status = models.MatchStatusRejected
		m.RejectionReason = reason
		m.UpdatedAt = time.Now()
		if err := s.matchRepo.Save(dtx, m); err != nil {
			return err
		}
		if err := s.matchRepo.AppendAudit(dtx, m, models.MatchStatusConfirmed, actorID, reason); err != nil {
			return err
		}
		unmatched = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unmatched, nil
}

// SuggestedMatch is a suggested match with its decoded alternates.
type SuggestedMatch struct {
	Match      models.ReconciliationMatch `json:"match"`
	Alternates []Alternate                `json:"alternates"`
}

// ListSuggested returns an entity's matches awaiting review, ambiguous first.
func (s *Service) ListSuggested(entityID uuid.UUID) ([]SuggestedMatch, error) {
	matches, err := s.matchRepo.ListSuggested(entityID)
	if err != nil {
		return nil, err
	}
	out := make([]SuggestedMatch, 0, len(matches))
	for _, m := range matches {
		sm := SuggestedMatch{Match: m}
		if len(m.Alternates) > 0 {
			if err := json.Unmarshal(m.Alternates, &sm.Alternates); err != nil {
				return nil, fmt.Errorf("decode alternates for match %s: %w", m.ID, err)
			}
		}
		out = append(out, sm)
	}
	return out, nil
}

// BulkConfirm promotes a batch's unambiguous suggested matches at or above the
// auto-confirm floor. Every promotion goes through the same compare-and-swap
// path as a single confirmation; conflicts are skipped, not retried.
func (s *Service) BulkConfirm(batchID uuid.UUID, actorID string) (int, error) {
	matches, err := s.matchRepo.ListSuggestedByBatch(batchID, s.cfg.AutoConfirmFloor)
	if err != nil {
		return 0, err
	}
	confirmed := 0
	for _, m := range matches {
		if _, err := s.ConfirmMatch(m.ID, actorID); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return confirmed, err
		}
		confirmed++
	}
	return confirmed, nil
}

// GetBatch returns a batch's progress row.
func (s *Service) GetBatch(batchID uuid.UUID) (*models.ReconciliationBatch, error) {
	var batch models.ReconciliationBatch
	if err := s.db.First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// AuditTrail exposes a match's transition history.
func (s *Service) AuditTrail(matchID uuid.UUID) ([]models.AuditEntry, error) {
	return s.matchRepo.AuditTrail(matchID)
}

func (s *Service) loadMatch(dtx *gorm.DB, matchID uuid.UUID) (*models.ReconciliationMatch, error) {
	var m models.ReconciliationMatch
	if err := dtx.First(&m, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) startBatch(entityID, batchID uuid.UUID, total int) (*models.ReconciliationBatch, error) {
	var batch models.ReconciliationBatch
	err := s.db.First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		batch = models.ReconciliationBatch{
			ID:        batchID,
			EntityID:  entityID,
			Status:    "processing",
			StartedAt: time.Now(),
			CreatedAt: time.Now(),
		}
		if err := s.db.Create(&batch).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return &batch, s.db.Model(&models.ReconciliationBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":             "processing",
			"total_transactions": total,
			"processed_count":    0,
			"started_at":         time.Now(),
		}).Error
}

func (s *Service) updateProgress(batchID uuid.UUID, summary RunSummary, processed int) {
	err := s.db.Model(&models.ReconciliationBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"processed_count": processed,
			"auto_confirmed":  summary.AutoConfirmed,
			"suggested":       summary.Suggested,
			"ambiguous":       summary.Ambiguous,
			"no_match":        summary.NoMatch,
		}).Error
	if err != nil {
		s.log.Warn("batch progress update failed", "batch_id", batchID, "error", err)
	}
}

func (s *Service) finishBatch(batch *models.ReconciliationBatch, summary RunSummary, processed int, status string) {
	now := time.Now()
	err := s.db.Model(&models.ReconciliationBatch{}).
		Where("id = ?", batch.ID).
		Updates(map[string]interface{}{
			"processed_count": processed,
			"auto_confirmed":  summary.AutoConfirmed,
			"suggested":       summary.Suggested,
			"ambiguous":       summary.Ambiguous,
			"no_match":        summary.NoMatch,
			"status":          status,
			"completed_at":    &now,
		}).Error
	if err != nil {
		s.log.Warn("batch finalize failed", "batch_id", batch.ID, "error", err)
	}
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Inputs are plain structs of scalars; marshal cannot fail.
		panic(err)
	}
	return b
}
