package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"
	service "bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReconciliationHandler struct {
	service   *service.Service
	txRepo    *repository.BankTransactionRepository
	entryRepo *repository.LedgerEntryRepository
	log       *slog.Logger
}

func NewReconciliationHandler(
	s *service.Service,
	txRepo *repository.BankTransactionRepository,
	entryRepo *repository.LedgerEntryRepository,
	log *slog.Logger,
) *ReconciliationHandler {
	return &ReconciliationHandler{service: s, txRepo: txRepo, entryRepo: entryRepo, log: log}
}

const dateLayout = "2006-01-02"

type bankTransactionPayload struct {
	EntityID         string `json:"entity_id" binding:"required"`
	AccountID        string `json:"account_id"`
	ImportBatchID    string `json:"import_batch_id" binding:"required"`
	TransactionDate  string `json:"transaction_date" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
	Currency         string `json:"currency" binding:"required"`
	CounterpartyName string `json:"counterparty_name"`
	VirtualAccount   string `json:"virtual_account"`
	RawReference     string `json:"raw_reference" binding:"required"`
}

// ImportBankTransactions accepts already-normalized statement lines. Rows with
// a previously seen raw reference are silently skipped.
func (h *ReconciliationHandler) ImportBankTransactions(c *gin.Context) {
	var payload []bankTransactionPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	txs := make([]models.BankTransaction, 0, len(payload))
	for i, p := range payload {
		entityID, err := uuid.Parse(p.EntityID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_id", "row": i})
			return
		}
		batchID, err := uuid.Parse(p.ImportBatchID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import_batch_id", "row": i})
			return
		}
		date, err := time.Parse(dateLayout, p.TransactionDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction_date, expected yyyy-mm-dd", "row": i})
			return
		}
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount", "row": i})
			return
		}

		txs = append(txs, models.BankTransaction{
			ID:               uuid.New(),
			EntityID:         entityID,
			AccountID:        p.AccountID,
			ImportBatchID:    batchID,
			TransactionDate:  date,
			Amount:           amount,
			Currency:         p.Currency,
			CounterpartyName: p.CounterpartyName,
			VirtualAccount:   p.VirtualAccount,
			RawReference:     p.RawReference,
			CreatedAt:        time.Now(),
		})
	}

	if err := h.txRepo.CreateAll(txs); err != nil {
		h.log.Error("bank transaction import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(txs)})
}

type ledgerEntryPayload struct {
	EntityID         string `json:"entity_id" binding:"required"`
	EntryDate        string `json:"entry_date" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
	Currency         string `json:"currency" binding:"required"`
	CounterpartyName string `json:"counterparty_name"`
	VirtualAccount   string `json:"virtual_account"`
}

func (h *ReconciliationHandler) ImportLedgerEntries(c *gin.Context) {
	var payload []ledgerEntryPayload
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	entries := make([]models.LedgerEntry, 0, len(payload))
	for i, p := range payload {
		entityID, err := uuid.Parse(p.EntityID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_id", "row": i})
			return
		}
		date, err := time.Parse(dateLayout, p.EntryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry_date, expected yyyy-mm-dd", "row": i})
			return
		}
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount", "row": i})
			return
		}

		entries = append(entries, models.LedgerEntry{
			ID:               uuid.New(),
			EntityID:         entityID,
			EntryDate:        date,
			Amount:           amount,
			Currency:         p.Currency,
			CounterpartyName: p.CounterpartyName,
			VirtualAccount:   p.VirtualAccount,
			CreatedAt:        time.Now(),
		})
	}

	if err := h.entryRepo.CreateAll(entries); err != nil {
		h.log.Error("ledger entry import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(entries)})
}

// RunMatching triggers a matching run over one import batch.
func (h *ReconciliationHandler) RunMatching(c *gin.Context) {
	var payload struct {
		EntityID string `json:"entity_id" binding:"required"`
		BatchID  string `json:"batch_id" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	entityID, err := uuid.Parse(payload.EntityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_id"})
		return
	}
	batchID, err := uuid.Parse(payload.BatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch_id"})
		return
	}

	summary, err := h.service.RunMatching(c.Request.Context(), entityID, batchID)
	if err != nil {
		h.log.Error("matching run failed", "batch_id", batchID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "matching run failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReconciliationHandler) GetBatchProgress(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	batch, err := h.service.GetBatch(batchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *ReconciliationHandler) BulkConfirm(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	var payload struct {
		ActorID string `json:"actor_id" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	count, err := h.service.BulkConfirm(batchID, payload.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches_confirmed": count})
}

func (h *ReconciliationHandler) ListSuggested(c *gin.Context) {
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_id required"})
		return
	}
	matches, err := h.service.ListSuggested(entityID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": matches})
}

func (h *ReconciliationHandler) ConfirmMatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	var payload struct {
		ActorID string `json:"actor_id" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	m, err := h.service.ConfirmMatch(matchID, payload.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match confirmed", "match": m})
}

func (h *ReconciliationHandler) RejectMatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	var payload struct {
		ActorID string `json:"actor_id" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	m, err := h.service.RejectMatch(matchID, payload.ActorID, payload.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match rejected", "match": m})
}

func (h *ReconciliationHandler) Unmatch(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	var payload struct {
		ActorID string `json:"actor_id" binding:"required"`
		Reason  string `json:"reason" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	m, err := h.service.Unmatch(matchID, payload.ActorID, payload.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match unmatched", "match": m})
}

func (h *ReconciliationHandler) GetAuditTrail(c *gin.Context) {
	matchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match ID"})
		return
	}
	trail, err := h.service.AuditTrail(matchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": trail})
}

func (h *ReconciliationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting match state, refresh and retry"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.log.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
