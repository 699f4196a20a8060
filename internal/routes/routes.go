package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	handler "bank-reconciliation-backend/internal/handlers"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/matching"
	service "bank-reconciliation-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg matching.Config, log *slog.Logger) {
	txRepo := repository.NewBankTransactionRepository(db)
	entryRepo := repository.NewLedgerEntryRepository(db)
	matchRepo := repository.NewMatchRepository(db)

	reconService := service.NewService(db, txRepo, entryRepo, matchRepo, cfg, log)
	reconHandler := handler.NewReconciliationHandler(reconService, txRepo, entryRepo, log)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Import boundary: already-normalized records only.
	api.POST("/bank-transactions", reconHandler.ImportBankTransactions)
	api.POST("/ledger-entries", reconHandler.ImportLedgerEntries)

	recon := api.Group("/reconciliation")
	recon.POST("/run", reconHandler.RunMatching)
	recon.GET("/batches/:batchId", reconHandler.GetBatchProgress)
	recon.POST("/batches/:batchId/bulk-confirm", reconHandler.BulkConfirm)
	recon.GET("/suggested", reconHandler.ListSuggested)

	matches := api.Group("/matches")
	matches.POST("/:id/confirm", reconHandler.ConfirmMatch)
	matches.POST("/:id/reject", reconHandler.RejectMatch)
	matches.POST("/:id/unmatch", reconHandler.Unmatch)
	matches.GET("/:id/audit", reconHandler.GetAuditTrail)
}
