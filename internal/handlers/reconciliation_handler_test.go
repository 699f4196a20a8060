package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/routes"
	"bank-reconciliation-backend/internal/services/matching"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.LedgerEntry{},
		&models.BankTransaction{},
		&models.ReconciliationMatch{},
		&models.ReconciliationBatch{},
		&models.AuditEntry{},
	))

	r := gin.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	routes.RegisterRoutes(r, db, matching.DefaultConfig(), log)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImportAndRunMatching(t *testing.T) {
	r, db := newTestRouter(t)
	entityID := uuid.NewString()
	batchID := uuid.NewString()

	rec := doJSON(t, r, http.MethodPost, "/api/ledger-entries", []gin.H{
		{
			"entity_id": entityID, "entry_date": "2025-06-01",
			"amount": "1050.00", "currency": "EUR", "virtual_account": "VA123",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/api/bank-transactions", []gin.H{
		{
			"entity_id": entityID, "import_batch_id": batchID,
			"transaction_date": "2025-06-01", "amount": "1050.00",
			"currency": "EUR", "virtual_account": "VA123", "raw_reference": "REF-1",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, http.MethodPost, "/api/reconciliation/run", gin.H{
		"entity_id": entityID, "batch_id": batchID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary struct {
		AutoConfirmed int `json:"auto_confirmed"`
		NoMatch       int `json:"no_match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.AutoConfirmed)

	var count int64
	require.NoError(t, db.Model(&models.ReconciliationMatch{}).
		Where("status = ?", models.MatchStatusConfirmed).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	rec = doJSON(t, r, http.MethodGet, "/api/reconciliation/batches/"+batchID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImportRejectsBadPayload(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/bank-transactions", []gin.H{
		{
			"entity_id": uuid.NewString(), "import_batch_id": uuid.NewString(),
			"transaction_date": "01-06-2025", "amount": "10.00",
			"currency": "EUR", "raw_reference": "REF-9",
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "wrong date format")

	rec = doJSON(t, r, http.MethodPost, "/api/ledger-entries", []gin.H{
		{
			"entity_id": uuid.NewString(), "entry_date": "2025-06-01",
			"amount": "ten", "currency": "EUR",
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "non-numeric amount")
}

func TestMatchEndpoints_ErrorMapping(t *testing.T) {
	r, db := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/matches/%s/confirm", uuid.NewString()),
		gin.H{"actor_id": "reviewer-1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entityID := uuid.New()
	entry := models.LedgerEntry{
		ID: uuid.New(), EntityID: entityID, Currency: "EUR",
	}
	require.NoError(t, db.Create(&entry).Error)
	m := models.ReconciliationMatch{
		ID: uuid.New(), EntityID: entityID,
		BankTransactionID: uuid.New(), LedgerEntryID: entry.ID,
		Status: models.MatchStatusRejected,
	}
	require.NoError(t, db.Create(&m).Error)

	rec = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/matches/%s/confirm", m.ID),
		gin.H{"actor_id": "reviewer-1"})
	assert.Equal(t, http.StatusConflict, rec.Code, "terminal match maps to 409")

	rec = doJSON(t, r, http.MethodGet, "/api/reconciliation/suggested", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "entity_id is required")
}
