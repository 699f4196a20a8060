package main

import (
	"time"

	"bank-reconciliation-backend/internal/config"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log := config.NewLogger()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on system env")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Error("database init failed", "error", err)
		return
	}

	if err := db.AutoMigrate(
		&models.LedgerEntry{},
		&models.BankTransaction{},
		&models.ReconciliationMatch{},
		&models.ReconciliationBatch{},
		&models.AuditEntry{},
	); err != nil {
		log.Error("migration failed", "error", err)
		return
	}

	cfg, err := config.LoadMatching()
	if err != nil {
		log.Error("matching config load failed", "error", err)
		return
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg, log)

	addr := config.ServerAddr()
	log.Info("server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Error("server stopped", "error", err)
	}
}
