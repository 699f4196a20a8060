package config

import (
	"fmt"
	"log/slog"
	"os"

	"bank-reconciliation-backend/internal/services/matching"

	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the postgres connection from DATABASE_URL.
func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=reconciliation port=5432 sslmode=disable"
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// LoadMatching reads the matching config file named by MATCHING_CONFIG,
// falling back to compiled-in defaults when unset. Values present in the file
// override defaults; omitted values keep them.
func LoadMatching() (matching.Config, error) {
	cfg := matching.DefaultConfig()
	path := os.Getenv("MATCHING_CONFIG")
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read matching config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse matching config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger, level from LOG_LEVEL.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// ServerAddr returns the listen address, PORT overriding the default.
func ServerAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
