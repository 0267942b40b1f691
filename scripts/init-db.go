package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"kitchen_console/internal/config"
	"kitchen_console/internal/database"
	"kitchen_console/internal/migrations"
	"kitchen_console/internal/repository"
	"kitchen_console/internal/services"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger.Info("initializing database")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := migrations.RunMigrations(db, logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Demo receipts go straight to the database; the cache expires on its own.
	kitchenService := services.NewKitchenService(repository.NewReceiptRepository(db), nil, 0, logger)
	if err := migrations.SeedDemoData(context.Background(), kitchenService, logger); err != nil {
		log.Fatalf("seed demo data: %v", err)
	}

	logger.Info("database initialization completed")
}
