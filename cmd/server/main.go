package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchen_console/internal/config"
	"kitchen_console/internal/database"
	"kitchen_console/internal/handlers"
	"kitchen_console/internal/migrations"
	"kitchen_console/internal/redis"
	"kitchen_console/internal/repository"
	"kitchen_console/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}

	if err := migrations.RunMigrations(db, logger); err != nil {
		return err
	}

	// Redis is optional: without it every read goes to the database.
	var cache services.Cache
	redisClient, err := redis.Initialize(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, running without cache", "error", err)
	} else {
		defer redisClient.Close()
		cache = redisClient
	}

	// Initialize repositories and services
	receiptRepo := repository.NewReceiptRepository(db)
	kitchenService := services.NewKitchenService(receiptRepo, cache, cfg.CacheDuration(), logger)

	if cfg.SeedDemoData {
		if err := migrations.SeedDemoData(ctx, kitchenService, logger); err != nil {
			logger.Warn("failed to seed demo data", "error", err)
		}
	}

	kitchenHandler := handlers.NewKitchenHandler(kitchenService, func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})

	// Setup routes
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(logger))
	kitchenHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
