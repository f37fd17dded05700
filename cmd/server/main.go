// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bazaarops/replenish/internal/api"
	"github.com/bazaarops/replenish/internal/cache"
	"github.com/bazaarops/replenish/internal/config"
	"github.com/bazaarops/replenish/internal/repository/postgres"
	"github.com/bazaarops/replenish/internal/season"
	"github.com/bazaarops/replenish/internal/service"
	"github.com/bazaarops/replenish/internal/storage"
	"github.com/bazaarops/replenish/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize repositories
	ruleRepo := postgres.NewRuleRepository(db)
	stockRepo := postgres.NewStockRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// Initialize report cache (noop when disabled)
	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, continuing without")
		reportCache = cache.NewNoopReportCache()
	}

	// Initialize report archive (optional)
	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archiveClient, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("report archive unavailable, continuing without")
		} else {
			archive = archiveClient
		}
	}

	// Initialize services
	calendar := season.NewDefaultProvider()
	ruleService := service.NewRuleService(ruleRepo, calendar)
	replService := service.NewReplenishmentService(ruleRepo, stockRepo, calendar, orderRepo, reportCache, archive)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		RuleService:          ruleService,
		ReplenishmentService: replService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
