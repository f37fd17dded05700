// cmd/scheduler/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bazaarops/replenish/internal/cache"
	"github.com/bazaarops/replenish/internal/config"
	"github.com/bazaarops/replenish/internal/repository/postgres"
	"github.com/bazaarops/replenish/internal/season"
	"github.com/bazaarops/replenish/internal/service"
	"github.com/bazaarops/replenish/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// The scheduler runs the replenishment cycle for every shop on a fixed
// interval and exposes a manual trigger for operators.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel("info")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ruleRepo := postgres.NewRuleRepository(db)
	stockRepo := postgres.NewStockRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, continuing without")
		reportCache = cache.NewNoopReportCache()
	}

	calendar := season.NewDefaultProvider()
	replService := service.NewReplenishmentService(ruleRepo, stockRepo, calendar, orderRepo, reportCache, nil)

	interval := time.Duration(cfg.Engine.SchedulerIntervalMin) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	go runLoop(replService, interval)

	r := mux.NewRouter()

	r.HandleFunc("/run", func(w http.ResponseWriter, req *http.Request) {
		reports, err := replService.RunAll(req.Context(), time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"shops_evaluated": len(reports),
		})
	}).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Dur("interval", interval).Msg("Scheduler starting")
	log.Fatal(http.ListenAndServe(addr, r))
}

func runLoop(replService *service.ReplenishmentService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		reports, err := replService.RunAll(ctx, time.Now())
		cancel()
		if err != nil {
			logger.Log.Error().Err(err).Msg("scheduled replenishment run failed")
			continue
		}
		logger.Log.Info().Int("shops", len(reports)).Msg("scheduled replenishment run completed")
	}
}
