// internal/service/replenishment_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bazaarops/replenish/internal/cache"
	"github.com/bazaarops/replenish/internal/domain"
	"github.com/bazaarops/replenish/internal/engine"
	"github.com/bazaarops/replenish/internal/repository"
	"github.com/bazaarops/replenish/internal/season"
	"github.com/bazaarops/replenish/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentShops bounds the fan-out of RunAll. Shops are independent,
// so the limit only protects the database pool.
const maxConcurrentShops = 8

// ReplenishmentService runs the evaluate+emit cycle for shops and exposes
// the resulting reports.
type ReplenishmentService struct {
	rules    repository.RuleRepository
	stock    repository.StockRepository
	calendar *season.Provider
	engine   *engine.Engine
	emitter  *engine.Emitter
	cache    cache.ReportCache
	archive  storage.ObjectStorage
}

// NewReplenishmentService wires the engine and emitter over the given
// collaborators. cacheImpl may be nil (noop) and archive may be nil
// (archiving disabled).
func NewReplenishmentService(
	rules repository.RuleRepository,
	stock repository.StockRepository,
	calendar *season.Provider,
	placer engine.OrderPlacer,
	cacheImpl cache.ReportCache,
	archive storage.ObjectStorage,
) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}

	return &ReplenishmentService{
		rules:    rules,
		stock:    stock,
		calendar: calendar,
		engine:   engine.New(calendar),
		emitter:  engine.NewEmitter(placer, rules),
		cache:    cacheImpl,
		archive:  archive,
	}
}

// RunForShop executes one full replenishment cycle for a shop: load active
// rules and the stock snapshot, evaluate every rule, emit auto-orders, and
// publish the report to the cache and archive. Cache and archive trouble
// is logged, never fatal to the run.
func (s *ReplenishmentService) RunForShop(ctx context.Context, shopID int64, asOf time.Time) (*domain.EvaluationReport, error) {
	rules, err := s.rules.ListActiveRules(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for shop %d: %w", shopID, err)
	}

	snapshots, err := s.stock.GetStockSnapshots(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock snapshot for shop %d: %w", shopID, err)
	}

	stockByProduct := make(map[int64]int, len(snapshots))
	categoryByProduct := make(map[int64]string, len(snapshots))
	for _, snap := range snapshots {
		stockByProduct[snap.ProductID] = snap.CurrentStock
		categoryByProduct[snap.ProductID] = snap.Category
	}

	decisions, unresolved := s.engine.Evaluate(rules,
		func(productID int64) (int, bool) {
			stock, ok := stockByProduct[productID]
			return stock, ok
		},
		func(productID int64) (string, bool) {
			category, ok := categoryByProduct[productID]
			return category, ok
		},
		asOf,
	)

	emitted, failures := s.emitter.Emit(ctx, decisions, rules, asOf)

	report := &domain.EvaluationReport{
		RunID:          uuid.NewString(),
		ShopID:         shopID,
		EvaluatedAt:    asOf,
		SeasonalFactor: s.seasonalFactor(asOf),
		Decisions:      decisions,
		Emitted:        emitted,
		Failures:       failures,
		Unresolved:     unresolved,
	}
	if s.calendar != nil {
		if window, ok := s.calendar.ActiveWindow(asOf); ok {
			report.ActiveFestival = window.Name
		}
	}

	if err := s.cache.SetReport(ctx, report); err != nil {
		log.Warn().Err(err).Int64("shop_id", shopID).Msg("replenishment: cache set report failed")
	}
	s.archiveReport(ctx, report)

	log.Info().
		Int64("shop_id", shopID).
		Str("run_id", report.RunID).
		Int("rules", len(rules)).
		Int("alerts", report.AlertCount()).
		Int("orders", len(emitted)).
		Int("failures", len(failures)).
		Msg("replenishment cycle completed")

	return report, nil
}

// RunAll evaluates every shop with active rules. Shops run in parallel:
// each shop's rule set is independent, so failures are isolated per shop
// and do not stop the others.
func (s *ReplenishmentService) RunAll(ctx context.Context, asOf time.Time) ([]*domain.EvaluationReport, error) {
	shopIDs, err := s.rules.ListShopIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	var (
		mu      sync.Mutex
		reports = make([]*domain.EvaluationReport, 0, len(shopIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentShops)

	for _, shopID := range shopIDs {
		shopID := shopID
		g.Go(func() error {
			report, err := s.RunForShop(gctx, shopID, asOf)
			if err != nil {
				log.Error().Err(err).Int64("shop_id", shopID).Msg("replenishment run failed for shop")
				return nil
			}

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}

	return reports, nil
}

// LatestReport returns the most recent cached report for a shop.
func (s *ReplenishmentService) LatestReport(ctx context.Context, shopID int64) (*domain.EvaluationReport, error) {
	report, ok, err := s.cache.GetReport(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached report for shop %d: %w", shopID, err)
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	return report, nil
}

// UpcomingFestivals lists festival windows starting within horizonDays.
func (s *ReplenishmentService) UpcomingFestivals(asOf time.Time, horizonDays int) []domain.FestivalWindow {
	if s.calendar == nil {
		return nil
	}

	return s.calendar.UpcomingWindows(asOf, horizonDays)
}

func (s *ReplenishmentService) seasonalFactor(asOf time.Time) float64 {
	if s.calendar == nil {
		return 1.0
	}

	return s.calendar.CurrentSeasonalFactor(asOf)
}

func (s *ReplenishmentService) archiveReport(ctx context.Context, report *domain.EvaluationReport) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		log.Warn().Err(err).Str("run_id", report.RunID).Msg("replenishment: encode report for archive failed")
		return
	}

	key := fmt.Sprintf("shops/%d/%s/%s.json",
		report.ShopID, report.EvaluatedAt.UTC().Format("2006-01-02"), report.RunID)
	if err := s.archive.UploadObject(ctx, key, payload); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("replenishment: archive report failed")
	}
}
