package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bazaarops/replenish/internal/config"
	"github.com/bazaarops/replenish/internal/domain"
	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "replenish:report"

// ReportCache holds the latest evaluation report per shop so alert UIs can
// fetch it without re-running the engine.
type ReportCache interface {
	GetReport(ctx context.Context, shopID int64) (*domain.EvaluationReport, bool, error)
	SetReport(ctx context.Context, report *domain.EvaluationReport) error
	InvalidateReport(ctx context.Context, shopID int64) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetReport(ctx context.Context, shopID int64) (*domain.EvaluationReport, bool, error) {
	payload, err := c.client.Get(ctx, reportKey(shopID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.EvaluationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode evaluation report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, report *domain.EvaluationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode evaluation report cache: %w", err)
	}

	if err := c.client.Set(ctx, reportKey(report.ShopID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateReport(ctx context.Context, shopID int64) error {
	return c.client.Del(ctx, reportKey(shopID)).Err()
}

func (n *noopReportCache) GetReport(ctx context.Context, shopID int64) (*domain.EvaluationReport, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, report *domain.EvaluationReport) error {
	return nil
}

func (n *noopReportCache) InvalidateReport(ctx context.Context, shopID int64) error {
	return nil
}

func reportKey(shopID int64) string {
	return fmt.Sprintf("%s:%d", reportKeyPrefix, shopID)
}
