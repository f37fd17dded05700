package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/bazaarops/replenish/internal/repository"
	"github.com/bazaarops/replenish/internal/season"
	"github.com/bazaarops/replenish/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRuleRepo struct {
	mu    sync.Mutex
	rules map[int64]*domain.ReplenishmentRule
}

func newMemRuleRepo(rules ...domain.ReplenishmentRule) *memRuleRepo {
	repo := &memRuleRepo{rules: make(map[int64]*domain.ReplenishmentRule)}
	for i := range rules {
		r := rules[i]
		repo.rules[r.ID] = &r
	}
	return repo
}

func (m *memRuleRepo) CreateRule(ctx context.Context, rule *domain.ReplenishmentRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rule.ID = int64(len(m.rules) + 1)
	m.rules[rule.ID] = rule
	return nil
}

func (m *memRuleRepo) UpdateRule(ctx context.Context, rule *domain.ReplenishmentRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *memRuleRepo) DeactivateRule(ctx context.Context, ruleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[ruleID]
	if !ok {
		return repository.ErrNotFound
	}
	rule.IsActive = false
	return nil
}

func (m *memRuleRepo) GetRule(ctx context.Context, ruleID int64) (*domain.ReplenishmentRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[ruleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}

func (m *memRuleRepo) ListActiveRules(ctx context.Context, shopID int64) ([]domain.ReplenishmentRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rules := make([]domain.ReplenishmentRule, 0)
	for _, r := range m.rules {
		if r.ShopID == shopID && r.IsActive {
			rules = append(rules, *r)
		}
	}
	return rules, nil
}

func (m *memRuleRepo) ListShopIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	ids := make([]int64, 0)
	for _, r := range m.rules {
		if r.IsActive && !seen[r.ShopID] {
			seen[r.ShopID] = true
			ids = append(ids, r.ShopID)
		}
	}
	return ids, nil
}

func (m *memRuleRepo) UpdateLastTriggered(ctx context.Context, ruleID int64, value, expectedPrior *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[ruleID]
	if !ok {
		return false, nil
	}
	if !timesEqual(rule.LastTriggeredAt, expectedPrior) {
		return false, nil
	}
	rule.LastTriggeredAt = value
	return true, nil
}

func (m *memRuleRepo) RaiseSeasonalFactors(ctx context.Context, shopID int64, factor float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	for _, r := range m.rules {
		if r.ShopID == shopID && r.IsActive && r.SeasonalFactor < factor {
			r.SeasonalFactor = factor
			updated++
		}
	}
	return updated, nil
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type memStockRepo struct {
	snapshots map[int64][]domain.StockSnapshot
}

func (m *memStockRepo) GetCurrentStock(ctx context.Context, productID int64) (int, error) {
	for _, snaps := range m.snapshots {
		for _, s := range snaps {
			if s.ProductID == productID {
				return s.CurrentStock, nil
			}
		}
	}
	return 0, repository.ErrNotFound
}

func (m *memStockRepo) GetStockSnapshots(ctx context.Context, shopID int64) ([]domain.StockSnapshot, error) {
	return m.snapshots[shopID], nil
}

type memPlacer struct {
	mu     sync.Mutex
	placed []domain.OrderRequest
}

func (m *memPlacer) PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, req)
	return fmt.Sprintf("po-%d", len(m.placed)), nil
}

type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memArchive) UploadObject(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memArchive) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func serviceRule(id, shopID, productID int64, minStock int) domain.ReplenishmentRule {
	return domain.ReplenishmentRule{
		ID:               id,
		ShopID:           shopID,
		ProductID:        productID,
		SupplierID:       7,
		MinStockLevel:    minStock,
		ReorderQuantity:  20,
		Frequency:        domain.FrequencyWeekly,
		Priority:         domain.PriorityMedium,
		SeasonalFactor:   1.0,
		IsActive:         true,
		AutoOrderEnabled: true,
	}
}

// quietCalendar keeps tests off the festival calendar: a date far from
// every built-in window with a neutral monthly base.
var quietDate = time.Date(2026, time.May, 5, 9, 0, 0, 0, time.UTC)

func TestRunForShopPlacesOrdersAndAdvancesCadence(t *testing.T) {
	rules := newMemRuleRepo(
		serviceRule(1, 1, 101, 10), // stock 4, below threshold
		serviceRule(2, 1, 102, 10), // stock 50, healthy
	)
	stock := &memStockRepo{snapshots: map[int64][]domain.StockSnapshot{
		1: {
			{ProductID: 101, ShopID: 1, Category: "food", CurrentStock: 4},
			{ProductID: 102, ShopID: 1, Category: "food", CurrentStock: 50},
		},
	}}
	placer := &memPlacer{}
	archive := &memArchive{}

	svc := NewReplenishmentService(rules, stock, season.NewDefaultProvider(), placer, nil, archive)

	report, err := svc.RunForShop(context.Background(), 1, quietDate)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, int64(1), report.ShopID)
	assert.Len(t, report.Decisions, 2)
	assert.Equal(t, 1, report.AlertCount())
	assert.Empty(t, report.Unresolved)
	assert.Empty(t, report.Failures)

	require.Len(t, report.Emitted, 1)
	assert.Equal(t, int64(1), report.Emitted[0].RuleID)
	assert.Equal(t, 26, report.Emitted[0].Quantity) // ceil(20 * 1.0 * 1.3) for food

	require.Len(t, placer.placed, 1)
	assert.Equal(t, int64(101), placer.placed[0].ProductID)

	// Cadence clock advanced only for the emitted rule.
	triggered, err := rules.GetRule(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, triggered.LastTriggeredAt)
	assert.Equal(t, quietDate, *triggered.LastTriggeredAt)

	healthy, err := rules.GetRule(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, healthy.LastTriggeredAt)

	// Report archived under the shop/date prefix.
	assert.Len(t, archive.objects, 1)
	for key := range archive.objects {
		assert.Contains(t, key, "shops/1/2026-05-05/")
	}
}

func TestRunForShopReportsUnresolvedRules(t *testing.T) {
	rules := newMemRuleRepo(serviceRule(1, 1, 999, 10))
	stock := &memStockRepo{snapshots: map[int64][]domain.StockSnapshot{1: {}}}

	svc := NewReplenishmentService(rules, stock, season.NewDefaultProvider(), &memPlacer{}, nil, nil)

	report, err := svc.RunForShop(context.Background(), 1, quietDate)
	require.NoError(t, err)

	assert.Empty(t, report.Decisions)
	require.Len(t, report.Unresolved, 1)
	assert.Equal(t, int64(999), report.Unresolved[0].ProductID)
}

func TestRunAllCoversEveryShop(t *testing.T) {
	rules := newMemRuleRepo(
		serviceRule(1, 1, 101, 10),
		serviceRule(2, 2, 201, 10),
		serviceRule(3, 3, 301, 10),
	)
	stock := &memStockRepo{snapshots: map[int64][]domain.StockSnapshot{
		1: {{ProductID: 101, ShopID: 1, Category: "food", CurrentStock: 2}},
		2: {{ProductID: 201, ShopID: 2, Category: "cosmetics", CurrentStock: 100}},
		3: {{ProductID: 301, ShopID: 3, Category: "household", CurrentStock: 0}},
	}}
	placer := &memPlacer{}

	svc := NewReplenishmentService(rules, stock, season.NewDefaultProvider(), placer, nil, nil)

	reports, err := svc.RunAll(context.Background(), quietDate)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	// Shops 1 and 3 are short; shop 2 is healthy.
	assert.Len(t, placer.placed, 2)
}

func TestRunForShopIdempotentWhenStockHealthy(t *testing.T) {
	rules := newMemRuleRepo(serviceRule(1, 1, 101, 10))
	stock := &memStockRepo{snapshots: map[int64][]domain.StockSnapshot{
		1: {{ProductID: 101, ShopID: 1, Category: "electronics", CurrentStock: 500}},
	}}
	placer := &memPlacer{}

	svc := NewReplenishmentService(rules, stock, season.NewDefaultProvider(), placer, nil, nil)

	for i := 0; i < 3; i++ {
		report, err := svc.RunForShop(context.Background(), 1, quietDate)
		require.NoError(t, err)
		require.Len(t, report.Decisions, 1)
		assert.Equal(t, domain.ActionNone, report.Decisions[0].Action)
		assert.Empty(t, report.Emitted)
	}

	assert.Empty(t, placer.placed)
}

func TestRunForShopSecondRunRespectsCadence(t *testing.T) {
	rules := newMemRuleRepo(serviceRule(1, 1, 101, 10))
	stock := &memStockRepo{snapshots: map[int64][]domain.StockSnapshot{
		1: {{ProductID: 101, ShopID: 1, Category: "food", CurrentStock: 3}},
	}}
	placer := &memPlacer{}

	svc := NewReplenishmentService(rules, stock, season.NewDefaultProvider(), placer, nil, nil)

	first, err := svc.RunForShop(context.Background(), 1, quietDate)
	require.NoError(t, err)
	require.Len(t, first.Emitted, 1)

	// Next day: still short, but the weekly cadence has not elapsed.
	second, err := svc.RunForShop(context.Background(), 1, quietDate.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, second.Emitted)
	require.Len(t, second.Decisions, 1)
	assert.Equal(t, domain.ActionAlert, second.Decisions[0].Action)

	assert.Len(t, placer.placed, 1)
}

func TestRefreshSeasonalFactors(t *testing.T) {
	low := serviceRule(1, 1, 101, 10)
	low.SeasonalFactor = 1.0
	manual := serviceRule(2, 1, 102, 10)
	manual.SeasonalFactor = 4.0

	rules := newMemRuleRepo(low, manual)
	svc := NewRuleService(rules, season.NewDefaultProvider())

	// Late October sits inside diwali's preparation window (factor 3.0).
	asOf := time.Date(2026, time.October, 25, 0, 0, 0, 0, time.UTC)
	updated, err := svc.RefreshSeasonalFactors(context.Background(), 1, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	refreshed, err := rules.GetRule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, refreshed.SeasonalFactor)

	kept, err := rules.GetRule(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, kept.SeasonalFactor)
}
