// internal/repository/repositories.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// RuleRepository is the replenishment rule store. Rule validation happens
// here at the write boundary; readers get validated rules back.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule *domain.ReplenishmentRule) error
	UpdateRule(ctx context.Context, rule *domain.ReplenishmentRule) error
	// DeactivateRule soft-removes a rule. Rules are never hard-deleted
	// while historical orders reference them.
	DeactivateRule(ctx context.Context, ruleID int64) error
	GetRule(ctx context.Context, ruleID int64) (*domain.ReplenishmentRule, error)
	ListActiveRules(ctx context.Context, shopID int64) ([]domain.ReplenishmentRule, error)
	ListShopIDs(ctx context.Context) ([]int64, error)
	// UpdateLastTriggered advances (or resets) a rule's cadence clock only
	// when the stored value still matches expectedPrior. Returns false
	// without writing when it does not.
	UpdateLastTriggered(ctx context.Context, ruleID int64, value *time.Time, expectedPrior *time.Time) (bool, error)
	// RaiseSeasonalFactors lifts every active rule of a shop whose stored
	// factor is below the given one. Manually-set higher factors are kept.
	RaiseSeasonalFactors(ctx context.Context, shopID int64, factor float64) (int64, error)
}

// StockRepository is the read-only stock snapshot source.
type StockRepository interface {
	GetCurrentStock(ctx context.Context, productID int64) (int, error)
	GetStockSnapshots(ctx context.Context, shopID int64) ([]domain.StockSnapshot, error)
}
