// internal/repository/postgres/rule_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/bazaarops/replenish/internal/repository"
)

type ruleRepository struct {
	db *DB
}

func NewRuleRepository(db *DB) repository.RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) CreateRule(ctx context.Context, rule *domain.ReplenishmentRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO replenishment_rules (
			shop_id, product_id, supplier_id, min_stock_level, reorder_quantity,
			frequency, priority, seasonal_factor, is_active, auto_order_enabled,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (shop_id, product_id, supplier_id) DO UPDATE SET
			min_stock_level = EXCLUDED.min_stock_level,
			reorder_quantity = EXCLUDED.reorder_quantity,
			frequency = EXCLUDED.frequency,
			priority = EXCLUDED.priority,
			seasonal_factor = EXCLUDED.seasonal_factor,
			is_active = EXCLUDED.is_active,
			auto_order_enabled = EXCLUDED.auto_order_enabled,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rule.ShopID, rule.ProductID, rule.SupplierID,
		rule.MinStockLevel, rule.ReorderQuantity,
		rule.Frequency, rule.Priority, rule.SeasonalFactor,
		rule.IsActive, rule.AutoOrderEnabled,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert replenishment rule: %w", err)
	}

	return nil
}

func (r *ruleRepository) UpdateRule(ctx context.Context, rule *domain.ReplenishmentRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE replenishment_rules SET
			min_stock_level = $2,
			reorder_quantity = $3,
			frequency = $4,
			priority = $5,
			seasonal_factor = $6,
			is_active = $7,
			auto_order_enabled = $8,
			updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.MinStockLevel, rule.ReorderQuantity,
		rule.Frequency, rule.Priority, rule.SeasonalFactor,
		rule.IsActive, rule.AutoOrderEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule %d: %w", rule.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ruleRepository) DeactivateRule(ctx context.Context, ruleID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE replenishment_rules SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		ruleID)
	if err != nil {
		return fmt.Errorf("failed to deactivate rule %d: %w", ruleID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deactivate result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *ruleRepository) GetRule(ctx context.Context, ruleID int64) (*domain.ReplenishmentRule, error) {
	var rule domain.ReplenishmentRule
	err := r.db.GetContext(ctx, &rule,
		`SELECT * FROM replenishment_rules WHERE id = $1`, ruleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule %d: %w", ruleID, err)
	}

	return &rule, nil
}

func (r *ruleRepository) ListActiveRules(ctx context.Context, shopID int64) ([]domain.ReplenishmentRule, error) {
	query := `
		SELECT *
		FROM replenishment_rules
		WHERE shop_id = $1 AND is_active = TRUE
		ORDER BY id
	`

	rules := make([]domain.ReplenishmentRule, 0)
	if err := r.db.SelectContext(ctx, &rules, query, shopID); err != nil {
		return nil, fmt.Errorf("failed to list active rules for shop %d: %w", shopID, err)
	}

	return rules, nil
}

func (r *ruleRepository) ListShopIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT shop_id FROM replenishment_rules WHERE is_active = TRUE ORDER BY shop_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop ids: %w", err)
	}

	return ids, nil
}

// UpdateLastTriggered writes the cadence clock only when the stored value
// still equals expectedPrior. IS NOT DISTINCT FROM makes the comparison
// NULL-safe for never-triggered rules.
func (r *ruleRepository) UpdateLastTriggered(ctx context.Context, ruleID int64, value *time.Time, expectedPrior *time.Time) (bool, error) {
	query := `
		UPDATE replenishment_rules
		SET last_triggered_at = $2, updated_at = NOW()
		WHERE id = $1 AND last_triggered_at IS NOT DISTINCT FROM $3
	`

	res, err := r.db.ExecContext(ctx, query, ruleID, value, expectedPrior)
	if err != nil {
		return false, fmt.Errorf("failed to update last_triggered_at for rule %d: %w", ruleID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read trigger update result: %w", err)
	}

	return affected == 1, nil
}

func (r *ruleRepository) RaiseSeasonalFactors(ctx context.Context, shopID int64, factor float64) (int64, error) {
	if factor < domain.SeasonalFactorMin || factor > domain.SeasonalFactorMax {
		return 0, fmt.Errorf("seasonal factor %.2f outside [%.1f, %.1f]",
			factor, domain.SeasonalFactorMin, domain.SeasonalFactorMax)
	}

	query := `
		UPDATE replenishment_rules
		SET seasonal_factor = $2, updated_at = NOW()
		WHERE shop_id = $1 AND is_active = TRUE AND seasonal_factor < $2
	`

	res, err := r.db.ExecContext(ctx, query, shopID, factor)
	if err != nil {
		return 0, fmt.Errorf("failed to raise seasonal factors for shop %d: %w", shopID, err)
	}

	return res.RowsAffected()
}
