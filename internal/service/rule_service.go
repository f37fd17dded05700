// internal/service/rule_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/bazaarops/replenish/internal/repository"
	"github.com/bazaarops/replenish/internal/season"
	"github.com/rs/zerolog/log"
)

// RuleService manages replenishment rule configuration for shop owners.
type RuleService struct {
	rules    repository.RuleRepository
	calendar *season.Provider
}

func NewRuleService(rules repository.RuleRepository, calendar *season.Provider) *RuleService {
	return &RuleService{rules: rules, calendar: calendar}
}

func (s *RuleService) CreateRule(ctx context.Context, rule *domain.ReplenishmentRule) error {
	if rule.SeasonalFactor == 0 {
		rule.SeasonalFactor = 1.0
	}
	if rule.Frequency == "" {
		rule.Frequency = domain.FrequencyWeekly
	}
	if rule.Priority == "" {
		rule.Priority = domain.PriorityMedium
	}

	return s.rules.CreateRule(ctx, rule)
}

func (s *RuleService) UpdateRule(ctx context.Context, rule *domain.ReplenishmentRule) error {
	return s.rules.UpdateRule(ctx, rule)
}

func (s *RuleService) DeactivateRule(ctx context.Context, ruleID int64) error {
	return s.rules.DeactivateRule(ctx, ruleID)
}

func (s *RuleService) GetRule(ctx context.Context, ruleID int64) (*domain.ReplenishmentRule, error) {
	return s.rules.GetRule(ctx, ruleID)
}

func (s *RuleService) ListActiveRules(ctx context.Context, shopID int64) ([]domain.ReplenishmentRule, error) {
	return s.rules.ListActiveRules(ctx, shopID)
}

// RefreshSeasonalFactors lifts a shop's stored rule factors to the
// calendar's current demand level. Rules whose owners set a higher factor
// by hand are left alone.
func (s *RuleService) RefreshSeasonalFactors(ctx context.Context, shopID int64, asOf time.Time) (int64, error) {
	if s.calendar == nil {
		return 0, fmt.Errorf("no calendar provider configured")
	}

	factor := domain.ClampSeasonalFactor(s.calendar.CurrentSeasonalFactor(asOf))
	updated, err := s.rules.RaiseSeasonalFactors(ctx, shopID, factor)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh seasonal factors for shop %d: %w", shopID, err)
	}

	log.Info().
		Int64("shop_id", shopID).
		Float64("factor", factor).
		Int64("rules_updated", updated).
		Msg("seasonal factors refreshed")

	return updated, nil
}
