// internal/engine/engine.go
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/rs/zerolog/log"
)

// StockLookup resolves a product's current on-hand quantity. The second
// return is false when the product is unknown to the stock source.
type StockLookup func(productID int64) (int, bool)

// CategoryLookup resolves a product's category string.
type CategoryLookup func(productID int64) (string, bool)

// SeasonalSource is the slice of the calendar provider the engine needs.
type SeasonalSource interface {
	CurrentSeasonalFactor(asOf time.Time) float64
}

// Engine decides, per rule, whether stock needs replenishing and how
// urgently. It is a pure synchronous computation over in-memory inputs;
// the caller owns all I/O.
type Engine struct {
	calendar SeasonalSource
}

// New builds an Engine. A nil calendar disables seasonal enrichment: the
// engine then runs on per-rule factors alone.
func New(calendar SeasonalSource) *Engine {
	return &Engine{calendar: calendar}
}

// Evaluate computes a Decision for every active rule. Rules whose product
// is missing from the stock source are skipped and reported in the
// unresolved side list rather than failing the batch. Decisions with
// action none are still returned so the full evaluation is auditable.
func (e *Engine) Evaluate(
	rules []domain.ReplenishmentRule,
	stock StockLookup,
	category CategoryLookup,
	asOf time.Time,
) ([]domain.Decision, []domain.UnresolvedRule) {
	calendarFactor := e.calendarFactor(asOf)

	decisions := make([]domain.Decision, 0, len(rules))
	unresolved := make([]domain.UnresolvedRule, 0)

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		currentStock, ok := stock(rule.ProductID)
		if !ok {
			unresolved = append(unresolved, domain.UnresolvedRule{
				RuleID:    rule.ID,
				ProductID: rule.ProductID,
				Reason:    "product missing from stock snapshot",
			})
			continue
		}

		cat := ""
		if category != nil {
			cat, _ = category(rule.ProductID)
		}

		decisions = append(decisions, e.decide(rule, currentStock, cat, calendarFactor, asOf))
	}

	return decisions, unresolved
}

func (e *Engine) decide(
	rule domain.ReplenishmentRule,
	currentStock int,
	category string,
	calendarFactor float64,
	asOf time.Time,
) domain.Decision {
	// A stale per-rule factor must never undershoot what the calendar
	// currently demands; a manually-set higher factor is respected.
	seasonal := domain.ClampSeasonalFactor(math.Max(rule.SeasonalFactor, calendarFactor))
	catMult := CategoryMultiplier(category)

	threshold := int(math.Ceil(float64(rule.MinStockLevel) * seasonal))
	quantity := int(math.Ceil(float64(rule.ReorderQuantity) * seasonal * catMult))

	action, reason := e.classify(rule, currentStock, threshold, asOf)

	ratio := float64(currentStock) / math.Max(float64(threshold), 1)

	return domain.Decision{
		RuleID:             rule.ID,
		ProductID:          rule.ProductID,
		EffectiveThreshold: threshold,
		EffectiveQuantity:  quantity,
		CurrentStock:       currentStock,
		Action:             action,
		Urgency:            domain.UrgencyForRatio(ratio),
		Reason:             reason,
	}
}

func (e *Engine) classify(
	rule domain.ReplenishmentRule,
	currentStock, threshold int,
	asOf time.Time,
) (domain.Action, string) {
	if currentStock > threshold {
		return domain.ActionNone, "stock above effective threshold"
	}

	if !rule.AutoOrderEnabled {
		return domain.ActionAlert, "stock low but auto-order disabled"
	}

	if rule.LastTriggeredAt != nil {
		elapsed := asOf.Sub(*rule.LastTriggeredAt)
		if elapsed < rule.Frequency.CadenceInterval() {
			return domain.ActionAlert, fmt.Sprintf(
				"stock low but cadence not elapsed (last order %s ago)",
				elapsed.Round(time.Minute))
		}
	}

	return domain.ActionAutoOrder, "stock at or below effective threshold"
}

// calendarFactor shields the evaluation from a missing or misbehaving
// calendar: seasonal enrichment is an enhancement, not a correctness
// requirement, so any trouble collapses to the neutral factor.
func (e *Engine) calendarFactor(asOf time.Time) (factor float64) {
	if e.calendar == nil {
		return 1.0
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("calendar provider failed, using neutral factor")
			factor = 1.0
		}
	}()

	return domain.ClampSeasonalFactor(e.calendar.CurrentSeasonalFactor(asOf))
}
