// internal/engine/emitter.go
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/rs/zerolog/log"
)

// OrderPlacer is the external order-placement collaborator. It returns the
// placed order's identifier.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error)
}

// TriggerStore persists a rule's cadence clock. The update must be
// conditioned on the expected prior value, not a blind overwrite: when the
// stored value no longer matches, a concurrent run already triggered this
// rule and the update reports false without writing.
type TriggerStore interface {
	UpdateLastTriggered(ctx context.Context, ruleID int64, value *time.Time, expectedPrior *time.Time) (bool, error)
}

// Emitter materializes auto_order decisions into order requests.
type Emitter struct {
	placer   OrderPlacer
	triggers TriggerStore
}

// NewEmitter builds an Emitter over the given collaborators.
func NewEmitter(placer OrderPlacer, triggers TriggerStore) *Emitter {
	return &Emitter{placer: placer, triggers: triggers}
}

// Emit places one order per qualifying decision, most urgent first.
// Ordering is urgency descending, then rule priority descending, then
// rule ID ascending so the output is deterministic. One bad order never
// blocks the rest: failures are collected per decision and the rule's
// cadence clock is left untouched so the next cycle retries.
func (em *Emitter) Emit(
	ctx context.Context,
	decisions []domain.Decision,
	rules []domain.ReplenishmentRule,
	asOf time.Time,
) ([]domain.EmittedOrder, []domain.OrderFailure) {
	rulesByID := make(map[int64]domain.ReplenishmentRule, len(rules))
	for _, r := range rules {
		rulesByID[r.ID] = r
	}

	queue := make([]domain.Decision, 0, len(decisions))
	seen := make(map[int64]bool, len(decisions))
	for _, d := range decisions {
		if d.Action != domain.ActionAutoOrder || seen[d.RuleID] {
			continue
		}
		seen[d.RuleID] = true
		queue = append(queue, d)
	}

	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Urgency.Rank() != queue[j].Urgency.Rank() {
			return queue[i].Urgency.Rank() > queue[j].Urgency.Rank()
		}
		pi := rulesByID[queue[i].RuleID].Priority.Rank()
		pj := rulesByID[queue[j].RuleID].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return queue[i].RuleID < queue[j].RuleID
	})

	emitted := make([]domain.EmittedOrder, 0, len(queue))
	failures := make([]domain.OrderFailure, 0)

	for _, d := range queue {
		rule, ok := rulesByID[d.RuleID]
		if !ok {
			failures = append(failures, domain.OrderFailure{
				RuleID:    d.RuleID,
				ProductID: d.ProductID,
				Error:     "rule not found for decision",
			})
			continue
		}
		if !rule.AutoOrderEnabled {
			// Evaluate never produces auto_order for these, but callers may
			// pass stale decision lists.
			continue
		}

		order, failure := em.emitOne(ctx, d, rule, asOf)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		if order != nil {
			emitted = append(emitted, *order)
		}
	}

	return emitted, failures
}

// emitOne claims the rule's cadence slot before placing the order, so two
// overlapping runs cannot double-order. A lost claim means the other run
// owns this cycle: no order, no failure. If placement then fails, the
// claim is released so the next cycle retries.
func (em *Emitter) emitOne(
	ctx context.Context,
	d domain.Decision,
	rule domain.ReplenishmentRule,
	asOf time.Time,
) (*domain.EmittedOrder, *domain.OrderFailure) {
	claimed, err := em.triggers.UpdateLastTriggered(ctx, rule.ID, &asOf, rule.LastTriggeredAt)
	if err != nil {
		return nil, &domain.OrderFailure{
			RuleID:    rule.ID,
			ProductID: rule.ProductID,
			Error:     "claim trigger: " + err.Error(),
		}
	}
	if !claimed {
		log.Warn().
			Int64("rule_id", rule.ID).
			Msg("rule already triggered by a concurrent run, skipping")
		return nil, nil
	}

	req := domain.OrderRequest{
		ShopID:     rule.ShopID,
		SupplierID: rule.SupplierID,
		ProductID:  rule.ProductID,
		Quantity:   d.EffectiveQuantity,
	}

	orderID, err := em.placer.PlaceOrder(ctx, req)
	if err != nil {
		if _, rbErr := em.triggers.UpdateLastTriggered(ctx, rule.ID, rule.LastTriggeredAt, &asOf); rbErr != nil {
			log.Error().Err(rbErr).Int64("rule_id", rule.ID).Msg("could not release trigger claim")
		}
		return nil, &domain.OrderFailure{
			RuleID:    rule.ID,
			ProductID: rule.ProductID,
			Error:     err.Error(),
		}
	}

	return &domain.EmittedOrder{
		OrderID:    orderID,
		RuleID:     rule.ID,
		ShopID:     rule.ShopID,
		SupplierID: rule.SupplierID,
		ProductID:  rule.ProductID,
		Quantity:   d.EffectiveQuantity,
		Urgency:    d.Urgency,
		PlacedAt:   asOf,
	}, nil
}
