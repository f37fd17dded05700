package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlacer struct {
	placed  []domain.OrderRequest
	failFor map[int64]error // productID -> error
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	if err, ok := f.failFor[req.ProductID]; ok {
		return "", err
	}
	f.placed = append(f.placed, req)
	return fmt.Sprintf("order-%d", len(f.placed)), nil
}

type fakeTriggerStore struct {
	values   map[int64]*time.Time
	rejected map[int64]bool // rules whose claim is lost to a concurrent run
	updates  []int64
}

func newFakeTriggerStore() *fakeTriggerStore {
	return &fakeTriggerStore{
		values:   make(map[int64]*time.Time),
		rejected: make(map[int64]bool),
	}
}

func (f *fakeTriggerStore) UpdateLastTriggered(ctx context.Context, ruleID int64, value, expectedPrior *time.Time) (bool, error) {
	if f.rejected[ruleID] {
		return false, nil
	}
	f.values[ruleID] = value
	f.updates = append(f.updates, ruleID)
	return true, nil
}

func autoOrderDecision(ruleID, productID int64, urgency domain.Urgency) domain.Decision {
	return domain.Decision{
		RuleID:            ruleID,
		ProductID:         productID,
		EffectiveQuantity: 25,
		Action:            domain.ActionAutoOrder,
		Urgency:           urgency,
	}
}

func emitterRule(id, productID int64, priority domain.Priority) domain.ReplenishmentRule {
	return domain.ReplenishmentRule{
		ID:               id,
		ShopID:           1,
		ProductID:        productID,
		SupplierID:       10,
		MinStockLevel:    10,
		ReorderQuantity:  25,
		Frequency:        domain.FrequencyWeekly,
		Priority:         priority,
		SeasonalFactor:   1.0,
		IsActive:         true,
		AutoOrderEnabled: true,
	}
}

func TestEmitOrdersMostUrgentFirst(t *testing.T) {
	placer := &fakePlacer{}
	em := NewEmitter(placer, newFakeTriggerStore())

	decisions := []domain.Decision{
		autoOrderDecision(1, 101, domain.UrgencyMedium),
		autoOrderDecision(2, 102, domain.UrgencyCritical),
		autoOrderDecision(3, 103, domain.UrgencyHigh),
	}
	rules := []domain.ReplenishmentRule{
		emitterRule(1, 101, domain.PriorityHigh),
		emitterRule(2, 102, domain.PriorityLow),
		emitterRule(3, 103, domain.PriorityMedium),
	}

	emitted, failures := em.Emit(context.Background(), decisions, rules, time.Now())

	require.Empty(t, failures)
	require.Len(t, emitted, 3)
	assert.Equal(t, int64(2), emitted[0].RuleID) // critical before high before medium
	assert.Equal(t, int64(3), emitted[1].RuleID)
	assert.Equal(t, int64(1), emitted[2].RuleID)
}

func TestEmitBreaksTiesByPriorityThenRuleID(t *testing.T) {
	placer := &fakePlacer{}
	em := NewEmitter(placer, newFakeTriggerStore())

	decisions := []domain.Decision{
		autoOrderDecision(5, 105, domain.UrgencyHigh),
		autoOrderDecision(4, 104, domain.UrgencyHigh),
		autoOrderDecision(6, 106, domain.UrgencyHigh),
	}
	rules := []domain.ReplenishmentRule{
		emitterRule(4, 104, domain.PriorityLow),
		emitterRule(5, 105, domain.PriorityCritical),
		emitterRule(6, 106, domain.PriorityLow),
	}

	emitted, _ := em.Emit(context.Background(), decisions, rules, time.Now())

	require.Len(t, emitted, 3)
	assert.Equal(t, int64(5), emitted[0].RuleID) // highest priority
	assert.Equal(t, int64(4), emitted[1].RuleID) // then rule id ascending
	assert.Equal(t, int64(6), emitted[2].RuleID)
}

func TestEmitSkipsNonAutoOrderDecisions(t *testing.T) {
	placer := &fakePlacer{}
	em := NewEmitter(placer, newFakeTriggerStore())

	decisions := []domain.Decision{
		{RuleID: 1, ProductID: 101, Action: domain.ActionNone},
		{RuleID: 2, ProductID: 102, Action: domain.ActionAlert, Urgency: domain.UrgencyCritical},
	}
	rules := []domain.ReplenishmentRule{
		emitterRule(1, 101, domain.PriorityHigh),
		emitterRule(2, 102, domain.PriorityHigh),
	}

	emitted, failures := em.Emit(context.Background(), decisions, rules, time.Now())

	assert.Empty(t, emitted)
	assert.Empty(t, failures)
	assert.Empty(t, placer.placed)
}

func TestEmitDedupesByRuleID(t *testing.T) {
	placer := &fakePlacer{}
	em := NewEmitter(placer, newFakeTriggerStore())

	decisions := []domain.Decision{
		autoOrderDecision(1, 101, domain.UrgencyHigh),
		autoOrderDecision(1, 101, domain.UrgencyCritical), // overlapping caller input
	}
	rules := []domain.ReplenishmentRule{emitterRule(1, 101, domain.PriorityHigh)}

	emitted, failures := em.Emit(context.Background(), decisions, rules, time.Now())

	require.Empty(t, failures)
	assert.Len(t, emitted, 1)
	assert.Len(t, placer.placed, 1)
}

func TestEmitPartialFailureIsolation(t *testing.T) {
	placer := &fakePlacer{
		failFor: map[int64]error{102: errors.New("supplier api timeout")},
	}
	triggers := newFakeTriggerStore()
	em := NewEmitter(placer, triggers)
	asOf := time.Now()

	decisions := []domain.Decision{
		autoOrderDecision(1, 101, domain.UrgencyCritical),
		autoOrderDecision(2, 102, domain.UrgencyHigh),
		autoOrderDecision(3, 103, domain.UrgencyMedium),
	}
	rules := []domain.ReplenishmentRule{
		emitterRule(1, 101, domain.PriorityMedium),
		emitterRule(2, 102, domain.PriorityMedium),
		emitterRule(3, 103, domain.PriorityMedium),
	}

	emitted, failures := em.Emit(context.Background(), decisions, rules, asOf)

	require.Len(t, emitted, 2)
	assert.Equal(t, int64(1), emitted[0].RuleID)
	assert.Equal(t, int64(3), emitted[1].RuleID)

	require.Len(t, failures, 1)
	assert.Equal(t, int64(2), failures[0].RuleID)
	assert.Contains(t, failures[0].Error, "supplier api timeout")

	// Failed rule's cadence clock must be back at its prior value so the
	// next cycle retries.
	assert.Nil(t, triggers.values[2])
	require.NotNil(t, triggers.values[1])
	assert.Equal(t, asOf, *triggers.values[1])
}

func TestEmitLostClaimSkipsWithoutFailure(t *testing.T) {
	placer := &fakePlacer{}
	triggers := newFakeTriggerStore()
	triggers.rejected[1] = true // concurrent run already triggered rule 1
	em := NewEmitter(placer, triggers)

	decisions := []domain.Decision{
		autoOrderDecision(1, 101, domain.UrgencyCritical),
		autoOrderDecision(2, 102, domain.UrgencyLow),
	}
	rules := []domain.ReplenishmentRule{
		emitterRule(1, 101, domain.PriorityHigh),
		emitterRule(2, 102, domain.PriorityHigh),
	}

	emitted, failures := em.Emit(context.Background(), decisions, rules, time.Now())

	require.Len(t, emitted, 1)
	assert.Equal(t, int64(2), emitted[0].RuleID)
	assert.Empty(t, failures)
	assert.Len(t, placer.placed, 1)
}

func TestEmitDisabledRuleNeverOrders(t *testing.T) {
	placer := &fakePlacer{}
	em := NewEmitter(placer, newFakeTriggerStore())

	rule := emitterRule(1, 101, domain.PriorityCritical)
	rule.AutoOrderEnabled = false

	// A stale decision list claims auto_order anyway.
	decisions := []domain.Decision{autoOrderDecision(1, 101, domain.UrgencyCritical)}

	emitted, failures := em.Emit(context.Background(), decisions, []domain.ReplenishmentRule{rule}, time.Now())

	assert.Empty(t, emitted)
	assert.Empty(t, failures)
	assert.Empty(t, placer.placed)
}

func TestEmitUnknownRuleIsFailure(t *testing.T) {
	placer := &fakePlacer{}
	em := NewEmitter(placer, newFakeTriggerStore())

	decisions := []domain.Decision{autoOrderDecision(99, 199, domain.UrgencyHigh)}

	emitted, failures := em.Emit(context.Background(), decisions, nil, time.Now())

	assert.Empty(t, emitted)
	require.Len(t, failures, 1)
	assert.Equal(t, int64(99), failures[0].RuleID)
}
