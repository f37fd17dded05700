package domain

import "time"

// ReplenishmentRule is the reorder configuration for one
// (shop, product, supplier) triple.
type ReplenishmentRule struct {
	ID               int64      `json:"id" db:"id"`
	ShopID           int64      `json:"shop_id" db:"shop_id"`
	ProductID        int64      `json:"product_id" db:"product_id"`
	SupplierID       int64      `json:"supplier_id" db:"supplier_id"`
	MinStockLevel    int        `json:"min_stock_level" db:"min_stock_level"`
	ReorderQuantity  int        `json:"reorder_quantity" db:"reorder_quantity"`
	Frequency        Frequency  `json:"frequency" db:"frequency"`
	Priority         Priority   `json:"priority" db:"priority"`
	SeasonalFactor   float64    `json:"seasonal_factor" db:"seasonal_factor"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	AutoOrderEnabled bool       `json:"auto_order_enabled" db:"auto_order_enabled"`
	LastTriggeredAt  *time.Time `json:"last_triggered_at" db:"last_triggered_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// StockSnapshot is the read-only view of a product the engine consumes.
type StockSnapshot struct {
	ProductID    int64  `json:"product_id" db:"product_id"`
	ShopID       int64  `json:"shop_id" db:"shop_id"`
	Category     string `json:"category" db:"category"`
	CurrentStock int    `json:"current_stock" db:"current_stock"`
}

// FestivalWindow describes a demand-elevating event on the calendar.
type FestivalWindow struct {
	Name           string           `json:"name"`
	Category       FestivalCategory `json:"category"`
	StartsAt       time.Time        `json:"starts_at"`
	DurationDays   int              `json:"duration_days"`
	SeasonalFactor float64          `json:"seasonal_factor"`
	PrepWindowDays int              `json:"preparation_window_days"`
	DaysUntilStart int              `json:"days_until_start"`
}

// Decision is the engine's verdict for a single rule. Decisions are
// ephemeral: the engine never persists them itself.
type Decision struct {
	RuleID             int64   `json:"rule_id"`
	ProductID          int64   `json:"product_id"`
	EffectiveThreshold int     `json:"effective_threshold"`
	EffectiveQuantity  int     `json:"effective_reorder_quantity"`
	CurrentStock       int     `json:"current_stock"`
	Action             Action  `json:"action"`
	Urgency            Urgency `json:"urgency"`
	Reason             string  `json:"reason"`
}

// UnresolvedRule records a rule that could not be evaluated, typically
// because its product is missing from the stock snapshot.
type UnresolvedRule struct {
	RuleID    int64  `json:"rule_id"`
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}

// OrderRequest is what the emitter hands to the order-placement collaborator.
type OrderRequest struct {
	ShopID     int64 `json:"shop_id"`
	SupplierID int64 `json:"supplier_id"`
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
}

// EmittedOrder records an auto-order that was successfully placed.
type EmittedOrder struct {
	OrderID    string    `json:"order_id"`
	RuleID     int64     `json:"rule_id"`
	ShopID     int64     `json:"shop_id"`
	SupplierID int64     `json:"supplier_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Urgency    Urgency   `json:"urgency"`
	PlacedAt   time.Time `json:"placed_at"`
}

// OrderFailure records a downstream placement failure for one decision.
// The rule's cadence clock is not advanced, so the next cycle retries.
type OrderFailure struct {
	RuleID    int64  `json:"rule_id"`
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

// EvaluationReport is the full outcome of one evaluate+emit cycle for a shop.
type EvaluationReport struct {
	RunID          string           `json:"run_id"`
	ShopID         int64            `json:"shop_id"`
	EvaluatedAt    time.Time        `json:"evaluated_at"`
	SeasonalFactor float64          `json:"seasonal_factor"`
	ActiveFestival string           `json:"active_festival,omitempty"`
	Decisions      []Decision       `json:"decisions"`
	Emitted        []EmittedOrder   `json:"emitted_orders"`
	Failures       []OrderFailure   `json:"order_failures"`
	Unresolved     []UnresolvedRule `json:"unresolved_rules"`
}

// AlertCount returns how many decisions require attention (alert or auto_order).
func (r *EvaluationReport) AlertCount() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Action != ActionNone {
			n++
		}
	}

	return n
}
