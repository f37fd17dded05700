package domain

import "fmt"

const (
	// SeasonalFactorMin and SeasonalFactorMax bound the per-rule multiplier.
	// Values outside this domain are rejected at the rule store boundary.
	SeasonalFactorMin = 0.1
	SeasonalFactorMax = 5.0
)

// Validate checks that a rule's fields are inside their allowed domains.
// It is called by the rule store on create and update; the decision engine
// assumes validated input and only clamps defensively.
func (r *ReplenishmentRule) Validate() error {
	if r.ShopID <= 0 {
		return fmt.Errorf("rule: shop_id must be positive, got %d", r.ShopID)
	}
	if r.ProductID <= 0 {
		return fmt.Errorf("rule: product_id must be positive, got %d", r.ProductID)
	}
	if r.SupplierID <= 0 {
		return fmt.Errorf("rule: supplier_id must be positive, got %d", r.SupplierID)
	}
	if r.MinStockLevel < 0 {
		return fmt.Errorf("rule: min_stock_level must be >= 0, got %d", r.MinStockLevel)
	}
	if r.ReorderQuantity < 1 {
		return fmt.Errorf("rule: reorder_quantity must be >= 1, got %d", r.ReorderQuantity)
	}
	if _, ok := ParseFrequency(string(r.Frequency)); !ok {
		return fmt.Errorf("rule: invalid frequency %q", r.Frequency)
	}
	if _, ok := ParsePriority(string(r.Priority)); !ok {
		return fmt.Errorf("rule: invalid priority %q", r.Priority)
	}
	if r.SeasonalFactor < SeasonalFactorMin || r.SeasonalFactor > SeasonalFactorMax {
		return fmt.Errorf("rule: seasonal_factor %.2f outside [%.1f, %.1f]",
			r.SeasonalFactor, SeasonalFactorMin, SeasonalFactorMax)
	}

	return nil
}

// ClampSeasonalFactor forces a factor into the legal domain. NaN and
// non-positive values collapse to the neutral factor.
func ClampSeasonalFactor(f float64) float64 {
	if f != f || f <= 0 { // NaN or nonsense
		return 1.0
	}
	if f < SeasonalFactorMin {
		return SeasonalFactorMin
	}
	if f > SeasonalFactorMax {
		return SeasonalFactorMax
	}

	return f
}
