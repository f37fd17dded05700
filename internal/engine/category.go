package engine

import "strings"

// categoryMultipliers scales reorder quantities by product category.
// Festival-sensitive categories (decorations, gifting accessories) need
// deeper buffers than staples. The mapping is closed: anything not listed
// gets the neutral multiplier.
var categoryMultipliers = map[string]float64{
	"decorations": 3.0,
	"accessories": 2.0,
	"cosmetics":   1.8,
	"household":   1.4,
	"food":        1.3,
	"electronics": 1.2,
}

const defaultCategoryMultiplier = 1.0

// CategoryMultiplier returns the demand multiplier for a product category.
// Lookup is case-insensitive; unknown categories are neutral.
func CategoryMultiplier(category string) float64 {
	if m, ok := categoryMultipliers[strings.ToLower(strings.TrimSpace(category))]; ok {
		return m
	}

	return defaultCategoryMultiplier
}
