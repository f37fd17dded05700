package season

import (
	"time"

	"github.com/bazaarops/replenish/internal/domain"
)

// FestivalSpec describes a recurring festival independent of any year.
// The concrete start date for a year comes from a DateResolver.
type FestivalSpec struct {
	Name           string
	Category       domain.FestivalCategory
	DurationDays   int
	SeasonalFactor float64
	PrepWindowDays int
}

// DateResolver maps a festival name and a Gregorian year to the festival's
// start date. Returns false when the festival does not occur in that year
// or the resolver has no data for it.
type DateResolver func(name string, year int) (time.Time, bool)

// DefaultFestivals is the built-in festival table. Factors reflect the
// observed demand elevation per event; bigger events carry bigger factors.
func DefaultFestivals() []FestivalSpec {
	return []FestivalSpec{
		{Name: "diwali", Category: domain.FestivalMajor, DurationDays: 5, SeasonalFactor: 3.0, PrepWindowDays: 14},
		{Name: "holi", Category: domain.FestivalMajor, DurationDays: 2, SeasonalFactor: 2.0, PrepWindowDays: 7},
		{Name: "navratri", Category: domain.FestivalReligious, DurationDays: 9, SeasonalFactor: 2.2, PrepWindowDays: 10},
		{Name: "eid", Category: domain.FestivalReligious, DurationDays: 2, SeasonalFactor: 1.8, PrepWindowDays: 7},
		{Name: "raksha_bandhan", Category: domain.FestivalCultural, DurationDays: 1, SeasonalFactor: 1.5, PrepWindowDays: 5},
		{Name: "ganesh_chaturthi", Category: domain.FestivalReligious, DurationDays: 10, SeasonalFactor: 1.8, PrepWindowDays: 7},
		{Name: "durga_puja", Category: domain.FestivalReligious, DurationDays: 5, SeasonalFactor: 2.0, PrepWindowDays: 10},
		{Name: "christmas", Category: domain.FestivalMajor, DurationDays: 2, SeasonalFactor: 1.8, PrepWindowDays: 10},
	}
}

// approxDates holds fixed month/day anchors per festival. Lunisolar
// festivals drift across the Gregorian calendar; these anchors are
// mid-range approximations, good enough for preparation windows but not
// for exact observance dates. Callers needing precise dates should plug
// in their own DateResolver.
var approxDates = map[string]struct {
	Month time.Month
	Day   int
}{
	"diwali":           {time.November, 1},
	"holi":             {time.March, 14},
	"navratri":         {time.October, 3},
	"eid":              {time.April, 10},
	"raksha_bandhan":   {time.August, 9},
	"ganesh_chaturthi": {time.September, 7},
	"durga_puja":       {time.October, 9},
	"christmas":        {time.December, 25},
}

// ApproximateDateResolver resolves festival start dates from the static
// anchor table. All dates are midnight UTC.
func ApproximateDateResolver(name string, year int) (time.Time, bool) {
	anchor, ok := approxDates[name]
	if !ok {
		return time.Time{}, false
	}

	return time.Date(year, anchor.Month, anchor.Day, 0, 0, 0, 0, time.UTC), true
}

// monthlyBaseFactors is the base seasonal pattern outside festival windows.
// The Oct-Dec festive quarter runs hotter; the monsoon months run flat.
var monthlyBaseFactors = map[time.Month]float64{
	time.January:   1.0,
	time.February:  1.0,
	time.March:     1.1,
	time.April:     1.0,
	time.May:       1.0,
	time.June:      0.9,
	time.July:      0.9,
	time.August:    1.1,
	time.September: 1.2,
	time.October:   1.4,
	time.November:  1.5,
	time.December:  1.3,
}
