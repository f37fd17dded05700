// internal/season/calendar.go
package season

import (
	"sort"
	"time"

	"github.com/bazaarops/replenish/internal/domain"
)

// Provider maps a point in time to festival windows and seasonal demand
// multipliers. It is deterministic and side-effect free: everything is
// computed from the static festival table and the injected DateResolver.
type Provider struct {
	specs   []FestivalSpec
	resolve DateResolver
}

// NewProvider builds a Provider over the given festival table. A nil
// resolver falls back to the approximate built-in date table.
func NewProvider(specs []FestivalSpec, resolve DateResolver) *Provider {
	if resolve == nil {
		resolve = ApproximateDateResolver
	}

	return &Provider{specs: specs, resolve: resolve}
}

// NewDefaultProvider builds a Provider over the built-in festival table.
func NewDefaultProvider() *Provider {
	return NewProvider(DefaultFestivals(), nil)
}

// CurrentSeasonalFactor returns the demand multiplier in effect at asOf:
// the base monthly factor, raised to the factor of any festival window
// whose preparation-to-end interval contains asOf. Overlapping windows
// resolve to the maximum factor so a bigger event is never under-stocked.
// With no matching window the monthly base applies, never less than 1.0.
func (p *Provider) CurrentSeasonalFactor(asOf time.Time) float64 {
	factor := monthlyBaseFactors[asOf.Month()]
	if factor < 1.0 {
		factor = 1.0
	}

	for _, w := range p.windowsAround(asOf) {
		if p.windowContains(w, asOf) && w.SeasonalFactor > factor {
			factor = w.SeasonalFactor
		}
	}

	return domain.ClampSeasonalFactor(factor)
}

// ActiveWindow returns the highest-factor festival window containing asOf,
// or false when no window is active.
func (p *Provider) ActiveWindow(asOf time.Time) (domain.FestivalWindow, bool) {
	var (
		best  domain.FestivalWindow
		found bool
	)
	for _, w := range p.windowsAround(asOf) {
		if !p.windowContains(w, asOf) {
			continue
		}
		if !found || w.SeasonalFactor > best.SeasonalFactor {
			best = w
			found = true
		}
	}

	return best, found
}

// UpcomingWindows lists festival windows starting within horizonDays of
// asOf, ascending by days until start.
func (p *Provider) UpcomingWindows(asOf time.Time, horizonDays int) []domain.FestivalWindow {
	if horizonDays <= 0 {
		return nil
	}

	horizon := asOf.AddDate(0, 0, horizonDays)
	upcoming := make([]domain.FestivalWindow, 0)
	for _, w := range p.windowsAround(asOf) {
		if w.StartsAt.After(asOf) && !w.StartsAt.After(horizon) {
			w.DaysUntilStart = int(w.StartsAt.Sub(asOf).Hours() / 24)
			upcoming = append(upcoming, w)
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].DaysUntilStart != upcoming[j].DaysUntilStart {
			return upcoming[i].DaysUntilStart < upcoming[j].DaysUntilStart
		}
		return upcoming[i].Name < upcoming[j].Name
	})

	return upcoming
}

// windowsAround materializes each festival for the year of asOf and its
// neighbors, so preparation windows crossing a year boundary still match.
func (p *Provider) windowsAround(asOf time.Time) []domain.FestivalWindow {
	windows := make([]domain.FestivalWindow, 0, len(p.specs)*3)
	for _, spec := range p.specs {
		for _, year := range []int{asOf.Year() - 1, asOf.Year(), asOf.Year() + 1} {
			start, ok := p.resolve(spec.Name, year)
			if !ok {
				continue
			}
			windows = append(windows, domain.FestivalWindow{
				Name:           spec.Name,
				Category:       spec.Category,
				StartsAt:       start,
				DurationDays:   spec.DurationDays,
				SeasonalFactor: spec.SeasonalFactor,
				PrepWindowDays: spec.PrepWindowDays,
			})
		}
	}

	return windows
}

func (p *Provider) windowContains(w domain.FestivalWindow, asOf time.Time) bool {
	from := w.StartsAt.AddDate(0, 0, -w.PrepWindowDays)
	until := w.StartsAt.AddDate(0, 0, w.DurationDays)

	return !asOf.Before(from) && !asOf.After(until)
}
