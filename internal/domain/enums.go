package domain

import (
	"strings"
	"time"
)

// Frequency is the minimum spacing between auto-triggered orders for a rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

var cadenceIntervals = map[Frequency]time.Duration{
	FrequencyDaily:   24 * time.Hour,
	FrequencyWeekly:  7 * 24 * time.Hour,
	FrequencyMonthly: 30 * 24 * time.Hour,
}

// CadenceInterval returns the minimum duration between auto-triggered orders.
// Unknown frequencies fall back to weekly.
func (f Frequency) CadenceInterval() time.Duration {
	if d, ok := cadenceIntervals[f]; ok {
		return d
	}

	return cadenceIntervals[FrequencyWeekly]
}

// ParseFrequency returns the frequency for a given label (case-insensitive).
func ParseFrequency(label string) (Frequency, bool) {
	f := Frequency(strings.ToLower(strings.TrimSpace(label)))
	_, ok := cadenceIntervals[f]

	return f, ok
}

// Priority is the shop owner's static ordering preference for a rule.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRanks = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Rank returns a sortable weight, higher meaning more important.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// ParsePriority returns the priority for a given label (case-insensitive).
func ParsePriority(label string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(label)))
	_, ok := priorityRanks[p]

	return p, ok
}

// Action is the outcome of evaluating a single rule.
type Action string

const (
	ActionNone      Action = "none"
	ActionAlert     Action = "alert"
	ActionAutoOrder Action = "auto_order"
)

// Urgency is derived from how far stock has fallen below the effective
// threshold, independent of the rule's configured priority.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyRanks = map[Urgency]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// Rank returns a sortable weight, higher meaning more urgent.
func (u Urgency) Rank() int {
	return urgencyRanks[u]
}

// UrgencyForRatio classifies stock-to-threshold ratio into an urgency band.
// Zero stock is always critical regardless of the threshold.
func UrgencyForRatio(ratio float64) Urgency {
	switch {
	case ratio <= 0:
		return UrgencyCritical
	case ratio < 0.3:
		return UrgencyHigh
	case ratio < 0.6:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// FestivalCategory classifies a festival window by scale.
type FestivalCategory string

const (
	FestivalMajor     FestivalCategory = "major"
	FestivalCultural  FestivalCategory = "cultural"
	FestivalReligious FestivalCategory = "religious"
)
