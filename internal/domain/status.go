package domain

import "strings"

// Priority is the coarse urgency class of a plan item. The numeric
// PriorityScore decides sort order; the label is for display and filtering.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRanks = map[Priority]int{
	PriorityCritical: 3,
	PriorityHigh:     2,
	PriorityMedium:   1,
	PriorityLow:      0,
}

// Rank returns a numeric rank for a priority label, higher = more urgent.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// ParsePriority returns the priority for a given label (case-insensitive).
func ParsePriority(label string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(label)))
	_, ok := priorityRanks[p]

	return p, ok
}

// Timeframe selects the target date of a planning run.
type Timeframe string

const (
	TimeframeToday    Timeframe = "today"
	TimeframeTomorrow Timeframe = "tomorrow"
	TimeframeWeekend  Timeframe = "weekend"
)

// ParseTimeframe returns the timeframe for a given label, defaulting to
// today for unknown or empty input.
func ParseTimeframe(label string) Timeframe {
	switch Timeframe(strings.ToLower(strings.TrimSpace(label))) {
	case TimeframeTomorrow:
		return TimeframeTomorrow
	case TimeframeWeekend:
		return TimeframeWeekend
	default:
		return TimeframeToday
	}
}

// Alert types attached to plan items.
const (
	AlertCritical = "critical"
	AlertWarning  = "warning"
	AlertExpiry   = "expiry"
)

// Recommendation types attached to plan items.
const (
	RecommendationCritical = "critical"
	RecommendationWarning  = "warning"
	RecommendationPrep     = "prep"
)
