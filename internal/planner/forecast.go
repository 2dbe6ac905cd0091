package planner

import (
	"math"
	"time"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// DayFactor scales average sales by day of week. Busy marks the trading
// days the kitchen plans extra cover for.
type DayFactor struct {
	Factor float64
	Busy   bool
}

// dayFactors is indexed by time.Weekday (Sunday = 0).
var dayFactors = [7]DayFactor{
	{Factor: 1.3, Busy: true},  // Sunday
	{Factor: 0.8, Busy: false}, // Monday
	{Factor: 0.9, Busy: false}, // Tuesday
	{Factor: 0.9, Busy: false}, // Wednesday
	{Factor: 1.0, Busy: false}, // Thursday
	{Factor: 1.2, Busy: true},  // Friday
	{Factor: 1.3, Busy: true},  // Saturday
}

// factorFor returns the day-of-week factor for a target date.
func factorFor(target time.Time) DayFactor {
	return dayFactors[int(target.Weekday())]
}

// resolveTargetDate maps a timeframe selector to a concrete target date.
// "weekend" resolves to the next Saturday, or a week out when it is
// already Saturday.
func resolveTargetDate(tf domain.Timeframe, now time.Time) time.Time {
	switch tf {
	case domain.TimeframeTomorrow:
		return now.AddDate(0, 0, 1)
	case domain.TimeframeWeekend:
		days := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days)
	default:
		return now
	}
}

// expectedDemand forecasts portions needed on the target date from the
// combined average daily sales of both locations, with a fixed 10% safety
// buffer. A zero combined average falls back to a conservative default so
// the forecast never collapses to nothing.
func expectedDemand(combinedAvg int, target time.Time) int {
	if combinedAvg <= 0 {
		combinedAvg = fallbackCombinedAvg
	}

	return int(math.Ceil(float64(combinedAvg) * factorFor(target).Factor * safetyBuffer))
}

// locationDemand is the per-location display figure: same day factor,
// no safety buffer.
func locationDemand(locationAvg int, target time.Time) int {
	if locationAvg <= 0 {
		return 0
	}

	return int(math.Ceil(float64(locationAvg) * factorFor(target).Factor))
}
