package planner

import (
	"fmt"
	"math"
	"strings"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// Base priority scores. The score is a pure sort key; the label shown to the
// kitchen comes from the classification rule that fired.
const (
	scoreOutOfStock   = 100
	scoreLowStock     = 80
	scoreOldStock     = 60
	scoreNeedsCooking = 40

	urgentExpirySurcharge = 20

	lowStockThreshold = 3
)

// DefaultYieldRates is the portions-per-kg table, matched by case-insensitive
// substring against the dish name. Declaration order is the tie-break when a
// name matches more than one pattern, so this must stay an ordered list.
var DefaultYieldRates = []YieldRate{
	{Pattern: "Biryani", PortionsPerKg: 6},
	{Pattern: "Curry", PortionsPerKg: 10},
	{Pattern: "Pakora", PortionsPerKg: 12},
	{Pattern: "Samosa", PortionsPerKg: 15},
}

// DefaultPortionsPerKg applies when no yield pattern matches the dish name.
const DefaultPortionsPerKg = 8

// portionsPerKg resolves the conversion rate for a dish name.
func portionsPerKg(dishName string, rates []YieldRate) int {
	name := dishKey(dishName)
	for _, rate := range rates {
		pattern := dishKey(rate.Pattern)
		if rate.PortionsPerKg > 0 && pattern != "" && strings.Contains(name, pattern) {
			return rate.PortionsPerKg
		}
	}

	return DefaultPortionsPerKg
}

// suggestedKg converts portions to cook into kilograms, rounded up to one
// decimal place.
func suggestedKg(needToCook, perKg int) float64 {
	if needToCook <= 0 || perKg <= 0 {
		return 0
	}

	return math.Ceil(float64(needToCook)/float64(perKg)*10) / 10
}

// classify assigns the priority class, base score and alerts for a dish.
// Rules are evaluated in a fixed precedence order and the first match wins;
// an urgent-expiry surcharge is then added to the score without changing
// the class label.
func classify(currentTotal, oldStock, expectedDemand, needToCook int, expiring domain.ExpiryStatus) (domain.Priority, int, []domain.Alert) {
	var (
		priority domain.Priority
		score    int
		alerts   []domain.Alert
	)

	switch {
	case currentTotal == 0 && expectedDemand > 0:
		priority = domain.PriorityCritical
		score = scoreOutOfStock
		alerts = append(alerts, domain.Alert{
			Type:    domain.AlertCritical,
			Message: "COMPLETELY OUT OF STOCK!",
		})
	case currentTotal > 0 && currentTotal <= lowStockThreshold:
		priority = domain.PriorityHigh
		score = scoreLowStock
		alerts = append(alerts, domain.Alert{
			Type:    domain.AlertWarning,
			Message: fmt.Sprintf("Only %d portions left!", currentTotal),
		})
	case float64(oldStock) > float64(expectedDemand)*0.5:
		priority = domain.PriorityMedium
		score = scoreOldStock
		alerts = append(alerts, domain.Alert{
			Type:    domain.AlertWarning,
			Message: fmt.Sprintf("%dp old stock needs selling", oldStock),
		})
	case needToCook > 0:
		priority = domain.PriorityMedium
		score = scoreNeedsCooking
	default:
		priority = domain.PriorityLow
		score = 0
	}

	if expiring.Urgent > 0 {
		score += urgentExpirySurcharge
		alerts = append(alerts, domain.Alert{
			Type:    domain.AlertExpiry,
			Message: fmt.Sprintf("%d batches expiring soon!", expiring.Urgent),
		})
	}

	return priority, score, alerts
}

// recommend builds the action list for a dish. Recommendations are
// independent of the priority class; any subset may apply.
func recommend(currentTotal, oldStock, expectedDemand, needToCook int) []domain.Recommendation {
	var recs []domain.Recommendation

	if currentTotal == 0 {
		recs = append(recs, domain.Recommendation{
			Type:   domain.RecommendationCritical,
			Action: "COOK IMMEDIATELY",
			Detail: "Zero stock - will lose sales!",
		})
	} else if float64(oldStock) > float64(expectedDemand)*0.3 {
		recs = append(recs, domain.Recommendation{
			Type:   domain.RecommendationWarning,
			Action: "PUSH OLD STOCK FIRST",
			Detail: fmt.Sprintf("Sell %dp old stock before cooking new", oldStock),
		})
	}

	if float64(needToCook) > float64(expectedDemand)*0.5 {
		recs = append(recs, domain.Recommendation{
			Type:   domain.RecommendationPrep,
			Action: "PREP TONIGHT",
			Detail: "Prepare for tomorrow morning dispatch",
		})
	}

	return recs
}
