package planner

import (
	"context"
	"strings"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// Snapshot is the immutable in-memory input of one planning run. The engine
// never mutates it, so a snapshot can be shared across back-to-back runs.
type Snapshot struct {
	Sales    []domain.SaleRecord
	PrepLog  []domain.PrepLogEntry
	Dispatch []domain.DispatchRecord
}

// DishSource lists the dishes a planning run iterates over.
type DishSource interface {
	ListDishes(ctx context.Context) ([]string, error)
}

// CostEstimator prices a cook batch for a dish. Implementations typically
// look up a per-kg recipe cost.
type CostEstimator interface {
	EstimateCost(ctx context.Context, dishName string, kg float64) (float64, error)
}

// YieldRate maps a dish-name substring to a portions-per-kg conversion rate.
// Rates are matched in declaration order; the first matching pattern wins.
type YieldRate struct {
	Pattern       string
	PortionsPerKg int
}

// Config holds configuration for a Planner instance.
type Config struct {
	Dishes      DishSource    // nil yields an empty plan
	Costs       CostEstimator // nil yields zero cost
	Locations   []string      // defaults to DefaultLocations
	Yields      []YieldRate   // defaults to DefaultYieldRates
	WorkerCount int           // per-dish concurrency, defaults to 4
}

// DefaultLocations are the retail locations of the reference deployment.
var DefaultLocations = []string{"Eastham", "Bethnal Green"}

const (
	// lookbackDays is the sales window used for average daily sales.
	lookbackDays = 14

	// fallbackLocationAvg is assumed when a location has no ledger records in
	// the lookback window, so new or rarely-sold dishes never forecast zero.
	fallbackLocationAvg = 10

	// fallbackCombinedAvg is assumed when both locations average zero sales.
	fallbackCombinedAvg = 20

	// safetyBuffer is the uniform 10% uplift applied to expected demand.
	safetyBuffer = 1.10

	// dayLayout is the calendar-day format used for "today" comparisons.
	dayLayout = "2006-01-02"
)

// dishKey normalizes a dish name for snapshot indexing.
func dishKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// snapshotIndex groups snapshot records by normalized dish name so each
// per-dish pipeline only scans its own records.
type snapshotIndex struct {
	sales    map[string][]domain.SaleRecord
	prep     map[string][]domain.PrepLogEntry
	dispatch map[string][]domain.DispatchRecord
}

func indexSnapshot(snap Snapshot) *snapshotIndex {
	idx := &snapshotIndex{
		sales:    make(map[string][]domain.SaleRecord),
		prep:     make(map[string][]domain.PrepLogEntry),
		dispatch: make(map[string][]domain.DispatchRecord),
	}
	for _, rec := range snap.Sales {
		key := dishKey(rec.DishName)
		idx.sales[key] = append(idx.sales[key], rec)
	}
	for _, entry := range snap.PrepLog {
		key := dishKey(entry.DishName)
		idx.prep[key] = append(idx.prep[key], entry)
	}
	for _, rec := range snap.Dispatch {
		key := dishKey(rec.DishName)
		idx.dispatch[key] = append(idx.dispatch[key], rec)
	}

	return idx
}
