package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masalahub/kitchenplan/internal/domain"
)

type stubDishes []string

func (s stubDishes) ListDishes(context.Context) ([]string, error) {
	return s, nil
}

type failingDishes struct{}

func (failingDishes) ListDishes(context.Context) ([]string, error) {
	return nil, errors.New("dish registry unavailable")
}

// flatCost prices every dish at a fixed rate per kg.
type flatCost float64

func (c flatCost) EstimateCost(_ context.Context, _ string, kg float64) (float64, error) {
	return float64(c) * kg, nil
}

type failingCost struct{}

func (failingCost) EstimateCost(context.Context, string, float64) (float64, error) {
	return 0, errors.New("no recipe on file")
}

func dishSale(dish, location string, daysAgo, received, remaining int, endOfDay bool) domain.SaleRecord {
	rec := saleOn(daysAgo, location, received, remaining, endOfDay)
	rec.DishName = dish
	return rec
}

func testSnapshot() Snapshot {
	return Snapshot{
		Sales: []domain.SaleRecord{
			// Lamb Curry: 2 left at Eastham today, nothing at Bethnal Green
			dishSale("Lamb Curry", "Eastham", 0, 10, 2, false),
			// Veg Pakora: fully stocked at Eastham, sold through at Bethnal Green
			dishSale("Veg Pakora", "Eastham", 0, 100, 100, false),
			dishSale("Veg Pakora", "Bethnal Green", 1, 10, 0, true),
			// Chicken Biryani has no ledger records at all
		},
	}
}

func TestComputePlanNilDishSource(t *testing.T) {
	p := New(Config{})

	items, err := p.ComputePlan(context.Background(), testSnapshot(), domain.TimeframeToday, fixedNow)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestComputePlanEmptyDishList(t *testing.T) {
	p := New(Config{Dishes: stubDishes{}})

	items, err := p.ComputePlan(context.Background(), testSnapshot(), domain.TimeframeToday, fixedNow)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestComputePlanDishSourceError(t *testing.T) {
	p := New(Config{Dishes: failingDishes{}})

	_, err := p.ComputePlan(context.Background(), testSnapshot(), domain.TimeframeToday, fixedNow)

	assert.Error(t, err)
}

func TestComputePlanScenario(t *testing.T) {
	p := New(Config{
		Dishes: stubDishes{"Lamb Curry", "Veg Pakora", "Chicken Biryani"},
		Costs:  flatCost(100),
	})

	items, err := p.ComputePlan(context.Background(), testSnapshot(), domain.TimeframeToday, fixedNow)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Sorted by score descending
	assert.Equal(t, "Chicken Biryani", items[0].DishName)
	assert.Equal(t, "Lamb Curry", items[1].DishName)
	assert.Equal(t, "Veg Pakora", items[2].DishName)

	// Biryani: unknown dish, both locations fall back to 10/day.
	// Demand = ceil(20 * 1.0 * 1.1) = 22 on a Thursday.
	biryani := items[0]
	assert.Equal(t, domain.PriorityCritical, biryani.Priority)
	assert.Equal(t, 100, biryani.PriorityScore)
	assert.Equal(t, 22, biryani.ExpectedDemand)
	assert.Equal(t, 22, biryani.NeedToCook)
	assert.Equal(t, 6, biryani.PortionsPerKg)
	assert.InDelta(t, 3.7, biryani.SuggestedKg, 1e-9)
	assert.InDelta(t, 370, biryani.EstimatedCost, 1e-9)

	// Curry: 2 portions at Eastham (avg 1), Bethnal Green falls back to 10.
	// Demand = ceil(11 * 1.1) = 13.
	curry := items[1]
	assert.Equal(t, domain.PriorityHigh, curry.Priority)
	assert.Equal(t, 80, curry.PriorityScore)
	assert.Equal(t, 2, curry.CurrentStock)
	assert.Equal(t, 13, curry.ExpectedDemand)
	assert.Equal(t, 11, curry.NeedToCook)
	require.Len(t, curry.Alerts, 1)
	assert.Equal(t, "Only 2 portions left!", curry.Alerts[0].Message)

	eastham, ok := curry.Locations["Eastham"]
	require.True(t, ok)
	assert.Equal(t, 2, eastham.CurrentStock)
	assert.Equal(t, 1, eastham.AvgDailySales)
	bethnal, ok := curry.Locations["Bethnal Green"]
	require.True(t, ok)
	assert.Equal(t, 10, bethnal.AvgDailySales)

	// Pakora: 100 in stock against a demand of 2, nothing to do.
	pakora := items[2]
	assert.Equal(t, domain.PriorityLow, pakora.Priority)
	assert.Zero(t, pakora.PriorityScore)
	assert.Zero(t, pakora.NeedToCook)
	assert.Zero(t, pakora.SuggestedKg)
	assert.Zero(t, pakora.EstimatedCost)
	assert.Empty(t, pakora.Alerts)
	assert.Empty(t, pakora.Recommendations)
}

func TestComputePlanAggregatesPrepAndColdRoom(t *testing.T) {
	snap := testSnapshot()
	snap.PrepLog = []domain.PrepLogEntry{
		{DishName: "Lamb Curry", TotalPortions: 5},
		{DishName: "Lamb Curry", TotalPortions: 7, Processed: true},
	}
	snap.Dispatch = []domain.DispatchRecord{
		{DishName: "Lamb Curry", ColdRoomStock: 4},
		{DishName: "lamb curry", ColdRoomStock: 3},
	}

	p := New(Config{Dishes: stubDishes{"Lamb Curry"}})

	items, err := p.ComputePlan(context.Background(), snap, domain.TimeframeToday, fixedNow)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, 5, item.InPrep)
	assert.Equal(t, 7, item.ColdRoomStock)
	assert.Equal(t, item.CurrentStock+item.InPrep+item.ColdRoomStock, item.TotalAvailable)

	// 14 available against 13 demand, shortfall clamps at zero
	assert.Zero(t, item.NeedToCook)
	// but the low-stock shelf state still raises the priority
	assert.Equal(t, domain.PriorityHigh, item.Priority)
}

func TestComputePlanIdempotent(t *testing.T) {
	p := New(Config{
		Dishes: stubDishes{"Lamb Curry", "Veg Pakora", "Chicken Biryani"},
		Costs:  flatCost(80),
	})
	snap := testSnapshot()

	first, err := p.ComputePlan(context.Background(), snap, domain.TimeframeTomorrow, fixedNow)
	require.NoError(t, err)
	second, err := p.ComputePlan(context.Background(), snap, domain.TimeframeTomorrow, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputePlanCostEstimatorFailureIsNotFatal(t *testing.T) {
	p := New(Config{
		Dishes: stubDishes{"Chicken Biryani"},
		Costs:  failingCost{},
	})

	items, err := p.ComputePlan(context.Background(), Snapshot{}, domain.TimeframeToday, fixedNow)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Zero(t, items[0].EstimatedCost)
	assert.Positive(t, items[0].SuggestedKg)
}

func TestComputePlanOutputsNonNegative(t *testing.T) {
	snap := Snapshot{
		Sales: []domain.SaleRecord{
			dishSale("Lamb Curry", "Eastham", 0, -10, -5, false),
			dishSale("Lamb Curry", "Bethnal Green", 2, -1, -1, true),
		},
		PrepLog:  []domain.PrepLogEntry{{DishName: "Lamb Curry", TotalPortions: -8}},
		Dispatch: []domain.DispatchRecord{{DishName: "Lamb Curry", ColdRoomStock: -2}},
	}

	p := New(Config{Dishes: stubDishes{"Lamb Curry"}})

	items, err := p.ComputePlan(context.Background(), snap, domain.TimeframeToday, fixedNow)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.GreaterOrEqual(t, item.CurrentStock, 0)
	assert.GreaterOrEqual(t, item.OldStock, 0)
	assert.GreaterOrEqual(t, item.InPrep, 0)
	assert.GreaterOrEqual(t, item.ColdRoomStock, 0)
	assert.GreaterOrEqual(t, item.NeedToCook, 0)
	assert.GreaterOrEqual(t, item.ExpectedDemand, 0)
	assert.GreaterOrEqual(t, item.SuggestedKg, 0.0)
}

func planFixture() []domain.PlanItem {
	return []domain.PlanItem{
		{
			DishName: "Chicken Biryani",
			Priority: domain.PriorityCritical,
			Locations: map[string]domain.LocationBreakdown{
				"Eastham":       {CurrentStock: 0},
				"Bethnal Green": {CurrentStock: 0},
			},
			NeedToCook:    22,
			EstimatedCost: 370,
		},
		{
			DishName: "Lamb Curry",
			Priority: domain.PriorityHigh,
			Locations: map[string]domain.LocationBreakdown{
				"Eastham":       {CurrentStock: 2},
				"Bethnal Green": {CurrentStock: 20},
			},
			NeedToCook: 11,
			OldStock:   4,
		},
		{
			DishName: "Veg Pakora",
			Priority: domain.PriorityLow,
			Locations: map[string]domain.LocationBreakdown{
				"Eastham":       {CurrentStock: 100},
				"Bethnal Green": {CurrentStock: 6, OldStock: 2},
			},
		},
	}
}

func TestApplyFilterCriticalOnly(t *testing.T) {
	filtered := ApplyFilter(planFixture(), domain.PlanFilter{CriticalOnly: true})

	require.Len(t, filtered, 2)
	assert.Equal(t, "Chicken Biryani", filtered[0].DishName)
	assert.Equal(t, "Lamb Curry", filtered[1].DishName)
}

func TestApplyFilterLocation(t *testing.T) {
	// Eastham: Biryani is out, Curry is short, Pakora holds 100
	filtered := ApplyFilter(planFixture(), domain.PlanFilter{Location: "Eastham"})

	require.Len(t, filtered, 2)
	assert.Equal(t, "Chicken Biryani", filtered[0].DishName)
	assert.Equal(t, "Lamb Curry", filtered[1].DishName)

	// Bethnal Green: Curry holds 20 fresh, Pakora carries old stock
	filtered = ApplyFilter(planFixture(), domain.PlanFilter{Location: "bethnal green"})

	require.Len(t, filtered, 2)
	assert.Equal(t, "Chicken Biryani", filtered[0].DishName)
	assert.Equal(t, "Veg Pakora", filtered[1].DishName)
}

func TestApplyFilterMinPriority(t *testing.T) {
	filtered := ApplyFilter(planFixture(), domain.PlanFilter{MinPriority: domain.PriorityHigh})

	require.Len(t, filtered, 2)
	assert.Equal(t, "Chicken Biryani", filtered[0].DishName)
	assert.Equal(t, "Lamb Curry", filtered[1].DishName)

	assert.Len(t, ApplyFilter(planFixture(), domain.PlanFilter{MinPriority: domain.PriorityCritical}), 1)
	assert.Len(t, ApplyFilter(planFixture(), domain.PlanFilter{MinPriority: domain.PriorityLow}), 3)
}

func TestApplyFilterUnknownLocationDropsAll(t *testing.T) {
	assert.Empty(t, ApplyFilter(planFixture(), domain.PlanFilter{Location: "Croydon"}))
}

func TestApplyFilterAllLocationsPassthrough(t *testing.T) {
	assert.Len(t, ApplyFilter(planFixture(), domain.PlanFilter{Location: "all"}), 3)
	assert.Len(t, ApplyFilter(planFixture(), domain.PlanFilter{}), 3)
}

func TestApplyFilterCombined(t *testing.T) {
	filtered := ApplyFilter(planFixture(), domain.PlanFilter{
		Location:     "Bethnal Green",
		CriticalOnly: true,
	})

	require.Len(t, filtered, 1)
	assert.Equal(t, "Chicken Biryani", filtered[0].DishName)
}

func TestSummarize(t *testing.T) {
	summary := Summarize(planFixture())

	assert.Equal(t, 3, summary.ItemCount)
	assert.Equal(t, 1, summary.CriticalCount)
	assert.Equal(t, 1, summary.HighCount)
	assert.Equal(t, 33, summary.TotalNeedToCook)
	assert.InDelta(t, 370, summary.TotalCost, 1e-9)
	assert.Equal(t, 1, summary.ItemsWithOldStock)
	assert.Equal(t, 4, summary.TotalOldStock)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Zero(t, Summarize(nil))
}
