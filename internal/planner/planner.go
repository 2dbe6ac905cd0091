package planner

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// Planner computes a replenishment plan from an in-memory snapshot of the
// sales ledger, prep log and cold-room dispatch records. A run is pure and
// stateless: the same snapshot, filter and clock always produce the same
// plan, and nothing is shared between runs.
type Planner struct {
	config Config
}

// New creates a Planner, filling config defaults.
func New(cfg Config) *Planner {
	if len(cfg.Locations) == 0 {
		cfg.Locations = DefaultLocations
	}
	if len(cfg.Yields) == 0 {
		cfg.Yields = DefaultYieldRates
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 4
	}

	return &Planner{config: cfg}
}

// ComputePlan runs the per-dish pipeline for every dish in the dish source
// and returns the plan sorted by priority score descending, ties keeping
// dish-registry order. A nil dish source yields an empty plan.
//
// Dishes are independent, so they are computed concurrently against the
// immutable snapshot; the sort waits for all of them.
func (p *Planner) ComputePlan(ctx context.Context, snap Snapshot, tf domain.Timeframe, now time.Time) ([]domain.PlanItem, error) {
	if p.config.Dishes == nil {
		return []domain.PlanItem{}, nil
	}

	dishes, err := p.config.Dishes.ListDishes(ctx)
	if err != nil {
		return nil, err
	}
	if len(dishes) == 0 {
		return []domain.PlanItem{}, nil
	}

	idx := indexSnapshot(snap)
	target := resolveTargetDate(tf, now)

	items := make([]domain.PlanItem, len(dishes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.WorkerCount)
	for i, dish := range dishes {
		i, dish := i, dish
		g.Go(func() error {
			items[i] = p.buildItem(gctx, dish, idx, target, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PriorityScore > items[j].PriorityScore
	})

	return items, nil
}

// buildItem assembles the plan record for a single dish.
func (p *Planner) buildItem(ctx context.Context, dish string, idx *snapshotIndex, target, now time.Time) domain.PlanItem {
	key := dishKey(dish)
	sales := idx.sales[key]

	// Per-location stock and sales figures
	locations := make(map[string]domain.LocationBreakdown, len(p.config.Locations))
	currentTotal, oldTotal, combinedAvg := 0, 0, 0
	for _, loc := range p.config.Locations {
		metrics := locationMetrics(loc, sales, now)
		currentTotal += metrics.CurrentStock + metrics.OldStock
		oldTotal += metrics.OldStock
		combinedAvg += metrics.AvgDailySales
		locations[loc] = domain.LocationBreakdown{
			CurrentStock:   metrics.CurrentStock,
			OldStock:       metrics.OldStock,
			AvgDailySales:  metrics.AvgDailySales,
			ExpectedDemand: locationDemand(metrics.AvgDailySales, target),
		}
	}

	// In-prep and cold-room stock
	inPrep := 0
	for _, entry := range idx.prep[key] {
		if !entry.Processed {
			inPrep += clampPortions(entry.TotalPortions)
		}
	}
	coldRoom := 0
	for _, rec := range idx.dispatch[key] {
		coldRoom += clampPortions(rec.ColdRoomStock)
	}

	demand := expectedDemand(combinedAvg, target)
	totalAvailable := currentTotal + inPrep + coldRoom
	needToCook := demand - totalAvailable
	if needToCook < 0 {
		needToCook = 0
	}

	expiring := scanExpiry(idx.prep[key], sales, now)
	priority, score, alerts := classify(currentTotal, oldTotal, demand, needToCook, expiring)

	perKg := portionsPerKg(dish, p.config.Yields)
	kg := suggestedKg(needToCook, perKg)

	cost := 0.0
	if p.config.Costs != nil && kg > 0 {
		estimated, err := p.config.Costs.EstimateCost(ctx, dish, kg)
		if err != nil {
			log.Warn().Err(err).Str("dish", dish).Msg("planner: cost estimate failed, using zero")
		} else {
			cost = estimated
		}
	}

	return domain.PlanItem{
		DishName:        dish,
		Priority:        priority,
		PriorityScore:   score,
		Alerts:          alerts,
		Recommendations: recommend(currentTotal, oldTotal, demand, needToCook),
		CurrentStock:    currentTotal,
		OldStock:        oldTotal,
		InPrep:          inPrep,
		ColdRoomStock:   coldRoom,
		TotalAvailable:  totalAvailable,
		ExpectedDemand:  demand,
		NeedToCook:      needToCook,
		PortionsPerKg:   perKg,
		SuggestedKg:     kg,
		EstimatedCost:   cost,
		Expiring:        expiring,
		Locations:       locations,
	}
}

// ResolveTargetDate exposes timeframe resolution for callers that report or
// persist the date a plan was computed for.
func ResolveTargetDate(tf domain.Timeframe, now time.Time) time.Time {
	return resolveTargetDate(tf, now)
}

// ApplyFilter narrows a plan list. CriticalOnly keeps critical and high
// items; MinPriority keeps items at or above that priority class; a
// location filter keeps a dish only when that location is short (current
// stock at most 5) or still holds old stock.
func ApplyFilter(items []domain.PlanItem, filter domain.PlanFilter) []domain.PlanItem {
	filtered := make([]domain.PlanItem, 0, len(items))
	for _, item := range items {
		if filter.CriticalOnly &&
			item.Priority != domain.PriorityCritical && item.Priority != domain.PriorityHigh {
			continue
		}
		if filter.MinPriority != "" && item.Priority.Rank() < filter.MinPriority.Rank() {
			continue
		}
		if filter.Location != "" && !strings.EqualFold(filter.Location, "all") {
			breakdown, ok := lookupLocation(item.Locations, filter.Location)
			if !ok {
				continue
			}
			if breakdown.CurrentStock > 5 && breakdown.OldStock == 0 {
				continue
			}
		}
		filtered = append(filtered, item)
	}

	return filtered
}

func lookupLocation(locations map[string]domain.LocationBreakdown, name string) (domain.LocationBreakdown, bool) {
	for loc, breakdown := range locations {
		if strings.EqualFold(loc, name) {
			return breakdown, true
		}
	}
	return domain.LocationBreakdown{}, false
}

// Summarize aggregates a (filtered) plan list.
func Summarize(items []domain.PlanItem) domain.PlanSummary {
	summary := domain.PlanSummary{ItemCount: len(items)}
	for _, item := range items {
		switch item.Priority {
		case domain.PriorityCritical:
			summary.CriticalCount++
		case domain.PriorityHigh:
			summary.HighCount++
		}
		summary.TotalNeedToCook += item.NeedToCook
		summary.TotalCost += item.EstimatedCost
		if item.OldStock > 0 {
			summary.ItemsWithOldStock++
			summary.TotalOldStock += item.OldStock
		}
	}

	return summary
}
