package repository

import (
	"context"

	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/planner"
)

// PlanningRepository supplies everything a planning run needs from storage:
// the input snapshot, the dish registry and recipe costs. The postgres
// implementation doubles as the planner's DishSource and CostEstimator.
type PlanningRepository interface {
	// LoadSnapshot materializes the current planning inputs. The window is
	// bounded server-side to the planner's lookback plus a day of slack.
	LoadSnapshot(ctx context.Context) (planner.Snapshot, error)

	ListDishes(ctx context.Context) ([]string, error)
	EstimateCost(ctx context.Context, dishName string, kg float64) (float64, error)

	// RecordPlanRun appends one completed planning pass to run history.
	RecordPlanRun(ctx context.Context, run *domain.PlanRun) error
}
