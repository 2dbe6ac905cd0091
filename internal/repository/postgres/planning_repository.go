// internal/repository/postgres/planning_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/planner"
)

// snapshotWindowDays bounds how much ledger history one snapshot pulls in.
// One extra day over the planner's 14-day lookback keeps boundary records in.
const snapshotWindowDays = 15

type planningRepository struct {
	db *DB
}

// NewPlanningRepository creates the Postgres-backed planning repository.
func NewPlanningRepository(db *DB) *planningRepository {
	return &planningRepository{db: db}
}

func (r *planningRepository) LoadSnapshot(ctx context.Context) (planner.Snapshot, error) {
	var snap planner.Snapshot
	since := time.Now().AddDate(0, 0, -snapshotWindowDays)

	salesQuery := `
		SELECT sale_date, location, dish_name, received_portions,
			remaining_portions, end_of_day, expiry_date
		FROM sale_records
		WHERE sale_date >= $1
		ORDER BY sale_date
	`
	if err := r.db.SelectContext(ctx, &snap.Sales, salesQuery, since); err != nil {
		return planner.Snapshot{}, fmt.Errorf("error loading sale records: %w", err)
	}

	prepQuery := `
		SELECT dish_name, total_portions, processed, expiry_date
		FROM prep_log
		WHERE created_at >= $1
	`
	if err := r.db.SelectContext(ctx, &snap.PrepLog, prepQuery, since); err != nil {
		return planner.Snapshot{}, fmt.Errorf("error loading prep log: %w", err)
	}

	dispatchQuery := `
		SELECT dish_name, cold_room_stock
		FROM dispatch_records
		WHERE cold_room_stock > 0
	`
	if err := r.db.SelectContext(ctx, &snap.Dispatch, dispatchQuery); err != nil {
		return planner.Snapshot{}, fmt.Errorf("error loading dispatch records: %w", err)
	}

	return snap, nil
}

func (r *planningRepository) ListDishes(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM dishes
		ORDER BY name
	`

	var dishes []string
	if err := r.db.SelectContext(ctx, &dishes, query); err != nil {
		return nil, fmt.Errorf("error listing dishes: %w", err)
	}

	return dishes, nil
}

func (r *planningRepository) EstimateCost(ctx context.Context, dishName string, kg float64) (float64, error) {
	query := `
		SELECT cost_per_kg
		FROM recipes
		WHERE LOWER(dish_name) = LOWER($1)
	`

	var costPerKg float64
	err := r.db.GetContext(ctx, &costPerKg, query, dishName)
	if err == sql.ErrNoRows {
		// No recipe on file prices the batch at zero rather than failing
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error looking up recipe cost for %s: %w", dishName, err)
	}

	return costPerKg * kg, nil
}

func (r *planningRepository) RecordPlanRun(ctx context.Context, run *domain.PlanRun) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO plan_runs (
				timeframe, target_date, item_count, critical_count,
				high_count, total_cost, started_at, completed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`

		err := tx.QueryRowContext(
			ctx,
			query,
			run.Timeframe,
			run.TargetDate,
			run.ItemCount,
			run.CriticalCount,
			run.HighCount,
			run.TotalCost,
			run.StartedAt,
			run.CompletedAt,
		).Scan(&run.ID)
		if err != nil {
			return fmt.Errorf("failed to insert plan run: %w", err)
		}

		return nil
	})
}
