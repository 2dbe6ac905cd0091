package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"

	"github.com/masalahub/kitchenplan/internal/snapshot"
	"github.com/masalahub/kitchenplan/pkg/logger"
)

// ledgerTables are cleared before loading. Sale and prep rows have no
// natural key to upsert on, so replacing the whole ledger is what keeps
// seeding repeatable; the keyed tables upsert instead.
var ledgerTables = []string{"sale_records", "prep_log"}

const (
	saleInsertSQL = `
		INSERT INTO sale_records (
			sale_date, location, dish_name, received_portions,
			remaining_portions, end_of_day, expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	prepInsertSQL = `
		INSERT INTO prep_log (dish_name, total_portions, processed, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	dispatchInsertSQL = `
		INSERT INTO dispatch_records (dish_name, cold_room_stock)
		VALUES ($1, $2)
		ON CONFLICT (dish_name) DO UPDATE SET cold_room_stock = EXCLUDED.cold_room_stock
	`

	dishInsertSQL = `
		INSERT INTO dishes (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`

	recipeInsertSQL = `
		INSERT INTO recipes (dish_name, cost_per_kg)
		VALUES ($1, $2)
		ON CONFLICT (dish_name) DO UPDATE SET cost_per_kg = EXCLUDED.cost_per_kg
	`
)

// runSeed loads a CSV snapshot directory into the Postgres tables the
// server's planning repository reads from. The ledger tables are replaced
// and the keyed tables upserted, so re-running seed never duplicates rows.
func runSeed(c *cli.Context) error {
	bundle, err := snapshot.LoadDir(c.String("data-dir"))
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	tx, err := db.BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range ledgerTables {
		if _, err := tx.ExecContext(c.Context, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	saleStmt, err := tx.PrepareContext(c.Context, saleInsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare sale insert: %w", err)
	}
	defer saleStmt.Close()

	for _, rec := range bundle.Snapshot.Sales {
		if _, err := saleStmt.ExecContext(
			c.Context,
			rec.Date, rec.Location, rec.DishName,
			rec.ReceivedPortions, rec.RemainingPortions, rec.EndOfDay, rec.ExpiryDate,
		); err != nil {
			return fmt.Errorf("failed to insert sale record: %w", err)
		}
	}

	prepStmt, err := tx.PrepareContext(c.Context, prepInsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare prep insert: %w", err)
	}
	defer prepStmt.Close()

	for _, entry := range bundle.Snapshot.PrepLog {
		if _, err := prepStmt.ExecContext(
			c.Context,
			entry.DishName, entry.TotalPortions, entry.Processed, entry.ExpiryDate,
		); err != nil {
			return fmt.Errorf("failed to insert prep entry: %w", err)
		}
	}

	dispatchStmt, err := tx.PrepareContext(c.Context, dispatchInsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare dispatch insert: %w", err)
	}
	defer dispatchStmt.Close()

	for _, rec := range bundle.Snapshot.Dispatch {
		if _, err := dispatchStmt.ExecContext(c.Context, rec.DishName, rec.ColdRoomStock); err != nil {
			return fmt.Errorf("failed to insert dispatch record: %w", err)
		}
	}

	dishStmt, err := tx.PrepareContext(c.Context, dishInsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare dish insert: %w", err)
	}
	defer dishStmt.Close()

	for _, name := range bundle.Dishes {
		if _, err := dishStmt.ExecContext(c.Context, name); err != nil {
			return fmt.Errorf("failed to insert dish: %w", err)
		}
	}

	recipeStmt, err := tx.PrepareContext(c.Context, recipeInsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare recipe insert: %w", err)
	}
	defer recipeStmt.Close()

	for dish, cost := range bundle.CostPerKg {
		if _, err := recipeStmt.ExecContext(c.Context, dish, cost); err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logger.Log.Info().
		Int("sales", len(bundle.Snapshot.Sales)).
		Int("prep", len(bundle.Snapshot.PrepLog)).
		Int("dispatch", len(bundle.Snapshot.Dispatch)).
		Int("dishes", len(bundle.Dishes)).
		Msg("snapshot seeded")

	return nil
}
