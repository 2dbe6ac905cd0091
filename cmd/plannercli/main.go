package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/planner"
	"github.com/masalahub/kitchenplan/internal/snapshot"
	"github.com/masalahub/kitchenplan/pkg/logger"
)

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing snapshot CSV files (sales.csv, prep_log.csv, dispatch.csv, ...)",
		Value:   "./data/snapshot",
		EnvVars: []string{"KITCHENPLAN_DATA_DIR"},
	}
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("could not load .env file")
	}

	app := &cli.App{
		Name:  "plannercli",
		Usage: "Compute and manage kitchen replenishment plans",
		Commands: []*cli.Command{
			{
				Name:  "plan",
				Usage: "Compute a cooking plan from a CSV snapshot directory",
				Flags: []cli.Flag{
					newDataDirFlag(),
					&cli.StringFlag{
						Name:  "timeframe",
						Usage: "Planning timeframe: today, tomorrow or weekend",
						Value: "today",
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "Restrict the plan to a single location",
					},
					&cli.BoolFlag{
						Name:  "critical-only",
						Usage: "Only show critical and high priority dishes",
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Only show dishes at or above this priority (critical, high, medium, low)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the plan CSV to this path instead of stdout",
					},
				},
				Action: runPlan,
			},
			{
				Name:  "seed",
				Usage: "Load a CSV snapshot directory into Postgres",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag(),
				},
				Action: runSeed,
			},
			{
				Name:  "export",
				Usage: "Compute a plan and upload it as CSV to object storage",
				Flags: []cli.Flag{
					newDataDirFlag(),
					&cli.StringFlag{
						Name:  "timeframe",
						Usage: "Planning timeframe: today, tomorrow or weekend",
						Value: "today",
					},
				},
				Action: runExport,
			},
			{
				Name:  "exports",
				Usage: "Inspect plans already uploaded to object storage",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List exported plan CSVs",
						Action: runExportList,
					},
					{
						Name:  "fetch",
						Usage: "Download an exported plan CSV",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "key",
								Usage:    "Object key of the export, e.g. plans/20250306.csv",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "dest",
								Usage: "Local path to write to (defaults to the file name of the key)",
							},
						},
						Action: runExportFetch,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("plannercli failed")
	}
}

// computeFromDir loads a snapshot bundle and runs a full planning pass.
func computeFromDir(c *cli.Context) ([]domain.PlanItem, error) {
	bundle, err := snapshot.LoadDir(c.String("data-dir"))
	if err != nil {
		return nil, err
	}

	p := planner.New(planner.Config{
		Dishes: bundle,
		Costs:  bundle,
	})

	tf := domain.ParseTimeframe(c.String("timeframe"))
	items, err := p.ComputePlan(c.Context, bundle.Snapshot, tf, time.Now())
	if err != nil {
		return nil, err
	}

	filter := domain.PlanFilter{
		Timeframe:    tf,
		Location:     c.String("location"),
		CriticalOnly: c.Bool("critical-only"),
	}
	if p, ok := domain.ParsePriority(c.String("priority")); ok {
		filter.MinPriority = p
	}

	return planner.ApplyFilter(items, filter), nil
}

func runPlan(c *cli.Context) error {
	items, err := computeFromDir(c)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	if err := snapshot.WritePlanCSV(out, items); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}

	summary := planner.Summarize(items)
	logger.Log.Info().
		Int("items", summary.ItemCount).
		Int("critical", summary.CriticalCount).
		Int("high", summary.HighCount).
		Int("need_to_cook", summary.TotalNeedToCook).
		Float64("cost", summary.TotalCost).
		Msg("plan computed")

	return nil
}
