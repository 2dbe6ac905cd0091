// Package snapshot loads planning snapshots from CSV files. It is the data
// source for the CLI and for database seeding; the HTTP server loads its
// snapshots from Postgres instead.
package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/planner"
)

// File names expected inside a snapshot directory. Dishes and recipes are
// optional; the dish list falls back to the union of dish names seen in the
// data files, and missing recipe costs price at zero.
const (
	salesFile    = "sales.csv"
	prepFile     = "prep_log.csv"
	dispatchFile = "dispatch.csv"
	dishesFile   = "dishes.csv"
	recipesFile  = "recipes.csv"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// Bundle is a snapshot plus the registry data needed to plan against it.
// It implements planner.DishSource and planner.CostEstimator so the CLI can
// hand it straight to the planner.
type Bundle struct {
	Snapshot  planner.Snapshot
	Dishes    []string
	CostPerKg map[string]float64
}

// ListDishes returns the dish registry in stable order.
func (b *Bundle) ListDishes(ctx context.Context) ([]string, error) {
	return b.Dishes, nil
}

// EstimateCost prices a batch from the per-kg recipe cost, zero when the
// dish has no recipe on file.
func (b *Bundle) EstimateCost(ctx context.Context, dishName string, kg float64) (float64, error) {
	return b.CostPerKg[normalizeDish(dishName)] * kg, nil
}

// LoadDir reads a snapshot directory into a Bundle. Rows that cannot be
// parsed are skipped with a warning rather than failing the load.
func LoadDir(dir string) (*Bundle, error) {
	bundle := &Bundle{CostPerKg: make(map[string]float64)}

	sales, err := readCSV(filepath.Join(dir, salesFile), parseSaleRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", salesFile, err)
	}
	bundle.Snapshot.Sales = sales

	prep, err := readOptionalCSV(filepath.Join(dir, prepFile), parsePrepEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", prepFile, err)
	}
	bundle.Snapshot.PrepLog = prep

	dispatch, err := readOptionalCSV(filepath.Join(dir, dispatchFile), parseDispatchRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dispatchFile, err)
	}
	bundle.Snapshot.Dispatch = dispatch

	recipes, err := readOptionalCSV(filepath.Join(dir, recipesFile), parseRecipeCost)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", recipesFile, err)
	}
	for _, r := range recipes {
		bundle.CostPerKg[normalizeDish(r.dish)] = r.costPerKg
	}

	dishes, err := readOptionalCSV(filepath.Join(dir, dishesFile), parseDishName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dishesFile, err)
	}
	if len(dishes) > 0 {
		bundle.Dishes = dishes
	} else {
		bundle.Dishes = collectDishNames(bundle.Snapshot)
	}

	return bundle, nil
}

// row gives parsers access to record fields by normalized header name.
type row struct {
	record []string
	index  map[string]int
}

func (r row) get(names ...string) string {
	for _, name := range names {
		if i, ok := r.index[normalizeColumnName(name)]; ok && i < len(r.record) {
			return strings.TrimSpace(r.record[i])
		}
	}
	return ""
}

func (r row) getInt(names ...string) int {
	v := r.get(names...)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	return n
}

func (r row) getFloat(names ...string) float64 {
	v := r.get(names...)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func (r row) getBool(names ...string) bool {
	switch strings.ToLower(r.get(names...)) {
	case "true", "t", "yes", "y", "1":
		return true
	default:
		return false
	}
}

func (r row) getDate(names ...string) (time.Time, bool) {
	v := r.get(names...)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func readCSV[T any](path string, parse func(row) (T, bool)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[normalizeColumnName(h)] = i
	}

	var (
		out     []T
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		value, ok := parse(row{record: record, index: index})
		if !ok {
			skipped++
			continue
		}
		out = append(out, value)
	}

	if skipped > 0 {
		log.Warn().Str("file", filepath.Base(path)).Int("skipped", skipped).Msg("snapshot: skipped malformed rows")
	}

	return out, nil
}

// readOptionalCSV behaves like readCSV but treats a missing file as empty.
func readOptionalCSV[T any](path string, parse func(row) (T, bool)) ([]T, error) {
	out, err := readCSV(path, parse)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return out, err
}

func parseSaleRecord(r row) (domain.SaleRecord, bool) {
	date, ok := r.getDate("date", "sale_date")
	if !ok {
		// A ledger line without a date cannot be placed in any window
		return domain.SaleRecord{}, false
	}
	dish := r.get("dish_name", "dish")
	if dish == "" {
		return domain.SaleRecord{}, false
	}

	rec := domain.SaleRecord{
		Date:              date,
		Location:          r.get("location"),
		DishName:          dish,
		ReceivedPortions:  r.getInt("received_portions", "received"),
		RemainingPortions: r.getInt("remaining_portions", "remaining"),
		EndOfDay:          r.getBool("end_of_day", "eod"),
	}
	if expiry, ok := r.getDate("expiry_date", "expiry"); ok {
		rec.ExpiryDate = &expiry
	}
	return rec, true
}

func parsePrepEntry(r row) (domain.PrepLogEntry, bool) {
	dish := r.get("dish_name", "dish")
	if dish == "" {
		return domain.PrepLogEntry{}, false
	}
	entry := domain.PrepLogEntry{
		DishName:      dish,
		TotalPortions: r.getInt("total_portions", "portions"),
		Processed:     r.getBool("processed"),
	}
	if expiry, ok := r.getDate("expiry_date", "expiry"); ok {
		entry.ExpiryDate = &expiry
	}
	return entry, true
}

func parseDispatchRecord(r row) (domain.DispatchRecord, bool) {
	dish := r.get("dish_name", "dish")
	if dish == "" {
		return domain.DispatchRecord{}, false
	}
	return domain.DispatchRecord{
		DishName:      dish,
		ColdRoomStock: r.getInt("cold_room_stock", "cold_room"),
	}, true
}

type recipeCost struct {
	dish      string
	costPerKg float64
}

func parseRecipeCost(r row) (recipeCost, bool) {
	dish := r.get("dish_name", "dish")
	if dish == "" {
		return recipeCost{}, false
	}
	return recipeCost{dish: dish, costPerKg: r.getFloat("cost_per_kg", "cost")}, true
}

func parseDishName(r row) (string, bool) {
	name := r.get("name", "dish_name", "dish")
	return name, name != ""
}

// collectDishNames derives a dish registry from the snapshot itself, in
// stable sorted order.
func collectDishNames(snap planner.Snapshot) []string {
	seen := make(map[string]string)
	add := func(name string) {
		key := normalizeDish(name)
		if key == "" {
			return
		}
		if _, ok := seen[key]; !ok {
			seen[key] = strings.TrimSpace(name)
		}
	}
	for _, rec := range snap.Sales {
		add(rec.DishName)
	}
	for _, entry := range snap.PrepLog {
		add(entry.DishName)
	}
	for _, rec := range snap.Dispatch {
		add(rec.DishName)
	}

	names := make([]string, 0, len(seen))
	for _, name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

func normalizeDish(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
