package planner

import (
	"math"
	"strings"
	"time"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// locationMetrics derives current stock, old stock and average daily sales
// for one (location, dish) pair from that dish's sale records.
//
// Pure function of its inputs and the supplied clock; records with a zero
// date are skipped and negative portion counts are clamped to zero so a
// single malformed record cannot corrupt the aggregate.
func locationMetrics(location string, sales []domain.SaleRecord, now time.Time) domain.LocationMetrics {
	metrics := domain.LocationMetrics{}
	today := now.Format(dayLayout)

	totalSold := 0
	windowRecords := 0

	for _, rec := range sales {
		if rec.Date.IsZero() || !strings.EqualFold(rec.Location, location) {
			continue
		}

		remaining := clampPortions(rec.RemainingPortions)
		received := clampPortions(rec.ReceivedPortions)
		recDay := rec.Date.Format(dayLayout)

		// 1. Current stock: today's live ledger lines (not yet closed out)
		if !rec.EndOfDay && recDay == today {
			metrics.CurrentStock += remaining
		}

		// 2. Old stock: unsold carry-over from closed previous days
		if rec.EndOfDay && remaining > 0 && recDay != today {
			metrics.OldStock += remaining
		}

		// 3. Units sold within the 14-day lookback window
		daysAgo := now.Sub(rec.Date).Hours() / 24
		if daysAgo >= 0 && daysAgo <= lookbackDays {
			sold := received - remaining
			if sold > 0 {
				totalSold += sold
			}
			windowRecords++
		}
	}

	// 4. Average daily sales, with a conservative fallback when the window
	//    is empty so a new dish does not forecast zero demand
	if windowRecords == 0 {
		metrics.AvgDailySales = fallbackLocationAvg
	} else {
		metrics.AvgDailySales = int(math.Round(float64(totalSold) / lookbackDays))
	}

	return metrics
}

// clampPortions treats missing or malformed portion counts as zero.
func clampPortions(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
