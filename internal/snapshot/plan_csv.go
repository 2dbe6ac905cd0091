package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// WritePlanCSV renders a plan list as CSV, one row per dish in plan order.
func WritePlanCSV(w io.Writer, items []domain.PlanItem) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{
		"dish_name",
		"priority",
		"priority_score",
		"current_stock",
		"old_stock",
		"in_prep",
		"cold_room_stock",
		"total_available",
		"expected_demand",
		"need_to_cook",
		"portions_per_kg",
		"suggested_kg",
		"estimated_cost",
		"alerts",
		"recommendations",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, item := range items {
		record := []string{
			item.DishName,
			string(item.Priority),
			strconv.Itoa(item.PriorityScore),
			strconv.Itoa(item.CurrentStock),
			strconv.Itoa(item.OldStock),
			strconv.Itoa(item.InPrep),
			strconv.Itoa(item.ColdRoomStock),
			strconv.Itoa(item.TotalAvailable),
			strconv.Itoa(item.ExpectedDemand),
			strconv.Itoa(item.NeedToCook),
			strconv.Itoa(item.PortionsPerKg),
			strconv.FormatFloat(item.SuggestedKg, 'f', 1, 64),
			strconv.FormatFloat(item.EstimatedCost, 'f', 2, 64),
			joinAlerts(item.Alerts),
			joinRecommendations(item.Recommendations),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func joinAlerts(alerts []domain.Alert) string {
	parts := make([]string, len(alerts))
	for i, a := range alerts {
		parts[i] = a.Message
	}
	return strings.Join(parts, "; ")
}

func joinRecommendations(recs []domain.Recommendation) string {
	parts := make([]string, len(recs))
	for i, r := range recs {
		parts[i] = fmt.Sprintf("%s: %s", r.Action, r.Detail)
	}
	return strings.Join(parts, "; ")
}
