package domain

import "time"

// SaleRecord is one dish/location/day line of the sales ledger.
// A record with RemainingPortions > 0, EndOfDay true and a date before today
// represents old stock carried over from a previous day.
type SaleRecord struct {
	Date              time.Time  `json:"date" db:"sale_date"`
	Location          string     `json:"location" db:"location"`
	DishName          string     `json:"dish_name" db:"dish_name"`
	ReceivedPortions  int        `json:"received_portions" db:"received_portions"`
	RemainingPortions int        `json:"remaining_portions" db:"remaining_portions"`
	EndOfDay          bool       `json:"end_of_day" db:"end_of_day"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
}

// PrepLogEntry is a batch currently being or having been cooked.
// Processed false means the batch is still in the kitchen.
type PrepLogEntry struct {
	DishName      string     `json:"dish_name" db:"dish_name"`
	TotalPortions int        `json:"total_portions" db:"total_portions"`
	Processed     bool       `json:"processed" db:"processed"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
}

// DispatchRecord holds portions sitting in the cold room awaiting
// distribution to a location.
type DispatchRecord struct {
	DishName      string `json:"dish_name" db:"dish_name"`
	ColdRoomStock int    `json:"cold_room_stock" db:"cold_room_stock"`
}

// LocationMetrics holds per (location, dish) stock figures derived from the
// sales ledger.
type LocationMetrics struct {
	CurrentStock  int `json:"current_stock"`
	OldStock      int `json:"old_stock"`
	AvgDailySales int `json:"avg_daily_sales"`
}

// LocationBreakdown is the per-location slice of a PlanItem, for display.
type LocationBreakdown struct {
	CurrentStock   int `json:"current_stock"`
	OldStock       int `json:"old_stock"`
	AvgDailySales  int `json:"avg_daily_sales"`
	ExpectedDemand int `json:"expected_demand"`
}

// ExpiryStatus counts batches nearing or past their expiry date, pooled
// across prep batches and sale records.
type ExpiryStatus struct {
	Expired int `json:"expired"`
	Urgent  int `json:"urgent"`
	Warning int `json:"warning"`
}

// Alert is a human-readable urgency flag attached to a plan item.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Recommendation is an actionable suggestion attached to a plan item.
type Recommendation struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Detail string `json:"detail"`
}

// PlanItem is the per-dish output of one planning run. Items are rebuilt from
// scratch on every run and carry no identity across runs.
type PlanItem struct {
	DishName        string                       `json:"dish_name"`
	Priority        Priority                     `json:"priority"`
	PriorityScore   int                          `json:"priority_score"`
	Alerts          []Alert                      `json:"alerts"`
	Recommendations []Recommendation             `json:"recommendations"`
	CurrentStock    int                          `json:"current_stock"`
	OldStock        int                          `json:"old_stock"`
	InPrep          int                          `json:"in_prep"`
	ColdRoomStock   int                          `json:"cold_room_stock"`
	TotalAvailable  int                          `json:"total_available"`
	ExpectedDemand  int                          `json:"expected_demand"`
	NeedToCook      int                          `json:"need_to_cook"`
	PortionsPerKg   int                          `json:"portions_per_kg"`
	SuggestedKg     float64                      `json:"suggested_kg"`
	EstimatedCost   float64                      `json:"estimated_cost"`
	Expiring        ExpiryStatus                 `json:"expiring_batches"`
	Locations       map[string]LocationBreakdown `json:"locations"`
}

// PlanFilter narrows a plan to the slice a caller cares about.
type PlanFilter struct {
	Timeframe    Timeframe `json:"timeframe"`
	Location     string    `json:"location"`
	CriticalOnly bool      `json:"critical_only"`
	MinPriority  Priority  `json:"min_priority,omitempty"`
}

// PlanSummary aggregates a (filtered) plan list.
type PlanSummary struct {
	ItemCount         int     `json:"item_count"`
	CriticalCount     int     `json:"critical_count"`
	HighCount         int     `json:"high_count"`
	TotalNeedToCook   int     `json:"total_need_to_cook"`
	TotalCost         float64 `json:"total_cost"`
	ItemsWithOldStock int     `json:"items_with_old_stock"`
	TotalOldStock     int     `json:"total_old_stock"`
}

// PlanRun records one completed planning pass, for run history.
type PlanRun struct {
	ID            int64     `json:"id" db:"id"`
	Timeframe     string    `json:"timeframe" db:"timeframe"`
	TargetDate    time.Time `json:"target_date" db:"target_date"`
	ItemCount     int       `json:"item_count" db:"item_count"`
	CriticalCount int       `json:"critical_count" db:"critical_count"`
	HighCount     int       `json:"high_count" db:"high_count"`
	TotalCost     float64   `json:"total_cost" db:"total_cost"`
	StartedAt     time.Time `json:"started_at" db:"started_at"`
	CompletedAt   time.Time `json:"completed_at" db:"completed_at"`
}
