package planner

import (
	"time"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// Expiry buckets, in hours until expiry relative to now.
const (
	urgentWindowHours  = 24
	warningWindowHours = 48
)

// scanExpiry pools impending spoilage across a dish's unprocessed prep
// batches and its sale records that still hold portions. Batches more than
// 48 hours out are ignored. The counts feed the priority score and alerts
// only; they never gate cooking quantity.
func scanExpiry(prep []domain.PrepLogEntry, sales []domain.SaleRecord, now time.Time) domain.ExpiryStatus {
	status := domain.ExpiryStatus{}

	for _, entry := range prep {
		if entry.Processed || entry.ExpiryDate == nil {
			continue
		}
		bucket(&status, entry.ExpiryDate.Sub(now).Hours())
	}

	for _, rec := range sales {
		if rec.ExpiryDate == nil || clampPortions(rec.RemainingPortions) == 0 {
			continue
		}
		bucket(&status, rec.ExpiryDate.Sub(now).Hours())
	}

	return status
}

func bucket(status *domain.ExpiryStatus, hoursLeft float64) {
	switch {
	case hoursLeft < 0:
		status.Expired++
	case hoursLeft < urgentWindowHours:
		status.Urgent++
	case hoursLeft < warningWindowHours:
		status.Warning++
	}
}
