package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/masalahub/kitchenplan/internal/domain"
)

// Refresher re-runs the plan on a fixed cadence so the cache stays warm and
// run history keeps accumulating. Cadence is a host concern; the planning
// core itself never schedules anything.
type Refresher struct {
	service   *PlanService
	timeframe domain.Timeframe
	interval  time.Duration
}

// NewRefresher creates a refresher. Intervals below one second fall back
// to the five minutes of the reference deployment.
func NewRefresher(service *PlanService, tf domain.Timeframe, interval time.Duration) *Refresher {
	if interval < time.Second {
		interval = 5 * time.Minute
	}

	return &Refresher{
		service:   service,
		timeframe: tf,
		interval:  interval,
	}
}

// Run blocks until ctx is cancelled, refreshing the plan every interval.
// A failed refresh is logged and retried on the next tick; a stale run is
// simply superseded by the next one.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("plan refresher started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("plan refresher stopped")
			return
		case <-ticker.C:
			summary, err := r.service.Refresh(ctx, r.timeframe)
			if err != nil {
				log.Error().Err(err).Msg("plan refresh failed")
				continue
			}
			log.Info().
				Int("items", summary.ItemCount).
				Int("critical", summary.CriticalCount).
				Int("need_to_cook", summary.TotalNeedToCook).
				Msg("plan refreshed")
		}
	}
}
