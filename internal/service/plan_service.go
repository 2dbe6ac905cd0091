package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/masalahub/kitchenplan/internal/cache"
	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/planner"
	"github.com/masalahub/kitchenplan/internal/repository"
	"github.com/masalahub/kitchenplan/internal/snapshot"
	"github.com/masalahub/kitchenplan/internal/storage"
)

// PlanService wires the planning core to its host concerns: snapshot
// loading, caching, run history and plan export. The clock is injectable so
// service behavior stays as deterministic as the core in tests.
type PlanService struct {
	repo    repository.PlanningRepository
	planner *planner.Planner
	cache   cache.PlanCache
	store   storage.ObjectStorage
	now     func() time.Time
}

// NewPlanService creates the service. The repository serves as the
// planner's dish source and cost estimator; store may be nil when plan
// export is disabled.
func NewPlanService(repo repository.PlanningRepository, cacheImpl cache.PlanCache, store storage.ObjectStorage, locations []string, workers int) *PlanService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}

	p := planner.New(planner.Config{
		Dishes:      repo,
		Costs:       repo,
		Locations:   locations,
		WorkerCount: workers,
	})

	return &PlanService{
		repo:    repo,
		planner: p,
		cache:   cacheImpl,
		store:   store,
		now:     time.Now,
	}
}

// GetPlan returns the (filtered) plan for the given filter, from cache
// when possible.
func (s *PlanService) GetPlan(ctx context.Context, filter domain.PlanFilter) ([]domain.PlanItem, error) {
	if items, ok, err := s.cache.GetPlan(ctx, filter); err == nil && ok {
		return items, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("plan: cache get failed")
	}

	items, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPlan(ctx, filter, items); err != nil {
		log.Warn().Err(err).Msg("plan: cache set failed")
	}

	return items, nil
}

// GetSummary aggregates the (filtered) plan.
func (s *PlanService) GetSummary(ctx context.Context, filter domain.PlanFilter) (domain.PlanSummary, error) {
	items, err := s.GetPlan(ctx, filter)
	if err != nil {
		return domain.PlanSummary{}, err
	}

	return planner.Summarize(items), nil
}

// Refresh drops every cached plan, recomputes the unfiltered plan for the
// given timeframe and records the pass in run history.
func (s *PlanService) Refresh(ctx context.Context, tf domain.Timeframe) (domain.PlanSummary, error) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("plan: cache invalidate failed")
	}

	startedAt := s.now()
	filter := domain.PlanFilter{Timeframe: tf}
	items, err := s.compute(ctx, filter)
	if err != nil {
		return domain.PlanSummary{}, err
	}

	if err := s.cache.SetPlan(ctx, filter, items); err != nil {
		log.Warn().Err(err).Msg("plan: cache set failed")
	}

	summary := planner.Summarize(items)
	run := &domain.PlanRun{
		Timeframe:     string(tf),
		TargetDate:    planner.ResolveTargetDate(tf, startedAt),
		ItemCount:     summary.ItemCount,
		CriticalCount: summary.CriticalCount,
		HighCount:     summary.HighCount,
		TotalCost:     summary.TotalCost,
		StartedAt:     startedAt,
		CompletedAt:   s.now(),
	}
	if err := s.repo.RecordPlanRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("plan: failed to record plan run")
	}

	return summary, nil
}

// planExportPrefix is the object-key prefix every exported plan lives under.
const planExportPrefix = "plans/"

// ExportPlan computes the plan for the filter and uploads it as CSV to
// object storage under plans/<date>.csv. Returns the object key.
func (s *PlanService) ExportPlan(ctx context.Context, filter domain.PlanFilter) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("plan export is not configured")
	}

	items, err := s.GetPlan(ctx, filter)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := snapshot.WritePlanCSV(&buf, items); err != nil {
		return "", fmt.Errorf("failed to encode plan csv: %w", err)
	}

	key := fmt.Sprintf("%s%s.csv", planExportPrefix, s.now().Format("20060102"))
	if err := s.store.UploadObject(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("items", len(items)).Msg("plan: exported")
	return key, nil
}

// ListExports returns the plan CSVs previously uploaded to object storage.
func (s *PlanService) ListExports(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.store == nil {
		return nil, fmt.Errorf("plan export is not configured")
	}

	return s.store.ListObjects(ctx, planExportPrefix)
}

// FetchExport downloads a previously exported plan CSV to a local path.
func (s *PlanService) FetchExport(ctx context.Context, key, destPath string) error {
	if s.store == nil {
		return fmt.Errorf("plan export is not configured")
	}
	if !strings.HasPrefix(key, planExportPrefix) {
		return fmt.Errorf("unknown export key %q", key)
	}

	return s.store.DownloadObject(ctx, key, destPath)
}

// compute runs one full planning pass: load snapshot, plan, filter.
func (s *PlanService) compute(ctx context.Context, filter domain.PlanFilter) ([]domain.PlanItem, error) {
	snap, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	items, err := s.planner.ComputePlan(ctx, snap, filter.Timeframe, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute plan: %w", err)
	}

	return planner.ApplyFilter(items, filter), nil
}
