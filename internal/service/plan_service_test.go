package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masalahub/kitchenplan/internal/cache"
	"github.com/masalahub/kitchenplan/internal/domain"
	"github.com/masalahub/kitchenplan/internal/planner"
	"github.com/masalahub/kitchenplan/internal/storage"
)

var serviceNow = time.Date(2025, 3, 6, 12, 0, 0, 0, time.Local)

type stubRepo struct {
	snap   planner.Snapshot
	dishes []string
	runs   []*domain.PlanRun
}

func (r *stubRepo) LoadSnapshot(context.Context) (planner.Snapshot, error) {
	return r.snap, nil
}

func (r *stubRepo) ListDishes(context.Context) ([]string, error) {
	return r.dishes, nil
}

func (r *stubRepo) EstimateCost(context.Context, string, float64) (float64, error) {
	return 0, nil
}

func (r *stubRepo) RecordPlanRun(_ context.Context, run *domain.PlanRun) error {
	r.runs = append(r.runs, run)
	return nil
}

// stubStorage keeps objects in memory and writes downloads to disk.
type stubStorage struct {
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: map[string][]byte{}}
}

func (s *stubStorage) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *stubStorage) DownloadObject(_ context.Context, key string, destPath string) error {
	data, ok := s.objects[key]
	if !ok {
		return fmt.Errorf("no such object %s", key)
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (s *stubStorage) UploadObject(_ context.Context, key string, data []byte) error {
	s.objects[key] = data
	return nil
}

func newTestService(store storage.ObjectStorage) *PlanService {
	repo := &stubRepo{dishes: []string{"Lamb Curry"}}
	svc := NewPlanService(repo, cache.NewNoopPlanCache(), store, nil, 1)
	svc.now = func() time.Time { return serviceNow }
	return svc
}

func TestExportPlanUploadsCSV(t *testing.T) {
	store := newStubStorage()
	svc := newTestService(store)

	key, err := svc.ExportPlan(context.Background(), domain.PlanFilter{})
	require.NoError(t, err)
	assert.Equal(t, "plans/20250306.csv", key)

	data, ok := store.objects[key]
	require.True(t, ok)
	assert.Contains(t, string(data), "dish_name")
	assert.Contains(t, string(data), "Lamb Curry")
}

func TestListExportsOnlySeesPlanObjects(t *testing.T) {
	store := newStubStorage()
	store.objects["plans/20250305.csv"] = []byte("a")
	store.objects["plans/20250306.csv"] = []byte("bb")
	store.objects["backups/dump.sql"] = []byte("ignored")

	svc := newTestService(store)

	exports, err := svc.ListExports(context.Background())
	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, "plans/20250305.csv", exports[0].Key)
	assert.Equal(t, "plans/20250306.csv", exports[1].Key)
	assert.Equal(t, int64(2), exports[1].Size)
}

func TestFetchExportWritesFile(t *testing.T) {
	store := newStubStorage()
	store.objects["plans/20250306.csv"] = []byte("dish_name,priority\n")

	svc := newTestService(store)
	dest := filepath.Join(t.TempDir(), "plan.csv")

	require.NoError(t, svc.FetchExport(context.Background(), "plans/20250306.csv", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "dish_name,priority\n", string(data))
}

func TestFetchExportRejectsForeignKeys(t *testing.T) {
	store := newStubStorage()
	store.objects["backups/dump.sql"] = []byte("nope")

	svc := newTestService(store)

	err := svc.FetchExport(context.Background(), "backups/dump.sql", filepath.Join(t.TempDir(), "out"))
	assert.Error(t, err)
}

func TestExportOperationsRequireStorage(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.ExportPlan(ctx, domain.PlanFilter{})
	assert.Error(t, err)

	_, err = svc.ListExports(ctx)
	assert.Error(t, err)

	assert.Error(t, svc.FetchExport(ctx, "plans/20250306.csv", "out.csv"))
}

func TestRefreshRecordsRun(t *testing.T) {
	repo := &stubRepo{dishes: []string{"Lamb Curry"}}
	svc := NewPlanService(repo, cache.NewNoopPlanCache(), nil, nil, 1)
	svc.now = func() time.Time { return serviceNow }

	summary, err := svc.Refresh(context.Background(), domain.TimeframeToday)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ItemCount)

	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, "today", run.Timeframe)
	assert.Equal(t, serviceNow, run.TargetDate)
	assert.Equal(t, summary.ItemCount, run.ItemCount)
}
