package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/masalahub/kitchenplan/internal/config"
	"github.com/masalahub/kitchenplan/internal/domain"
)

const (
	planKeyPrefix    = "plan:items"
	planScanBatchLen = 100
)

// PlanCache memoizes computed plans per filter for a short TTL, so refresh
// spam from the UI does not recompute identical plans.
type PlanCache interface {
	GetPlan(ctx context.Context, filter domain.PlanFilter) ([]domain.PlanItem, bool, error)
	SetPlan(ctx context.Context, filter domain.PlanFilter, items []domain.PlanItem) error
	InvalidateAll(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

// NewPlanCache returns a redis-backed cache, or a noop cache when caching
// is disabled.
func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// NewNoopPlanCache returns a cache that never hits.
func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func (c *redisPlanCache) GetPlan(ctx context.Context, filter domain.PlanFilter) ([]domain.PlanItem, bool, error) {
	key := buildPlanKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.PlanItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false, fmt.Errorf("decode plan cache: %w", err)
	}

	return items, true, nil
}

func (c *redisPlanCache) SetPlan(ctx context.Context, filter domain.PlanFilter, items []domain.PlanItem) error {
	key := buildPlanKey(filter)
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPlanCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, planKeyPrefix, planScanBatchLen)
}

func (n *noopPlanCache) GetPlan(ctx context.Context, filter domain.PlanFilter) ([]domain.PlanItem, bool, error) {
	return nil, false, nil
}

func (n *noopPlanCache) SetPlan(ctx context.Context, filter domain.PlanFilter, items []domain.PlanItem) error {
	return nil
}

func (n *noopPlanCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPlanKey(filter domain.PlanFilter) string {
	return fmt.Sprintf("%s:%s", planKeyPrefix, planFilterHash(filter))
}

// planFilterHash produces a stable key for a filter. Equal filters must
// always hash the same so runs can share cache entries.
func planFilterHash(filter domain.PlanFilter) string {
	parts := []string{}

	if filter.Timeframe != "" {
		parts = append(parts, "timeframe="+strings.ToLower(string(filter.Timeframe)))
	}
	if filter.Location != "" {
		parts = append(parts, "location="+strings.ToLower(strings.TrimSpace(filter.Location)))
	}
	if filter.CriticalOnly {
		parts = append(parts, "critical_only=1")
	}
	if filter.MinPriority != "" {
		parts = append(parts, "min_priority="+strings.ToLower(string(filter.MinPriority)))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
