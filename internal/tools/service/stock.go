package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const stockKeyPrefix = "toolroom:stock:"

func stockKey(toolTypeID string) string {
	return stockKeyPrefix + toolTypeID
}

// StockCache keeps computed summaries in Redis. A nil cache or a cache
// without a client is a no-op, so callers never check.
type StockCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewStockCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *StockCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *StockCache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached summary. Misses and Redis errors both report false.
func (c *StockCache) Get(ctx context.Context, toolTypeID string) (*entity.StockSummary, bool) {
	if !c.enabled() {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, stockKey(toolTypeID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("stock cache read failed", zap.String("tool_type_id", toolTypeID), zap.Error(err))
		}
		return nil, false
	}
	var summary entity.StockSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func (c *StockCache) Set(ctx context.Context, summary *entity.StockSummary) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, stockKey(summary.ToolTypeID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("stock cache write failed", zap.String("tool_type_id", summary.ToolTypeID), zap.Error(err))
	}
}

// Invalidate drops the cached summaries of the given tool types.
func (c *StockCache) Invalidate(ctx context.Context, toolTypeIDs ...string) {
	if !c.enabled() || len(toolTypeIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(toolTypeIDs))
	for _, id := range toolTypeIDs {
		keys = append(keys, stockKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("stock cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// StockService answers stock questions for tool types.
type StockService struct {
	repos *repository.Repositories
	cache *StockCache
}

func NewStockService(repos *repository.Repositories, cache *StockCache) *StockService {
	return &StockService{repos: repos, cache: cache}
}

// ComputeStock returns the live counts of one tool type.
func (s *StockService) ComputeStock(ctx context.Context, toolTypeID string) (*entity.StockSummary, error) {
	if cached, ok := s.cache.Get(ctx, toolTypeID); ok {
		return cached, nil
	}
	if _, err := s.repos.ToolType.FindByID(ctx, toolTypeID); err != nil {
		return nil, missing(err, "tool type", toolTypeID)
	}
	summary, err := s.repos.Stock.ForToolType(ctx, toolTypeID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, summary)
	return summary, nil
}

// ComputeStockAll returns summaries keyed by tool type id. Tool types
// without instances are absent from the map.
func (s *StockService) ComputeStockAll(ctx context.Context) (map[string]entity.StockSummary, error) {
	return s.repos.Stock.All(ctx)
}

// Invalidate drops cached summaries after a mutation.
func (s *StockService) Invalidate(ctx context.Context, toolTypeIDs ...string) {
	s.cache.Invalidate(ctx, toolTypeIDs...)
}
