package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront/internal/model"
)

const productCacheTTL = 60 * time.Second

// ProductCache is a read-through cache of single products. A nil
// *ProductCache is valid and caches nothing.
type ProductCache struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewProductCache(rdb *redis.Client, log *slog.Logger) *ProductCache {
	return &ProductCache{rdb: rdb, log: log}
}

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }

func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*model.Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	cached, err := c.rdb.Get(ctx, productCacheKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p model.Product
	if json.Unmarshal(cached, &p) != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *model.Product) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productCacheKey(p.ID), data, productCacheTTL).Err(); err != nil {
		c.log.Warn("cache product", "product_id", p.ID, "error", err)
	}
}

// Invalidate drops cached entries; failures are logged, entries then expire on TTL.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("invalidate product cache", "count", len(keys), "error", err)
	}
}
