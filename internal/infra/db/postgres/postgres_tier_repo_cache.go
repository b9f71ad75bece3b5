package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-merchant-commerce/internal/domain/model"
	"telegram-merchant-commerce/internal/domain/ports/repository"
	"telegram-merchant-commerce/internal/infra/metrics"
	red "telegram-merchant-commerce/internal/infra/redis"
)

var _ repository.TierRepository = (*tierRepoCacheDecorator)(nil)

// tierRepoCacheDecorator serves tier metadata reads from Redis. Tier rows
// change rarely and are read on every reconcile, which makes them the one
// hot read worth caching.
type tierRepoCacheDecorator struct {
	inner repository.TierRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewTierRepoCacheDecorator(inner repository.TierRepository, cache red.RedisClient) repository.TierRepository {
	return &tierRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *tierRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tier, error) {
	key := fmt.Sprintf("tier:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("tier", "hit")
		var tier model.Tier
		if json.Unmarshal([]byte(val), &tier) == nil {
			return &tier, nil
		}
	}
	if err != nil && err != redis.Nil {
		// Cache unavailable; fall through to the database.
	}

	metrics.IncCacheRequest("tier", "miss")
	tier, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		bytes, _ := json.Marshal(tier)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return tier, nil
}

// For write operations, we must invalidate the cache.
func (d *tierRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, t *model.Tier) error {
	d.cache.Del(ctx, fmt.Sprintf("tier:%s", t.ID))
	d.cache.Del(ctx, fmt.Sprintf("tiers:service:%s", t.ServiceID))
	return d.inner.Save(ctx, tx, t)
}

func (d *tierRepoCacheDecorator) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Tier, error) {
	key := fmt.Sprintf("tiers:service:%s", serviceID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("tier_list", "hit")
		var tiers []*model.Tier
		if json.Unmarshal([]byte(val), &tiers) == nil {
			return tiers, nil
		}
	}

	metrics.IncCacheRequest("tier_list", "miss")
	tiers, err := d.inner.ListByService(ctx, tx, serviceID)
	if err != nil {
		return nil, err
	}
	if len(tiers) > 0 {
		bytes, _ := json.Marshal(tiers)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return tiers, nil
}
